// Package grading derives letter grades, weighted averages and honor tiers
// from grade records. Every function is pure and safe for concurrent use.
package grading

import "github.com/insightdelivered/transcript-grades/internal/models"

// PassingCeiling is the highest passing grade on the inverted scale.
const PassingCeiling models.Decimal = 300

// letterBands maps the upper bound of each band (inclusive) to its letter.
var letterBands = []struct {
	upper  models.Decimal
	letter string
}{
	{125, "A"},
	{150, "A-"},
	{175, "B+"},
	{200, "B"},
	{225, "B-"},
	{250, "C+"},
	{275, "C"},
	{300, "C-"},
}

// Derive converts a numeric grade into its letter grade and remarks.
// A zero grade means the subject is still in progress.
func Derive(grade models.Decimal) (string, models.Remarks) {
	if grade == 0 {
		return models.LetterNA, models.RemarksOngoing
	}
	for _, b := range letterBands {
		if grade <= b.upper {
			return b.letter, models.RemarksPassed
		}
	}
	return "F", models.RemarksFailed
}

// Apply fills LetterGrade and Remarks on r from its numeric grade.
func Apply(r *models.GradeRecord) {
	r.LetterGrade, r.Remarks = Derive(r.Grade)
}

// IsFailing reports whether a recorded grade is a failing one.
func IsFailing(grade models.Decimal) bool {
	return grade > PassingCeiling
}
