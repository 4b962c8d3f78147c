package grading

import (
	"fmt"

	"github.com/insightdelivered/transcript-grades/internal/models"
)

// Value bounds a grade record must satisfy.
var (
	MinGrade = models.MustDecimal("1.00")
	MaxGrade = models.MustDecimal("4.00")
	MaxUnits = models.MustDecimal("12.00")
)

// RangeError returns why r's units or grade are out of range, or "".
// A zero grade is an ongoing subject and always in range.
func RangeError(r models.GradeRecord) string {
	if r.Units < 0 || r.Units > MaxUnits {
		return fmt.Sprintf("units %s out of range", r.Units)
	}
	if r.Grade != 0 && (r.Grade < MinGrade || r.Grade > MaxGrade) {
		return fmt.Sprintf("grade %s out of range", r.Grade)
	}
	return ""
}

// InvalidRecord is a record left out of a calculation because a value was
// out of range.
type InvalidRecord struct {
	SubjectCode string `json:"subject_code"`
	Semester    string `json:"semester"`
	Reason      string `json:"reason"`
}

// Sanitize prepares records supplied from outside the parser for
// calculation: out-of-range records are dropped and reported, and the
// letter grade and remarks of the rest are derived again from the grade.
func Sanitize(records []models.GradeRecord) ([]models.GradeRecord, []InvalidRecord) {
	valid := make([]models.GradeRecord, 0, len(records))
	var invalid []InvalidRecord
	for _, r := range records {
		if reason := RangeError(r); reason != "" {
			invalid = append(invalid, InvalidRecord{SubjectCode: r.SubjectCode, Semester: r.Semester, Reason: reason})
			continue
		}
		Apply(&r)
		valid = append(valid, r)
	}
	return valid, invalid
}
