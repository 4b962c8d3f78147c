package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/insightdelivered/transcript-grades/internal/models"
)

func TestDerive(t *testing.T) {
	tests := []struct {
		grade   string
		letter  string
		remarks models.Remarks
	}{
		{"0.00", "N/A", models.RemarksOngoing},
		{"1.00", "A", models.RemarksPassed},
		{"1.25", "A", models.RemarksPassed},
		{"1.26", "A-", models.RemarksPassed},
		{"1.4", "A-", models.RemarksPassed},
		{"1.50", "A-", models.RemarksPassed},
		{"1.51", "B+", models.RemarksPassed},
		{"1.75", "B+", models.RemarksPassed},
		{"1.9", "B", models.RemarksPassed},
		{"2.00", "B", models.RemarksPassed},
		{"2.25", "B-", models.RemarksPassed},
		{"2.50", "C+", models.RemarksPassed},
		{"2.75", "C", models.RemarksPassed},
		{"3.00", "C-", models.RemarksPassed},
		{"3.01", "F", models.RemarksFailed},
		{"4.00", "F", models.RemarksFailed},
		{"5.00", "F", models.RemarksFailed},
	}

	for _, tt := range tests {
		t.Run(tt.grade, func(t *testing.T) {
			letter, remarks := Derive(models.MustDecimal(tt.grade))
			assert.Equal(t, tt.letter, letter)
			assert.Equal(t, tt.remarks, remarks)
		})
	}
}

func TestApply(t *testing.T) {
	r := models.GradeRecord{SubjectCode: "CS21", Grade: models.MustDecimal("3.5")}
	Apply(&r)
	assert.Equal(t, "F", r.LetterGrade)
	assert.Equal(t, models.RemarksFailed, r.Remarks)

	r.Grade = 0
	Apply(&r)
	assert.Equal(t, models.LetterNA, r.LetterGrade)
	assert.Equal(t, models.RemarksOngoing, r.Remarks)
}

func TestIsFailing(t *testing.T) {
	assert.False(t, IsFailing(models.MustDecimal("3.00")))
	assert.True(t, IsFailing(models.MustDecimal("3.25")))
	assert.False(t, IsFailing(0))
}
