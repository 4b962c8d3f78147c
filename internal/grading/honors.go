package grading

import "github.com/insightdelivered/transcript-grades/internal/models"

// GraduatingYearLevel is the only year level eligible for Latin honors.
const GraduatingYearLevel = 4

const (
	deansListCeiling models.Decimal = 175
	magnaCeiling     models.Decimal = 145
	summaCeiling     models.Decimal = 125
)

// ClassifyHonor maps a weighted average to an honor tier. Latin honors are
// reserved for graduating students; every other eligible student is placed
// on the Dean's List however low the average is.
func ClassifyHonor(gwa models.Decimal, yearLevel int, hasGradeAboveCeiling bool) models.HonorTier {
	if hasGradeAboveCeiling || gwa <= 0 || gwa > deansListCeiling {
		return models.HonorNone
	}
	if yearLevel != GraduatingYearLevel {
		return models.HonorDeansList
	}
	switch {
	case gwa <= summaCeiling:
		return models.HonorSummaCumLaude
	case gwa <= magnaCeiling:
		return models.HonorMagnaCumLaude
	default:
		return models.HonorCumLaude
	}
}

// Summary bundles a weighted average with the honor tier it earns.
type Summary struct {
	GWA                  models.GwaResult `json:"gwa"`
	HasGradeAboveCeiling bool             `json:"has_grade_above_ceiling"`
	YearLevel            int              `json:"year_level"`
	Honor                models.HonorTier `json:"honor"`
}

// Summarize calculates the weighted average of records and classifies it.
func (c *Calculator) Summarize(records []models.GradeRecord, yearLevel int) Summary {
	s := Summary{
		GWA:                  c.Calculate(records),
		HasGradeAboveCeiling: c.HasGradeAboveCeiling(records),
		YearLevel:            yearLevel,
		Honor:                models.HonorNone,
	}
	if s.GWA.WeightedAverage != nil {
		s.Honor = ClassifyHonor(*s.GWA.WeightedAverage, yearLevel, s.HasGradeAboveCeiling)
	}
	return s
}
