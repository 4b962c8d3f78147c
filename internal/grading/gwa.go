package grading

import (
	"regexp"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/insightdelivered/transcript-grades/internal/models"
)

// ErrNoEligibleUnits is returned by MustAverage when no record contributes
// units to the weighted average.
var ErrNoEligibleUnits = eris.New("grading: no eligible units")

// DefaultExcludedMarkers name the service-training subject categories that
// institutional policy keeps out of the weighted average.
var DefaultExcludedMarkers = []string{
	"NATIONAL SERVICE TRAINING",
	"NSTP",
	"CWTS",
	"ROTC",
	"LTS",
}

// DefaultGradeCeiling is the worst grade an honor candidate may carry.
const DefaultGradeCeiling models.Decimal = 250

// Policy configures which records count toward the weighted average.
type Policy struct {
	// ExcludedMarkers are matched as whole words, case-insensitively,
	// against the subject name and type.
	ExcludedMarkers []string
	// GradeCeiling is used by HasGradeAboveCeiling. Zero means
	// DefaultGradeCeiling.
	GradeCeiling models.Decimal
}

// DefaultPolicy returns the standard exclusion markers and grade ceiling.
func DefaultPolicy() Policy {
	return Policy{
		ExcludedMarkers: DefaultExcludedMarkers,
		GradeCeiling:    DefaultGradeCeiling,
	}
}

// Calculator computes weighted averages under a Policy. It holds no mutable
// state and may be shared across goroutines.
type Calculator struct {
	excluded *regexp.Regexp
	ceiling  models.Decimal
}

// NewCalculator compiles the policy markers into a Calculator.
func NewCalculator(p Policy) *Calculator {
	c := &Calculator{ceiling: p.GradeCeiling}
	if c.ceiling <= 0 {
		c.ceiling = DefaultGradeCeiling
	}

	var alts []string
	for _, m := range p.ExcludedMarkers {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		alts = append(alts, regexp.QuoteMeta(m))
	}
	if len(alts) > 0 {
		c.excluded = regexp.MustCompile(`(?i)\b(?:` + strings.Join(alts, "|") + `)\b`)
	}
	return c
}

var defaultCalculator = NewCalculator(DefaultPolicy())

// Calculate computes the weighted average under DefaultPolicy.
func Calculate(records []models.GradeRecord) models.GwaResult {
	return defaultCalculator.Calculate(records)
}

// IsPolicyExcluded reports whether the record's name or type carries an
// excluded-category marker.
func (c *Calculator) IsPolicyExcluded(r models.GradeRecord) bool {
	if c.excluded == nil {
		return false
	}
	return c.excluded.MatchString(r.SubjectName) || c.excluded.MatchString(r.SubjectType)
}

// Calculate aggregates records into a GwaResult. Ongoing and policy-excluded
// records are tallied but not averaged. The average is truncated, never
// rounded, to two decimal places.
func (c *Calculator) Calculate(records []models.GradeRecord) models.GwaResult {
	var res models.GwaResult
	var gradePoints, units int64 // hundredths*hundredths, hundredths

	for _, r := range records {
		switch {
		case r.Grade <= 0:
			res.ExcludedOngoingCount++
			continue
		case c.IsPolicyExcluded(r):
			res.ExcludedPolicyCount++
			continue
		case r.Units <= 0:
			res.ExcludedZeroUnitCount++
			continue
		}

		res.IncludedSubjectCount++
		if IsFailing(r.Grade) {
			res.FailedCount++
		}
		gradePoints += int64(r.Units) * int64(r.Grade)
		units += int64(r.Units)
	}

	res.TotalUnits = models.Decimal(units)
	if units > 0 {
		avg := truncatedAverage(gradePoints, units)
		res.WeightedAverage = &avg
	}
	return res
}

// MustAverage returns the weighted average of records, or ErrNoEligibleUnits
// when nothing qualifies.
func (c *Calculator) MustAverage(records []models.GradeRecord) (models.Decimal, error) {
	res := c.Calculate(records)
	if res.WeightedAverage == nil {
		return 0, ErrNoEligibleUnits
	}
	return *res.WeightedAverage, nil
}

// truncatedAverage divides grade points by units, both scaled by 100, and
// returns the quotient in hundredths with the remainder discarded.
func truncatedAverage(gradePoints, units int64) models.Decimal {
	return models.Decimal(gradePoints / units)
}

// CalculateBySemester partitions records by semester, in order of first
// appearance, and calculates each partition independently.
func (c *Calculator) CalculateBySemester(records []models.GradeRecord) []models.SemesterGwa {
	var order []string
	groups := make(map[string][]models.GradeRecord)
	for _, r := range records {
		sem := r.Semester
		if sem == "" {
			sem = models.UnknownSemester
		}
		if _, ok := groups[sem]; !ok {
			order = append(order, sem)
		}
		groups[sem] = append(groups[sem], r)
	}

	out := make([]models.SemesterGwa, 0, len(order))
	for _, sem := range order {
		out = append(out, models.SemesterGwa{
			Semester: sem,
			Result:   c.Calculate(groups[sem]),
		})
	}
	return out
}

// FilterBySemester returns the records whose semester label matches,
// ignoring case and surrounding whitespace.
func FilterBySemester(records []models.GradeRecord, semester string) []models.GradeRecord {
	want := strings.TrimSpace(semester)
	var out []models.GradeRecord
	for _, r := range records {
		if strings.EqualFold(strings.TrimSpace(r.Semester), want) {
			out = append(out, r)
		}
	}
	return out
}

// HasGradeAboveCeiling reports whether any averaged record carries a grade
// worse than the policy ceiling.
func (c *Calculator) HasGradeAboveCeiling(records []models.GradeRecord) bool {
	for _, r := range records {
		if r.Grade <= 0 || c.IsPolicyExcluded(r) {
			continue
		}
		if r.Grade > c.ceiling {
			return true
		}
	}
	return false
}
