package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/insightdelivered/transcript-grades/internal/grading"
	"github.com/insightdelivered/transcript-grades/internal/models"
)

const (
	codeExpr = `[A-Za-z]{2,8}\d{1,5}[A-Za-z]?`
	typeExpr = `[A-Z]{1,6}(?:-[A-Z]+)? ?\d{1,4}[A-Z]?`
	// markExpr covers non-numeric grade marks printed for unfinished subjects.
	markExpr      = `INC|DRP|DRPD|DROPPED|NG|IP|WP|UW|NFE|W`
	gradeTokExpr  = `(?:\d(?:\.\d{1,2})?|` + markExpr + `)`
	qualifierExpr = `\((?:LEC|LAB|LECTURE|LABORATORY|Lec|Lab)\)`
)

var (
	codeOnly      = regexp.MustCompile(`^` + codeExpr + `$`)
	codeLead      = regexp.MustCompile(`^(` + codeExpr + `)(?:[\t ]|$)`)
	unitsOnly     = regexp.MustCompile(`^\d{1,2}(?:\.\d{1,2})?$`)
	gradeOnly     = regexp.MustCompile(`^\d(?:\.\d{1,2})?$`)
	markOnly      = regexp.MustCompile(`^(?:` + markExpr + `)$`)
	timeOnly      = regexp.MustCompile(`^` + timeExpr + `$`)
	daysOnly      = regexp.MustCompile(`^` + daysExpr + `$`)
	qualifierTail = regexp.MustCompile(`\s*(` + qualifierExpr + `)$`)
	scheduleDash  = regexp.MustCompile(`\s*-\s*`)
	// numericInName flags names that swallowed a units, grade or time column.
	numericInName = regexp.MustCompile(`\d\.\d|\d:\d{2}`)
)

// Fields are the raw column values a strategy recovered from one row.
// Empty strings mean the column was absent.
type Fields struct {
	Code     string
	Type     string
	Name     string
	Units    string
	Schedule string
	Days     string
	Grade    string
}

// Record converts raw fields into a GradeRecord, deriving the letter grade
// and remarks. A non-empty reason means a value was out of range and the
// row must be excluded.
func (f Fields) Record(semester string) (models.GradeRecord, string) {
	r := models.GradeRecord{
		SubjectCode: strings.TrimSpace(f.Code),
		SubjectType: collapseSpaces(f.Type),
		SubjectName: collapseSpaces(f.Name),
		Schedule:    scheduleDash.ReplaceAllString(collapseSpaces(f.Schedule), "-"),
		Days:        strings.TrimSpace(f.Days),
		Semester:    semester,
	}
	if r.Semester == "" {
		r.Semester = models.UnknownSemester
	}
	if r.SubjectCode == "" {
		return r, "missing subject code"
	}

	if u := strings.TrimSpace(f.Units); u != "" {
		units, err := models.ParseDecimal(u)
		if err != nil {
			return r, fmt.Sprintf("units %q is not a decimal", u)
		}
		r.Units = units
	}

	if g := strings.TrimSpace(f.Grade); g != "" && !markOnly.MatchString(g) {
		grade, err := models.ParseDecimal(g)
		if err != nil {
			return r, fmt.Sprintf("grade %q is not a decimal", g)
		}
		r.Grade = grade
	}
	if reason := grading.RangeError(r); reason != "" {
		return r, reason
	}

	grading.Apply(&r)
	return r, ""
}

// splitQualifier moves a trailing "(LEC)"/"(LAB)" qualifier off the end of a
// row so the column grammar can match; the qualifier is returned for the name.
func splitQualifier(text string) (string, string) {
	m := qualifierTail.FindStringSubmatchIndex(text)
	if m == nil {
		return text, ""
	}
	return strings.TrimSpace(text[:m[0]]), text[m[2]:m[3]]
}

func appendQualifier(name, qualifier string) string {
	if qualifier == "" || strings.HasSuffix(name, qualifier) {
		return name
	}
	return name + " " + qualifier
}
