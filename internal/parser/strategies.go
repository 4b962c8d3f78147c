package parser

import (
	"regexp"
	"strings"

	"github.com/insightdelivered/transcript-grades/internal/models"
)

// Strategy recovers raw fields from one logical row. Strategies are tried in
// order and the first match wins.
type Strategy interface {
	// Name identifies the strategy in diagnostics.
	Name() string
	// Match returns the fields of line, or false when the row does not fit.
	Match(line models.LogicalRecordLine) (Fields, bool)
}

// Strategy names reported in diagnostics.
const (
	StrategyTabStrict       = "tab_strict"
	StrategySpaceStructured = "space_structured"
	StrategySpacePartial    = "space_partial"
	StrategyDegenerate      = "degenerate"
	StrategyCorrection      = "correction"
)

// DefaultStrategies returns the standard cascade: tab-delimited rows first,
// then flattened rows with the full column grammar, then flattened rows with
// a units tail only, then code-and-name rows with nothing numeric.
func DefaultStrategies() []Strategy {
	return []Strategy{
		TabStrict{},
		SpaceStructured{},
		SpacePartial{},
		Degenerate{},
	}
}

// TabStrict handles rows whose columns survived as tab stops:
// code, type, name, then units, schedule, days and grade by position.
type TabStrict struct{}

func (TabStrict) Name() string { return StrategyTabStrict }

func (TabStrict) Match(line models.LogicalRecordLine) (Fields, bool) {
	if !strings.Contains(line.Text, "\t") {
		return Fields{}, false
	}

	cols := strings.Split(line.Text, "\t")
	for i := range cols {
		cols[i] = collapseSpaces(cols[i])
	}
	for len(cols) > 0 && cols[len(cols)-1] == "" {
		cols = cols[:len(cols)-1]
	}
	if len(cols) < 3 || len(cols) > 7 {
		return Fields{}, false
	}
	if !codeOnly.MatchString(cols[0]) || cols[2] == "" || unitsOnly.MatchString(cols[2]) {
		return Fields{}, false
	}

	f := Fields{Code: cols[0], Type: cols[1], Name: cols[2]}
	if len(cols) == 3 {
		return f, true
	}

	f.Units = cols[3]
	if f.Units != "" && !unitsOnly.MatchString(f.Units) {
		return Fields{}, false
	}

	rest := cols[4:]
	if len(rest) == 3 {
		f.Grade = rest[2]
		rest = rest[:2]
	} else if n := len(rest); n > 0 && isGradeToken(rest[n-1]) && !isDaysAfterTime(rest) {
		f.Grade = rest[n-1]
		rest = rest[:n-1]
	}
	if f.Grade != "" && !isGradeToken(f.Grade) {
		return Fields{}, false
	}

	if len(rest) > 0 {
		f.Schedule = rest[0]
		if f.Schedule != "" && !timeOnly.MatchString(f.Schedule) {
			return Fields{}, false
		}
	}
	if len(rest) > 1 {
		f.Days = rest[1]
		if f.Days != "" && !daysOnly.MatchString(f.Days) {
			return Fields{}, false
		}
	}
	return f, true
}

// isDaysAfterTime reports whether the last of rest is a days column such as
// "W" sitting right after a schedule, rather than a grade mark.
func isDaysAfterTime(rest []string) bool {
	n := len(rest)
	return n >= 2 && timeOnly.MatchString(rest[n-2]) && daysOnly.MatchString(rest[n-1])
}

func isGradeToken(s string) bool {
	return gradeOnly.MatchString(s) || markOnly.MatchString(s)
}

// spaceStructured is CODE TYPE? NAME UNITS TIME DAYS GRADE? over a row whose
// whitespace has been collapsed.
var spaceStructured = regexp.MustCompile(
	`^(` + codeExpr + `) (?:(` + typeExpr + `) )?(.+?) (` + unitsExpr + `) (` + timeExpr + `) (` + daysExpr + `)(?: (` + gradeTokExpr + `))?$`,
)

// spacePartial is CODE TYPE? NAME UNITS with optional TIME, DAYS and GRADE.
var spacePartial = regexp.MustCompile(
	`^(` + codeExpr + `) (?:(` + typeExpr + `) )?(.+?) (` + unitsExpr + `)(?: (` + timeExpr + `))?(?: (` + daysExpr + `))?(?: (` + gradeTokExpr + `))?$`,
)

// SpaceStructured handles rows flattened to single spaces that still carry
// every column.
type SpaceStructured struct{}

func (SpaceStructured) Name() string { return StrategySpaceStructured }

func (SpaceStructured) Match(line models.LogicalRecordLine) (Fields, bool) {
	return matchSpaced(spaceStructured, line.Text)
}

// SpacePartial handles flattened rows that lost their schedule or days.
type SpacePartial struct{}

func (SpacePartial) Name() string { return StrategySpacePartial }

func (SpacePartial) Match(line models.LogicalRecordLine) (Fields, bool) {
	return matchSpaced(spacePartial, line.Text)
}

func matchSpaced(re *regexp.Regexp, text string) (Fields, bool) {
	text, qualifier := splitQualifier(collapseSpaces(text))
	m := re.FindStringSubmatch(text)
	if m == nil || numericInName.MatchString(m[3]) {
		return Fields{}, false
	}
	return Fields{
		Code:     m[1],
		Type:     m[2],
		Name:     appendQualifier(strings.TrimSpace(m[3]), qualifier),
		Units:    m[4],
		Schedule: m[5],
		Days:     m[6],
		Grade:    m[7],
	}, true
}

var degenerate = regexp.MustCompile(`^(` + codeExpr + `)(?: (` + typeExpr + `))? (.+)$`)

// Degenerate accepts a code and a name with no numeric tail as an ongoing
// subject with zero units.
type Degenerate struct{}

func (Degenerate) Name() string { return StrategyDegenerate }

func (Degenerate) Match(line models.LogicalRecordLine) (Fields, bool) {
	text, qualifier := splitQualifier(collapseSpaces(line.Text))
	m := degenerate.FindStringSubmatch(text)
	if m == nil {
		return Fields{}, false
	}
	name := strings.TrimSpace(m[3])
	if numericInName.MatchString(name) {
		return Fields{}, false
	}
	return Fields{
		Code: m[1],
		Type: m[2],
		Name: appendQualifier(name, qualifier),
	}, true
}

// Correction consults the correction table for rows nothing else could
// parse. The table supplies the columns; a grade still present at the end of
// the row is kept.
type Correction struct {
	Table *CorrectionTable
}

func (Correction) Name() string { return StrategyCorrection }

func (c Correction) Match(line models.LogicalRecordLine) (Fields, bool) {
	if c.Table == nil {
		return Fields{}, false
	}
	m := codeLead.FindStringSubmatch(line.Text)
	if m == nil {
		return Fields{}, false
	}
	entry, ok := c.Table.Lookup(m[1], line.Text)
	if !ok {
		return Fields{}, false
	}

	f := Fields{
		Code:  entry.Code,
		Type:  entry.Type,
		Name:  entry.Name,
		Units: entry.Units,
		Grade: entry.Grade,
	}
	if f.Grade == "" && hasCompleteTail(line.Text) {
		tail := strings.Fields(line.Text)
		f.Grade = tail[len(tail)-1]
	}
	return f, true
}
