package parser

import (
	"regexp"
	"strings"

	"github.com/insightdelivered/transcript-grades/internal/models"
)

// DefaultMaxContinuationLines bounds how many continuation lines may be
// merged into one subject row. Extractors split a row into at most four
// physical lines in practice.
const DefaultMaxContinuationLines = 4

// Token shapes shared by the reassembler and the field strategies.
const (
	unitsExpr = `\d{1,2}\.\d{1,2}`
	gradeExpr = `\d\.\d{1,2}`
	timeExpr  = `(?:\d{1,2}:\d{2}\s?(?:[AaPp]\.?[Mm]\.?)?\s?-\s?\d{1,2}:\d{2}\s?(?:[AaPp]\.?[Mm]\.?)?|TBA)`
	daysExpr  = `(?:(?:Mon|MON|Tues|Tue|TUE|Wed|WED|Thurs|Thur|Thu|THU|Fri|FRI|Sat|SAT|Sun|SUN|Th|TH|Sa|SA|Su|SU|M|T|W|R|F|S)+|TBA)`
)

// shortTailExpr is a grade that can close a row without the full column run:
// a decimal or a mark other than W. A bare integer or W there reads as a
// type number or a Wednesday days column.
const shortTailExpr = `(?:` + gradeExpr + `|INC|DRP|DRPD|DROPPED|NG|IP|WP|UW|NFE)`

// completeTail matches a row whose accumulated text already ends in a grade:
// "units time days grade", "time grade", "days grade" or "units grade".
// The full form takes any grade token, integers and marks included.
var completeTail = regexp.MustCompile(
	`\b(?:` + unitsExpr + ` ` + timeExpr + ` ` + daysExpr + ` ` + gradeTokExpr +
		`|` + timeExpr + ` ` + shortTailExpr +
		`|` + daysExpr + ` ` + shortTailExpr +
		`|` + unitsExpr + ` ` + shortTailExpr + `)$`,
)

// hasCompleteTail reports whether text ends in a recognizable grade tail.
func hasCompleteTail(text string) bool {
	return completeTail.MatchString(collapseSpaces(text))
}

// Reassembler merges continuation lines into the subject row they belong to.
type Reassembler struct {
	MaxContinuationLines int
}

type accumulator struct {
	parts     []string
	lines     []int
	semester  string
	usesTabs  bool
	continued int
}

func (a *accumulator) text() string {
	sep := " "
	if a.usesTabs {
		sep = "\t"
	}
	return strings.Join(a.parts, sep)
}

func (a *accumulator) record(complete bool) models.LogicalRecordLine {
	return models.LogicalRecordLine{
		Text:     a.text(),
		Semester: a.semester,
		Lines:    a.lines,
		UsesTabs: a.usesTabs,
		Complete: complete,
	}
}

// Reassemble groups classified lines into logical subject rows. It returns
// the rows and the indexes of continuation lines that had no open row.
// A row never crosses a semester header.
func (r Reassembler) Reassemble(lines []models.ClassifiedLine) ([]models.LogicalRecordLine, []int) {
	limit := r.MaxContinuationLines
	if limit <= 0 {
		limit = DefaultMaxContinuationLines
	}

	var (
		out       []models.LogicalRecordLine
		discarded []int
		acc       *accumulator
		semester  = models.UnknownSemester
	)

	flush := func(complete bool) {
		if acc != nil {
			out = append(out, acc.record(complete))
			acc = nil
		}
	}

	for _, l := range lines {
		switch l.Kind {
		case models.KindSemesterHeader:
			flush(false)
			semester = l.Semester

		case models.KindNoise:
			flush(false)

		case models.KindSubjectStart:
			flush(false)
			acc = &accumulator{
				parts:    []string{l.Text},
				lines:    []int{l.Index},
				semester: semester,
				usesTabs: strings.Contains(l.Text, "\t"),
			}
			if hasCompleteTail(l.Text) {
				flush(true)
			}

		case models.KindContinuation:
			if acc == nil {
				discarded = append(discarded, l.Index)
				continue
			}
			acc.parts = append(acc.parts, l.Text)
			acc.lines = append(acc.lines, l.Index)
			acc.continued++
			if hasCompleteTail(acc.text()) {
				flush(true)
			} else if acc.continued >= limit {
				flush(false)
			}
		}
	}
	flush(false)

	return out, discarded
}
