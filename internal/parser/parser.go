// Package parser turns the text of a transcript into grade records. Lines
// are classified, split rows are reassembled, and each row goes through a
// cascade of field strategies. The package does no I/O and keeps no state
// between calls.
package parser

import (
	"strings"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/insightdelivered/transcript-grades/internal/models"
)

// ErrEmptyInput is returned when the text holds no non-blank line.
var ErrEmptyInput = eris.New("parser: empty input")

// Status is the outcome of extracting one logical row.
type Status int

const (
	StatusParsed Status = iota
	StatusUnparsed
	StatusInvalid
)

func (s Status) String() string {
	switch s {
	case StatusParsed:
		return "parsed"
	case StatusInvalid:
		return "invalid"
	default:
		return "unparsed"
	}
}

// LineOutcome is what the cascade made of one logical row.
type LineOutcome struct {
	Record   models.GradeRecord
	Status   Status
	Strategy string
	Reason   string
}

// Options configures an Engine.
type Options struct {
	MaxContinuationLines int
	// Corrections is consulted after every strategy has failed. Nil means
	// the embedded default table.
	Corrections *CorrectionTable
	// Strategies replaces DefaultStrategies when set.
	Strategies []Strategy
}

// Engine runs the extraction pipeline. An Engine is read-only after New and
// may be used from many goroutines at once.
type Engine struct {
	reassembler Reassembler
	strategies  []Strategy
	corrections *CorrectionTable
}

// New builds an Engine from opts.
func New(opts Options) *Engine {
	e := &Engine{
		reassembler: Reassembler{MaxContinuationLines: opts.MaxContinuationLines},
		strategies:  opts.Strategies,
		corrections: opts.Corrections,
	}
	if e.strategies == nil {
		e.strategies = DefaultStrategies()
	}
	if e.corrections == nil {
		e.corrections = DefaultCorrections()
	}
	e.strategies = append(e.strategies[:len(e.strategies):len(e.strategies)], Correction{Table: e.corrections})
	return e
}

// StrategyNames lists the cascade in the order it is tried.
func (e *Engine) StrategyNames() []string {
	names := make([]string, len(e.strategies))
	for i, s := range e.strategies {
		names[i] = s.Name()
	}
	return names
}

var defaultEngine = sync.OnceValue(func() *Engine { return New(Options{}) })

// Extract runs an Engine with default options over text.
func Extract(text string) (*models.ExtractionResult, error) {
	return defaultEngine().Extract(text)
}

// Extract converts transcript text into grade records. A result is always
// returned; the error is ErrEmptyInput when text has no content. Rows that
// cannot be parsed or carry out-of-range values are counted in the
// diagnostics and left out of the records.
func (e *Engine) Extract(text string) (*models.ExtractionResult, error) {
	diag := models.NewDiagnostics()
	diag.CorrectionsVersion = e.corrections.Version
	res := &models.ExtractionResult{
		Records:       []models.GradeRecord{},
		SemestersSeen: []string{},
		Diagnostics:   diag,
	}

	lines := ClassifyLines(text)
	diag.TotalLines = len(splitLines(text))
	diag.BlankLines = diag.TotalLines - len(lines)
	if len(lines) == 0 {
		diag.Failure = "empty input"
		return res, ErrEmptyInput
	}

	debug := make(map[int]*models.DebugLine, len(lines))
	diag.DebugLines = make([]models.DebugLine, len(lines))
	for i, l := range lines {
		diag.KindCounts[l.Kind]++
		diag.DebugLines[i] = models.DebugLine{
			LineNum: l.Index + 1,
			Text:    l.Text,
			Kind:    l.Kind,
			Result:  debugResult(l.Kind),
		}
		debug[l.Index] = &diag.DebugLines[i]
	}
	diag.Delimiter = DetectDelimiter(lines)
	res.SemestersSeen = semestersSeen(lines)

	logical, discarded := e.reassembler.Reassemble(lines)
	diag.LogicalLines = len(logical)
	diag.DiscardedLines = len(discarded)
	for _, idx := range discarded {
		debug[idx].Result = "discarded"
	}

	for _, ll := range logical {
		if !ll.Complete {
			diag.IncompleteLines++
		}

		out := e.ExtractLine(ll)
		for i, idx := range ll.Lines {
			d := debug[idx]
			d.Method = out.Strategy
			if i == 0 {
				d.Result = out.Status.String()
			}
		}

		switch out.Status {
		case StatusParsed:
			diag.StrategyCounts[out.Strategy]++
			if out.Strategy == StrategyCorrection {
				diag.CorrectionsApplied = append(diag.CorrectionsApplied, out.Record.SubjectCode)
			}
			res.Records = append(res.Records, out.Record)
		case StatusInvalid:
			diag.StrategyCounts[out.Strategy]++
			diag.InvalidRange = append(diag.InvalidRange, rejected(ll, out.Reason))
		default:
			diag.Unparsed = append(diag.Unparsed, rejected(ll, out.Reason))
		}
	}

	res.UnparsedLineCount = len(diag.Unparsed)
	res.Success = len(res.Records) > 0
	if !res.Success {
		diag.Failure = "no subject rows recognized"
	}
	return res, nil
}

// ExtractLine runs the strategy cascade over one logical row.
func (e *Engine) ExtractLine(line models.LogicalRecordLine) LineOutcome {
	for _, s := range e.strategies {
		f, ok := s.Match(line)
		if !ok {
			continue
		}
		rec, reason := f.Record(line.Semester)
		if reason != "" {
			return LineOutcome{Record: rec, Status: StatusInvalid, Strategy: s.Name(), Reason: reason}
		}
		return LineOutcome{Record: rec, Status: StatusParsed, Strategy: s.Name()}
	}
	return LineOutcome{Status: StatusUnparsed, Reason: "no strategy matched"}
}

// DetectDelimiter reports whether subject rows in a document use tabs,
// spaces, or both.
func DetectDelimiter(lines []models.ClassifiedLine) models.DelimiterStyle {
	tabs, spaces := 0, 0
	for _, l := range lines {
		if l.Kind != models.KindSubjectStart {
			continue
		}
		if strings.Contains(l.Text, "\t") {
			tabs++
		} else {
			spaces++
		}
	}
	switch {
	case tabs == 0 && spaces == 0:
		return models.DelimiterNone
	case spaces == 0:
		return models.DelimiterTab
	case tabs == 0:
		return models.DelimiterSpace
	default:
		return models.DelimiterMixed
	}
}

// semestersSeen lists semester labels in document order. "unknown" is
// included when subject rows appear before the first header.
func semestersSeen(lines []models.ClassifiedLine) []string {
	seen := make(map[string]bool)
	out := []string{}
	current := models.UnknownSemester
	for _, l := range lines {
		label := ""
		switch l.Kind {
		case models.KindSemesterHeader:
			current = l.Semester
			label = current
		case models.KindSubjectStart:
			label = current
		}
		if label != "" && !seen[label] {
			seen[label] = true
			out = append(out, label)
		}
	}
	return out
}

func debugResult(kind models.LineKind) string {
	switch kind {
	case models.KindSemesterHeader:
		return "semester"
	case models.KindNoise:
		return "noise"
	default:
		return "continuation"
	}
}

func rejected(ll models.LogicalRecordLine, reason string) models.RejectedLine {
	return models.RejectedLine{
		Lines:    oneBased(ll.Lines),
		Text:     ll.Text,
		Semester: ll.Semester,
		Reason:   reason,
	}
}

func oneBased(idx []int) []int {
	out := make([]int, len(idx))
	for i, v := range idx {
		out[i] = v + 1
	}
	return out
}
