package models

import "github.com/rotisserie/eris"

// Remarks is the pass/fail/ongoing status derived from a numeric grade.
type Remarks string

const (
	RemarksPassed  Remarks = "PASSED"
	RemarksFailed  Remarks = "FAILED"
	RemarksOngoing Remarks = "ONGOING"
)

// LetterNA is the letter grade of a subject with no grade yet.
const LetterNA = "N/A"

// UnknownSemester labels records seen before any semester header.
const UnknownSemester = "unknown"

// GradeRecord is one subject row recovered from a transcript.
type GradeRecord struct {
	SubjectCode string  `json:"subject_code"`
	SubjectType string  `json:"subject_type"`
	SubjectName string  `json:"subject_name"`
	Units       Decimal `json:"units"`
	Schedule    string  `json:"schedule"`
	Days        string  `json:"days"`
	Grade       Decimal `json:"grade"` // 0.00 means no grade yet
	LetterGrade string  `json:"letter_grade"`
	Remarks     Remarks `json:"remarks"`
	Semester    string  `json:"semester"`
}

// IsOngoing reports whether the subject has no grade recorded yet.
func (r GradeRecord) IsOngoing() bool {
	return r.Grade == 0
}

// LineKind tags a physical line of extracted text.
type LineKind int

const (
	KindNoise LineKind = iota
	KindSemesterHeader
	KindSubjectStart
	KindContinuation
)

func (k LineKind) String() string {
	switch k {
	case KindSemesterHeader:
		return "semester_header"
	case KindSubjectStart:
		return "subject_start"
	case KindContinuation:
		return "continuation"
	default:
		return "noise"
	}
}

// MarshalText lets LineKind be used as a JSON object key.
func (k LineKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses the names written by MarshalText.
func (k *LineKind) UnmarshalText(b []byte) error {
	for _, kind := range []LineKind{KindNoise, KindSemesterHeader, KindSubjectStart, KindContinuation} {
		if kind.String() == string(b) {
			*k = kind
			return nil
		}
	}
	return eris.Errorf("models: unknown line kind %q", b)
}

// ClassifiedLine is a raw line tagged with its kind. Semester is set only for
// KindSemesterHeader and holds the canonical semester label.
type ClassifiedLine struct {
	Index    int      `json:"index"`
	Kind     LineKind `json:"kind"`
	Text     string   `json:"text"`
	Semester string   `json:"semester,omitempty"`
}

// LogicalRecordLine is one or more physical lines merged into a single
// subject row, tagged with the semester active where it started.
type LogicalRecordLine struct {
	Text     string `json:"text"`
	Semester string `json:"semester"`
	Lines    []int  `json:"lines"`
	UsesTabs bool   `json:"uses_tabs"`
	// Complete is true when the accumulator closed on a grade-shaped tail.
	Complete bool `json:"complete"`
}

// StartLine returns the 0-based index of the first physical line.
func (l LogicalRecordLine) StartLine() int {
	if len(l.Lines) == 0 {
		return -1
	}
	return l.Lines[0]
}
