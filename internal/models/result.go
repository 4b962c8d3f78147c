package models

// DelimiterStyle describes how fields were separated in a document.
type DelimiterStyle string

const (
	DelimiterNone  DelimiterStyle = "none"
	DelimiterTab   DelimiterStyle = "tab"
	DelimiterSpace DelimiterStyle = "space"
	DelimiterMixed DelimiterStyle = "mixed"
)

// DebugLine captures what the pipeline did with each input line.
type DebugLine struct {
	LineNum int      `json:"line_num"` // 1-based
	Text    string   `json:"text"`
	Kind    LineKind `json:"kind"`
	Result  string   `json:"result"` // "parsed", "continuation", "semester", "noise", "discarded", "unparsed", "invalid"
	Method  string   `json:"method,omitempty"`
}

// RejectedLine is a logical line that produced no record.
type RejectedLine struct {
	Lines    []int  `json:"lines"`
	Text     string `json:"text"`
	Semester string `json:"semester"`
	Reason   string `json:"reason"`
}

// Diagnostics is accumulated per extraction call and returned with the result.
type Diagnostics struct {
	TotalLines         int              `json:"total_lines"`
	BlankLines         int              `json:"blank_lines"`
	KindCounts         map[LineKind]int `json:"kind_counts"`
	DiscardedLines     int              `json:"discarded_lines"`
	LogicalLines       int              `json:"logical_lines"`
	IncompleteLines    int              `json:"incomplete_lines"`
	StrategyCounts     map[string]int   `json:"strategy_counts"`
	Unparsed           []RejectedLine   `json:"unparsed,omitempty"`
	InvalidRange       []RejectedLine   `json:"invalid_range,omitempty"`
	CorrectionsApplied []string         `json:"corrections_applied,omitempty"`
	CorrectionsVersion int              `json:"corrections_version"`
	Delimiter          DelimiterStyle   `json:"delimiter"`
	Failure            string           `json:"failure,omitempty"`
	DebugLines         []DebugLine      `json:"debug_lines,omitempty"`
}

// NewDiagnostics returns an empty Diagnostics with initialized maps.
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{
		KindCounts:     make(map[LineKind]int),
		StrategyCounts: make(map[string]int),
		Delimiter:      DelimiterNone,
	}
}

// ExtractionResult is the output contract handed to the storage layer.
type ExtractionResult struct {
	Success           bool          `json:"success"`
	Records           []GradeRecord `json:"records"`
	UnparsedLineCount int           `json:"unparsed_line_count"`
	SemestersSeen     []string      `json:"semesters_seen"`
	Diagnostics       *Diagnostics  `json:"diagnostics"`
}
