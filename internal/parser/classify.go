package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/insightdelivered/transcript-grades/internal/models"
)

var (
	// 1st Semester SY 2023-2024, FIRST SEMESTER, A.Y. 2023 - 2024, 2nd Sem 2022-2023
	semesterPattern = regexp.MustCompile(
		`(?i)\b(1st|2nd|3rd|first|second|third)\s+sem(?:ester\b|\.|\b)(?:\s*[,:-]?\s*(?:(?:s\.?y\.?|a\.?y\.?|school\s+year|academic\s+year)\s*[:.-]?\s*)?(\d{4})\s*[-/]\s*(\d{2,4}))?`,
	)
	// Summer 2024, Summer Term SY 2023-2024, MIDYEAR 2024
	summerPattern = regexp.MustCompile(
		`(?i)^(summer|mid-?year)(?:\s+(?:term|semester|session|class))?\s*[,:-]?\s*(?:(?:s\.?y\.?|a\.?y\.?|school\s+year|academic\s+year)\s*[:.-]?\s*)?(\d{4})(?:\s*[-/]\s*(\d{2,4}))?\b`,
	)

	// Subject codes: letters followed by digits with an optional suffix
	// letter, e.g. CS21, IT101A, NSTP1.
	subjectStartPattern = regexp.MustCompile(`^[A-Za-z]{2,8}\d{1,5}[A-Za-z]?(?:[\t ]|$)`)

	totalUnitsPattern = regexp.MustCompile(`(?i)^(?:grand\s+)?total(?:\s+(?:no\.?|number)\s+of)?\s+(?:units|credits?|credit\s+units)\b`)
	numericOnly       = regexp.MustCompile(`^[\d\s./,:-]+$`)
	decimalToken      = regexp.MustCompile(`^\d{1,2}\.\d{1,2}$`)
	bareTimeOfDay     = regexp.MustCompile(`(?i)^\d{1,2}:\d{2}(?:\s*[ap]\.?m\.?)?$`)
	headerWordSplit   = regexp.MustCompile(`[\s/|:&.,()]+`)
	pageFooter        = regexp.MustCompile(`(?i)^page\s*\d+$|\bpage\s*\d+\s*(?:of|/)\s*\d+\b`)
)

// columnHeaderTokens are the words that make up a transcript table header.
var columnHeaderTokens = map[string]bool{
	"CODE": true, "SUBJECT": true, "SUBJECTS": true, "SUBJ": true,
	"DESCRIPTION": true, "DESCRIPTIVE": true, "TITLE": true, "DESC": true,
	"UNIT": true, "UNITS": true, "CREDIT": true, "CREDITS": true,
	"TIME": true, "DAY": true, "DAYS": true, "ROOM": true, "SCHEDULE": true,
	"GRADE": true, "GRADES": true, "FINAL": true, "REMARKS": true,
	"TYPE": true, "SECTION": true, "NO": true, "COURSE": true,
}

// boilerplatePhrases are institution and registrar lines that never carry
// subject data.
var boilerplatePhrases = []string{
	"office of the registrar",
	"university registrar",
	"transcript of records",
	"official transcript",
	"certificate of grades",
	"student no",
	"student number",
	"student name",
	"name of student",
	"date printed",
	"date issued",
	"printed by",
	"nothing follows",
	"general weighted average",
	"not valid without",
	"grading system",
	"republic of the philippines",
	"prepared by",
	"verified by",
	"certified correct",
}

// ClassifyLine tags a single normalized line. The result depends only on the
// line's own text.
func ClassifyLine(line string) models.LineKind {
	kind, _ := classify(line)
	return kind
}

// SemesterLabel returns the canonical semester label of a header line, or
// "" when the line is not a semester header.
func SemesterLabel(line string) string {
	if m := semesterPattern.FindStringSubmatch(line); m != nil {
		label := ordinal(m[1]) + " Semester"
		if m[2] != "" {
			label += " SY " + schoolYear(m[2], m[3])
		}
		return label
	}
	if m := summerPattern.FindStringSubmatch(line); m != nil {
		label := "Summer"
		if strings.HasPrefix(strings.ToLower(m[1]), "mid") {
			label = "Midyear"
		}
		if m[3] != "" {
			return label + " SY " + schoolYear(m[2], m[3])
		}
		return label + " " + m[2]
	}
	return ""
}

func classify(line string) (models.LineKind, string) {
	if line == "" {
		return models.KindNoise, ""
	}
	if isSubjectStart(line) {
		return models.KindSubjectStart, ""
	}
	if label := SemesterLabel(line); label != "" {
		return models.KindSemesterHeader, label
	}
	if isNoise(line) {
		return models.KindNoise, ""
	}
	return models.KindContinuation, ""
}

// ClassifyLines normalizes and classifies every non-blank line of text.
// Index is the 0-based position of the line in the original text.
func ClassifyLines(text string) []models.ClassifiedLine {
	raw := splitLines(text)
	out := make([]models.ClassifiedLine, 0, len(raw))
	for i, r := range raw {
		line := NormalizeLine(r)
		if line == "" {
			continue
		}
		kind, sem := classify(line)
		out = append(out, models.ClassifiedLine{Index: i, Kind: kind, Text: line, Semester: sem})
	}
	return out
}

func isSubjectStart(line string) bool {
	if !subjectStartPattern.MatchString(line) {
		return false
	}
	// "Page1 of 3" style footers share the code shape.
	return !isBoilerplate(line)
}

func isNoise(line string) bool {
	if isColumnHeader(line) || isBoilerplate(line) {
		return true
	}
	if totalUnitsPattern.MatchString(line) {
		return true
	}
	if bareTimeOfDay.MatchString(line) {
		return true
	}
	return isNumericNoise(line)
}

// isColumnHeader reports whether the line is made of header words only, or
// carries three or more header words and no decimal value.
func isColumnHeader(line string) bool {
	words := headerWordSplit.Split(strings.ToUpper(line), -1)
	total, hits := 0, 0
	for _, w := range words {
		if w == "" {
			continue
		}
		total++
		if columnHeaderTokens[w] {
			hits++
		}
	}
	if hits == 0 {
		return false
	}
	if hits == total {
		return true
	}
	return hits >= 3 && !strings.ContainsAny(line, ".")
}

func isBoilerplate(line string) bool {
	if pageFooter.MatchString(line) {
		return true
	}
	lower := strings.ToLower(line)
	for _, p := range boilerplatePhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// isNumericNoise matches page numbers, dates and ID numbers. Lines holding
// only decimal values are left alone: they are the split tail of a row.
func isNumericNoise(line string) bool {
	if !numericOnly.MatchString(line) {
		return false
	}
	for _, tok := range strings.Fields(line) {
		if !decimalToken.MatchString(tok) {
			return true
		}
	}
	return false
}

func ordinal(s string) string {
	switch strings.ToLower(s) {
	case "1st", "first":
		return "1st"
	case "2nd", "second":
		return "2nd"
	default:
		return "3rd"
	}
}

// schoolYear renders "2023-2024", expanding a two-digit end year.
func schoolYear(start, end string) string {
	if len(end) == 2 {
		end = start[:2] + end
	}
	return fmt.Sprintf("%s-%s", start, end)
}
