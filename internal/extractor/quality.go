package extractor

import (
	"strings"
	"unicode"
)

// TextQuality returns the share of characters that are plain ASCII letters,
// digits, whitespace or common punctuation. Identity-encoded fonts decode
// to accented garbage, so unicode.IsLetter is too generous here.
func TextQuality(text string) float64 {
	total, readable := 0, 0
	for _, r := range text {
		total++
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || unicode.IsSpace(r) ||
			strings.ContainsRune(".,-/:;()'\"%&@#!?+=*", r) {
			readable++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}

// transcriptWords appear on virtually every transcript page.
var transcriptWords = []string{
	"semester", "units", "grade", "subject", "code", "description",
	"transcript", "school year", "registrar", "student", "course",
	"credit", "remarks", "sy ",
}

func containsTranscriptWords(text string) bool {
	lower := strings.ToLower(text)
	for _, w := range transcriptWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// IsReadable reports whether text is long enough, mostly printable, and
// contains at least one word expected on a transcript.
func IsReadable(text string) bool {
	if len(strings.TrimSpace(text)) <= 50 {
		return false
	}
	if TextQuality(text) <= 0.6 {
		return false
	}
	return containsTranscriptWords(text)
}
