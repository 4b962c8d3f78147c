package parser

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// invisibleReplacer drops characters PDF text layers emit between glyphs and
// maps the remaining exotic spaces onto an ASCII space.
var invisibleReplacer = strings.NewReplacer(
	"\u200b", "", // zero-width space
	"\u200c", "",
	"\u200d", "",
	"\ufeff", "",
	"\u00ad", "", // soft hyphen
	"\u00a0", " ",
	"\u2007", " ",
	"\u202f", " ",
	"\u2013", "-", // en dash, common in school-year ranges
	"\u2014", "-",
)

// NormalizeLine prepares a raw line for classification. It folds
// compatibility characters (fullwidth digits, ligatures) with NFKC, removes
// invisible characters and trims surrounding whitespace. Interior tabs are
// kept because they carry column boundaries.
func NormalizeLine(s string) string {
	s = strings.TrimRight(s, "\r")
	if !isASCII(s) {
		s = norm.NFKC.String(s)
		s = invisibleReplacer.Replace(s)
	}
	return strings.TrimSpace(s)
}

// splitLines splits text on any newline convention. A single trailing
// newline does not produce an extra line.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

// collapseSpaces turns every run of whitespace, tabs included, into one space.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
