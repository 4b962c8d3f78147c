package extractor

import (
	"encoding/hex"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"
)

// Text-space thresholds used when turning positioning operators into
// separators.
const (
	// tdColumnShift is the minimum horizontal move that starts a new column.
	tdColumnShift = 20.0
	// tjWordKern is the TJ adjustment, in thousandths of an em, that reads
	// as a word break.
	tjWordKern = 200.0
)

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokString
	tokArray
	tokOperator
	tokOther
)

type token struct {
	kind  tokenKind
	text  string
	num   float64
	items []token
}

// contentText decodes the text-showing operators of one page content stream
// into lines. Horizontal moves on the same baseline become tabs so column
// layouts survive.
func contentText(stream []byte) string {
	s := &contentScanner{src: stream}
	w := &lineWriter{}

	var operands []token
	var lastY float64
	haveY := false

	for {
		tok, ok := s.next()
		if !ok {
			break
		}
		if tok.kind != tokOperator {
			operands = append(operands, tok)
			continue
		}

		switch tok.text {
		case "BT":
			haveY = false
		case "ET":
			w.newline()
		case "Td", "TD":
			if len(operands) >= 2 {
				tx, ty := operands[len(operands)-2].num, operands[len(operands)-1].num
				switch {
				case ty != 0:
					w.newline()
				case tx >= tdColumnShift:
					w.tab()
				}
			}
		case "Tm":
			if len(operands) >= 6 {
				y := operands[len(operands)-1].num
				if haveY && y == lastY {
					w.tab()
				} else {
					w.newline()
				}
				lastY, haveY = y, true
			}
		case "T*":
			w.newline()
		case "Tj":
			if n := len(operands); n > 0 && operands[n-1].kind == tokString {
				w.write(operands[n-1].text)
			}
		case "'":
			w.newline()
			if n := len(operands); n > 0 && operands[n-1].kind == tokString {
				w.write(operands[n-1].text)
			}
		case "\"":
			w.newline()
			if n := len(operands); n > 0 && operands[n-1].kind == tokString {
				w.write(operands[n-1].text)
			}
		case "TJ":
			if n := len(operands); n > 0 && operands[n-1].kind == tokArray {
				for _, it := range operands[n-1].items {
					switch it.kind {
					case tokString:
						w.write(it.text)
					case tokNumber:
						if -it.num >= tjWordKern {
							w.space()
						}
					}
				}
			}
		case "ID":
			s.skipInlineImage()
		}
		operands = operands[:0]
	}
	return w.String()
}

// lineWriter accumulates text, collapsing repeated separators.
type lineWriter struct {
	lines []string
	cur   strings.Builder
}

func (w *lineWriter) write(s string) {
	w.cur.WriteString(s)
}

func (w *lineWriter) space() {
	if w.cur.Len() > 0 && !strings.HasSuffix(w.cur.String(), " ") && !strings.HasSuffix(w.cur.String(), "\t") {
		w.cur.WriteByte(' ')
	}
}

func (w *lineWriter) tab() {
	str := strings.TrimRight(w.cur.String(), " ")
	if str == "" || strings.HasSuffix(str, "\t") {
		return
	}
	w.cur.Reset()
	w.cur.WriteString(str)
	w.cur.WriteByte('\t')
}

func (w *lineWriter) newline() {
	line := strings.TrimSpace(w.cur.String())
	if line != "" {
		w.lines = append(w.lines, line)
	}
	w.cur.Reset()
}

func (w *lineWriter) String() string {
	w.newline()
	return strings.Join(w.lines, "\n")
}

// contentScanner tokenizes a PDF content stream.
type contentScanner struct {
	src []byte
	pos int
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isWhite(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', 0:
		return true
	}
	return false
}

func (s *contentScanner) skipSpaceAndComments() {
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		if isWhite(c) {
			s.pos++
			continue
		}
		if c == '%' {
			for s.pos < len(s.src) && s.src[s.pos] != '\n' && s.src[s.pos] != '\r' {
				s.pos++
			}
			continue
		}
		return
	}
}

func (s *contentScanner) next() (token, bool) {
	s.skipSpaceAndComments()
	if s.pos >= len(s.src) {
		return token{}, false
	}

	c := s.src[s.pos]
	switch {
	case c == '(':
		return token{kind: tokString, text: s.literal()}, true
	case c == '<' && s.pos+1 < len(s.src) && s.src[s.pos+1] == '<':
		s.pos += 2
		return token{kind: tokOther, text: "<<"}, true
	case c == '>' && s.pos+1 < len(s.src) && s.src[s.pos+1] == '>':
		s.pos += 2
		return token{kind: tokOther, text: ">>"}, true
	case c == '<':
		return token{kind: tokString, text: s.hexString()}, true
	case c == '[':
		s.pos++
		var items []token
		for {
			s.skipSpaceAndComments()
			if s.pos >= len(s.src) {
				break
			}
			if s.src[s.pos] == ']' {
				s.pos++
				break
			}
			it, ok := s.next()
			if !ok {
				break
			}
			items = append(items, it)
		}
		return token{kind: tokArray, items: items}, true
	case c == '/':
		s.pos++
		start := s.pos
		for s.pos < len(s.src) && !isWhite(s.src[s.pos]) && !isDelimiter(s.src[s.pos]) {
			s.pos++
		}
		return token{kind: tokOther, text: "/" + string(s.src[start:s.pos])}, true
	case isDelimiter(c):
		s.pos++
		return token{kind: tokOther, text: string(c)}, true
	}

	start := s.pos
	for s.pos < len(s.src) && !isWhite(s.src[s.pos]) && !isDelimiter(s.src[s.pos]) {
		s.pos++
	}
	word := string(s.src[start:s.pos])
	if n, err := strconv.ParseFloat(word, 64); err == nil {
		return token{kind: tokNumber, text: word, num: n}, true
	}
	return token{kind: tokOperator, text: word}, true
}

// literal reads a parenthesized string, honoring nesting and escapes.
func (s *contentScanner) literal() string {
	s.pos++ // (
	depth := 1
	var raw []byte
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch c {
		case '\\':
			if s.pos+1 < len(s.src) {
				raw = append(raw, c, s.src[s.pos+1])
				s.pos += 2
				continue
			}
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				s.pos++
				return decodeBytes(unescapeLiteral(raw))
			}
		}
		raw = append(raw, c)
		s.pos++
	}
	return decodeBytes(unescapeLiteral(raw))
}

func (s *contentScanner) hexString() string {
	s.pos++ // <
	start := s.pos
	for s.pos < len(s.src) && s.src[s.pos] != '>' {
		s.pos++
	}
	digits := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, string(s.src[start:s.pos]))
	if s.pos < len(s.src) {
		s.pos++ // >
	}
	if len(digits)%2 == 1 {
		digits += "0"
	}
	raw, err := hex.DecodeString(digits)
	if err != nil {
		return ""
	}
	return decodeBytes(raw)
}

// skipInlineImage advances past inline image data up to the EI operator.
func (s *contentScanner) skipInlineImage() {
	for s.pos+2 < len(s.src) {
		if isWhite(s.src[s.pos]) && s.src[s.pos+1] == 'E' && s.src[s.pos+2] == 'I' &&
			(s.pos+3 == len(s.src) || isWhite(s.src[s.pos+3])) {
			s.pos += 3
			return
		}
		s.pos++
	}
	s.pos = len(s.src)
}

// unescapeLiteral resolves backslash escapes in a literal string body.
func unescapeLiteral(s []byte) []byte {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			out = append(out, s[i])
			continue
		}
		i++
		switch c := s[i]; c {
		case 'n':
			out = append(out, '\n')
		case 'r':
			out = append(out, '\r')
		case 't':
			out = append(out, '\t')
		case 'b':
			out = append(out, '\b')
		case 'f':
			out = append(out, '\f')
		case '\r', '\n':
			// line continuation
			if c == '\r' && i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
		default:
			if c >= '0' && c <= '7' {
				val := int(c - '0')
				for j := 0; j < 2 && i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '7'; j++ {
					i++
					val = val*8 + int(s[i]-'0')
				}
				out = append(out, byte(val))
			} else {
				out = append(out, c)
			}
		}
	}
	return out
}

// decodeBytes interprets string bytes as UTF-16BE when they carry a byte
// order mark or look like two-byte codes, and as Latin-1 otherwise.
// Non-printable runes are dropped.
func decodeBytes(raw []byte) string {
	if len(raw) >= 2 && raw[0] == 0xFE && raw[1] == 0xFF {
		return utf16String(raw[2:])
	}
	if len(raw) >= 2 && len(raw)%2 == 0 && looksUTF16(raw) {
		return utf16String(raw)
	}
	var b strings.Builder
	for _, c := range raw {
		r := rune(c)
		if unicode.IsPrint(r) || r == '\t' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// looksUTF16 reports whether every high byte is zero, the usual shape of
// two-byte codes for Latin text.
func looksUTF16(raw []byte) bool {
	for i := 0; i < len(raw); i += 2 {
		if raw[i] != 0 {
			return false
		}
	}
	return true
}

func utf16String(raw []byte) string {
	units := make([]uint16, 0, len(raw)/2)
	for i := 0; i+1 < len(raw); i += 2 {
		units = append(units, uint16(raw[i])<<8|uint16(raw[i+1]))
	}
	var b strings.Builder
	for _, r := range utf16.Decode(units) {
		if unicode.IsPrint(r) || r == '\t' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
