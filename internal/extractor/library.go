package extractor

import (
	"context"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rotisserie/eris"
)

// columnGap is the horizontal distance, in text space units, past which two
// fragments on one row are treated as separate columns.
const columnGap = 12.0

// Library extracts text with the ledongthuc/pdf reader. It tries row,
// positioned-content and plain-text decoding in that order.
type Library struct{}

// NewLibrary creates a Library extractor.
func NewLibrary() *Library {
	return &Library{}
}

// ExtractText implements Extractor.
func (l *Library) ExtractText(ctx context.Context, pdfPath string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("extractor: pdf library crashed on %s: %v", pdfPath, r)
		}
	}()

	f, r, err := pdf.Open(pdfPath)
	if err != nil {
		return "", eris.Wrapf(err, "extractor: open %s", pdfPath)
	}
	defer f.Close()

	numPages := r.NumPage()
	if numPages == 0 {
		return "", eris.Errorf("extractor: %s has no pages", pdfPath)
	}

	methods := []func(*pdf.Reader, int) []string{
		pagesByRow,
		pagesByContent,
		pagesByPlainText,
	}
	var pages []string
	for _, m := range methods {
		if err := ctx.Err(); err != nil {
			return "", eris.Wrap(err, "extractor: cancelled")
		}
		pages = m(r, numPages)
		if text := joinPages(pages); IsReadable(text) {
			return text, nil
		}
	}

	if plain := readerPlainText(r); IsReadable(plain) {
		return plain, nil
	}
	return joinPages(pages), nil
}

// joinPages concatenates page texts with a newline between pages.
func joinPages(pages []string) string {
	return strings.Join(pages, "\n")
}

// pagesByRow uses GetTextByRow and separates distant words with tabs so the
// tab-delimited parse path sees column boundaries.
func pagesByRow(r *pdf.Reader, numPages int) []string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		var lines []string
		for _, row := range rows {
			line := joinFragments(row.Content)
			if line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

// pagesByContent groups positioned glyph runs by baseline and sorts each
// row left to right.
func pagesByContent(r *pdf.Reader, numPages int) []string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content := page.Content()
		if len(content.Text) == 0 {
			continue
		}

		rows := make(map[int][]pdf.Text)
		for _, t := range content.Text {
			if strings.TrimSpace(t.S) == "" {
				continue
			}
			y := int(math.Round(t.Y))
			rows[y] = append(rows[y], t)
		}

		ys := make([]int, 0, len(rows))
		for y := range rows {
			ys = append(ys, y)
		}
		// PDF y grows upward.
		sort.Sort(sort.Reverse(sort.IntSlice(ys)))

		var lines []string
		for _, y := range ys {
			items := rows[y]
			sort.SliceStable(items, func(a, b int) bool { return items[a].X < items[b].X })
			if line := joinFragments(items); line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

// joinFragments joins positioned text runs, inserting a space for small gaps
// and a tab where the gap suggests a new column.
func joinFragments(items []pdf.Text) string {
	var b strings.Builder
	var prevEnd float64
	for i, t := range items {
		if i > 0 {
			gap := t.X - prevEnd
			switch {
			case gap > columnGap:
				b.WriteByte('\t')
			case gap > 1 && !strings.HasSuffix(b.String(), " ") && !strings.HasPrefix(t.S, " "):
				b.WriteByte(' ')
			}
		}
		b.WriteString(t.S)
		prevEnd = t.X + t.W
	}
	return strings.TrimSpace(b.String())
}

func pagesByPlainText(r *pdf.Reader, numPages int) []string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		fonts := make(map[string]*pdf.Font)
		for _, name := range page.Fonts() {
			f := page.Font(name)
			fonts[name] = &f
		}
		text, err := page.GetPlainText(fonts)
		if err != nil {
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			pages = append(pages, text)
		}
	}
	return pages
}

func readerPlainText(r *pdf.Reader) string {
	rd, err := r.GetPlainText()
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(rd)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
