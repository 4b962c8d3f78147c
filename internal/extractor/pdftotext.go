package extractor

import (
	"bytes"
	"context"
	"os/exec"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

// layoutGap matches the space padding pdftotext -layout uses between columns.
var layoutGap = regexp.MustCompile(` {3,}`)

// PdfToText extracts text by running the poppler pdftotext binary.
type PdfToText struct {
	binPath string
}

// NewPdfToText creates a PdfToText extractor. An empty binPath means
// "pdftotext" on PATH.
func NewPdfToText(binPath string) *PdfToText {
	if binPath == "" {
		binPath = "pdftotext"
	}
	return &PdfToText{binPath: binPath}
}

// ExtractText runs pdftotext -layout and converts wide column gaps to tabs.
func (p *PdfToText) ExtractText(ctx context.Context, pdfPath string) (string, error) {
	cmd := exec.CommandContext(ctx, p.binPath, "-layout", pdfPath, "-")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", eris.Wrapf(err, "extractor: pdftotext failed for %s: %s", pdfPath, stderr.String())
	}

	lines := strings.Split(stdout.String(), "\n")
	for i, line := range lines {
		line = strings.Trim(line, " \r\f")
		lines[i] = layoutGap.ReplaceAllString(line, "\t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}
