package extractor

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rotisserie/eris"
)

// PdfCPU reads page content streams through pdfcpu and decodes their
// text-showing operators directly.
type PdfCPU struct{}

// NewPdfCPU creates a PdfCPU extractor.
func NewPdfCPU() *PdfCPU {
	return &PdfCPU{}
}

// ExtractText implements Extractor.
func (p *PdfCPU) ExtractText(ctx context.Context, pdfPath string) (string, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return "", eris.Wrapf(err, "extractor: open %s", pdfPath)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	pctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return "", eris.Wrapf(err, "extractor: pdfcpu read %s", pdfPath)
	}

	var pages []string
	for pageNr := 1; pageNr <= pctx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return "", eris.Wrap(err, "extractor: cancelled")
		}
		r, err := pdfcpu.ExtractPageContent(pctx, pageNr)
		if err != nil || r == nil {
			continue
		}
		data, err := io.ReadAll(r)
		if err != nil || len(data) == 0 {
			continue
		}
		if text := contentText(data); text != "" {
			pages = append(pages, text)
		}
	}

	if len(pages) == 0 {
		return "", eris.Errorf("extractor: pdfcpu found no text in %s", pdfPath)
	}
	return strings.Join(pages, "\n"), nil
}
