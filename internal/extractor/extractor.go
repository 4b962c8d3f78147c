// Package extractor recovers the text layer of transcript PDFs. Several
// providers are tried in turn because no single PDF library decodes every
// export path cleanly.
package extractor

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/insightdelivered/transcript-grades/internal/config"
)

// Provider names accepted by New.
const (
	ProviderLibrary   = "library"
	ProviderPdfCPU    = "pdfcpu"
	ProviderPdfToText = "pdftotext"
)

// ErrUnreadable is returned when no provider produced readable text.
var ErrUnreadable = eris.New("extractor: no readable text")

// Extractor extracts text content from PDF files.
type Extractor interface {
	ExtractText(ctx context.Context, pdfPath string) (string, error)
}

// Named pairs an Extractor with the provider name used in logs.
type Named struct {
	Name      string
	Extractor Extractor
}

// Chain tries providers in order and returns the first readable text.
type Chain struct {
	providers []Named
}

// NewChain builds a Chain from providers.
func NewChain(providers ...Named) *Chain {
	return &Chain{providers: providers}
}

// New creates a Chain with the configured provider first and the remaining
// providers as fallbacks.
func New(cfg config.ExtractorConfig) (*Chain, error) {
	all := map[string]Extractor{
		ProviderLibrary:   NewLibrary(),
		ProviderPdfCPU:    NewPdfCPU(),
		ProviderPdfToText: NewPdfToText(cfg.PdfToTextPath),
	}

	primary := cfg.Provider
	if primary == "" {
		primary = ProviderLibrary
	}
	if _, ok := all[primary]; !ok {
		return nil, eris.Errorf("extractor: unknown provider %q", cfg.Provider)
	}

	providers := []Named{{Name: primary, Extractor: all[primary]}}
	for _, name := range []string{ProviderLibrary, ProviderPdfCPU, ProviderPdfToText} {
		if name != primary {
			providers = append(providers, Named{Name: name, Extractor: all[name]})
		}
	}
	return NewChain(providers...), nil
}

// Providers lists provider names in the order they are tried.
func (c *Chain) Providers() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name
	}
	return names
}

// ExtractText runs each provider until one returns readable text. Text that
// fails the readability check is never returned.
func (c *Chain) ExtractText(ctx context.Context, pdfPath string) (string, error) {
	log := zap.L().With(zap.String("file", pdfPath))

	var lastErr error
	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			return "", eris.Wrap(err, "extractor: cancelled")
		}

		text, err := p.Extractor.ExtractText(ctx, pdfPath)
		if err != nil {
			log.Debug("extractor: provider failed", zap.String("provider", p.Name), zap.Error(err))
			lastErr = err
			continue
		}
		if !IsReadable(text) {
			log.Debug("extractor: provider returned unreadable text",
				zap.String("provider", p.Name),
				zap.Float64("quality", TextQuality(text)),
				zap.Int("chars", len(text)),
			)
			continue
		}

		log.Info("extractor: text extracted", zap.String("provider", p.Name), zap.Int("chars", len(text)))
		return text, nil
	}

	if lastErr != nil {
		return "", eris.Wrapf(ErrUnreadable, "%s: last error: %v", pdfPath, lastErr)
	}
	return "", eris.Wrapf(ErrUnreadable, "%s: the file may be scanned or use custom font encodings", pdfPath)
}
