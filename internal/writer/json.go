package writer

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"

	"github.com/insightdelivered/transcript-grades/internal/models"
)

// JSONWriter writes the output contract as JSON.
type JSONWriter struct {
	Indent bool
	// OmitDebug drops the per-line debug trace from diagnostics.
	OmitDebug bool
}

// Write encodes res as a single JSON document.
func (w *JSONWriter) Write(out io.Writer, res *models.ExtractionResult) error {
	if w.OmitDebug && res.Diagnostics != nil {
		trimmed := *res
		diag := *res.Diagnostics
		diag.DebugLines = nil
		trimmed.Diagnostics = &diag
		res = &trimmed
	}

	enc := json.NewEncoder(out)
	if w.Indent {
		enc.SetIndent("", "  ")
	}
	return eris.Wrap(enc.Encode(res), "writer: encode JSON")
}
