package parser

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed corrections.yaml
var defaultCorrections []byte

//go:embed corrections.schema.json
var correctionsSchema []byte

// CorrectionEntry replaces the columns of a row the extractor is known to
// corrupt. Match, when set, must appear in the raw row (case-insensitive).
type CorrectionEntry struct {
	Code  string `yaml:"code"`
	Match string `yaml:"match,omitempty"`
	Type  string `yaml:"type,omitempty"`
	Name  string `yaml:"name"`
	Units string `yaml:"units,omitempty"`
	Grade string `yaml:"grade,omitempty"`
}

// CorrectionTable is a versioned, read-only set of corrections.
type CorrectionTable struct {
	Version     int               `yaml:"version"`
	Corrections []CorrectionEntry `yaml:"corrections"`

	byCode map[string][]CorrectionEntry
}

// DefaultCorrections returns the embedded table.
func DefaultCorrections() *CorrectionTable {
	t, err := LoadCorrections(bytes.NewReader(defaultCorrections))
	if err != nil {
		panic(err)
	}
	return t
}

// LoadCorrectionsFile reads and validates a correction table from disk.
func LoadCorrectionsFile(path string) (*CorrectionTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "parser: open corrections %s", path)
	}
	defer f.Close() //nolint:errcheck

	t, err := LoadCorrections(f)
	if err != nil {
		return nil, eris.Wrapf(err, "parser: load corrections %s", path)
	}
	return t, nil
}

// LoadCorrections decodes a YAML correction table and validates it against
// the embedded JSON schema.
func LoadCorrections(r io.Reader) (*CorrectionTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "parser: read corrections")
	}
	if err := validateCorrections(data); err != nil {
		return nil, err
	}

	var t CorrectionTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, eris.Wrap(err, "parser: decode corrections")
	}
	t.index()
	return &t, nil
}

func validateCorrections(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return eris.Wrap(err, "parser: decode corrections")
	}
	// Round-trip through JSON so the validator sees JSON types.
	b, err := json.Marshal(doc)
	if err != nil {
		return eris.Wrap(err, "parser: convert corrections")
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return eris.Wrap(err, "parser: convert corrections")
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("corrections.schema.json", bytes.NewReader(correctionsSchema)); err != nil {
		return eris.Wrap(err, "parser: add corrections schema")
	}
	schema, err := compiler.Compile("corrections.schema.json")
	if err != nil {
		return eris.Wrap(err, "parser: compile corrections schema")
	}
	if err := schema.Validate(v); err != nil {
		return eris.Wrap(err, "parser: corrections do not match schema")
	}
	return nil
}

func (t *CorrectionTable) index() {
	t.byCode = make(map[string][]CorrectionEntry, len(t.Corrections))
	for _, c := range t.Corrections {
		key := strings.ToUpper(c.Code)
		t.byCode[key] = append(t.byCode[key], c)
	}
}

// Len returns the number of entries.
func (t *CorrectionTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Corrections)
}

// Lookup returns the first entry for code whose match guard appears in raw.
func (t *CorrectionTable) Lookup(code, raw string) (CorrectionEntry, bool) {
	if t == nil {
		return CorrectionEntry{}, false
	}
	lower := strings.ToLower(raw)
	for _, c := range t.byCode[strings.ToUpper(code)] {
		if c.Match == "" || strings.Contains(lower, strings.ToLower(c.Match)) {
			return c, true
		}
	}
	return CorrectionEntry{}, false
}
