package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/transcript-grades/internal/models"
)

const sampleCorrections = `version: 3
corrections:
  - code: CS101
    match: "FUNDAMENTAL"
    type: "CC 101"
    name: "COMPUTER FUNDAMENTALS"
    units: "3.00"
  - code: CS101
    name: "COMPUTER FUNDAMENTALS (LAB)"
    units: "1.00"
    grade: "1.50"
`

func TestDefaultCorrections(t *testing.T) {
	table := DefaultCorrections()
	assert.Equal(t, 1, table.Version)
	assert.Equal(t, 0, table.Len())
}

func TestLoadCorrections(t *testing.T) {
	table, err := LoadCorrections(strings.NewReader(sampleCorrections))
	require.NoError(t, err)
	assert.Equal(t, 3, table.Version)
	assert.Equal(t, 2, table.Len())

	entry, ok := table.Lookup("cs101", "CS101 CCMPUTER FUNDAMENTAL5")
	require.True(t, ok)
	assert.Equal(t, "CC 101", entry.Type)

	entry, ok = table.Lookup("CS101", "CS101 GARBLED")
	require.True(t, ok)
	assert.Equal(t, "1.50", entry.Grade)

	_, ok = table.Lookup("CS102", "CS102 FUNDAMENTAL")
	assert.False(t, ok)
}

func TestLoadCorrections_SchemaErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing version", "corrections: []\n"},
		{"bad code", "version: 1\ncorrections:\n  - code: \"101\"\n    name: X\n"},
		{"numeric units", "version: 1\ncorrections:\n  - code: CS1\n    name: X\n    units: 3.00\n"},
		{"unknown field", "version: 1\ncorrections:\n  - code: CS1\n    name: X\n    room: A1\n"},
		{"missing name", "version: 1\ncorrections:\n  - code: CS1\n"},
		{"empty document", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCorrections(strings.NewReader(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadCorrectionsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrections.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleCorrections), 0o644))

	table, err := LoadCorrectionsFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	_, err = LoadCorrectionsFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEngine_AppliesCorrections(t *testing.T) {
	table, err := LoadCorrections(strings.NewReader(sampleCorrections))
	require.NoError(t, err)
	e := New(Options{Corrections: table})

	res, err := e.Extract("1st Semester SY 2023-2024\nCS101 CCMPUTER FUNDAMENTAL5 3.0O MWF 1.25")
	require.NoError(t, err)
	require.Len(t, res.Records, 1)

	r := res.Records[0]
	assert.Equal(t, "CS101", r.SubjectCode)
	assert.Equal(t, "CC 101", r.SubjectType)
	assert.Equal(t, "COMPUTER FUNDAMENTALS", r.SubjectName)
	assert.Equal(t, models.MustDecimal("3.00"), r.Units)
	assert.Equal(t, models.MustDecimal("1.25"), r.Grade)
	assert.Equal(t, "A", r.LetterGrade)
	assert.Equal(t, "1st Semester SY 2023-2024", r.Semester)

	d := res.Diagnostics
	assert.Equal(t, 3, d.CorrectionsVersion)
	assert.Equal(t, []string{"CS101"}, d.CorrectionsApplied)
	assert.Equal(t, 1, d.StrategyCounts[StrategyCorrection])
}

func TestEngine_CorrectionsOnlyAfterCascade(t *testing.T) {
	table, err := LoadCorrections(strings.NewReader(sampleCorrections))
	require.NoError(t, err)
	e := New(Options{Corrections: table})

	res, err := e.Extract("CS101 CC 101 COMPUTER FUNDAMENTALS 3.00 TBA TBA 2.00")
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, models.MustDecimal("2.00"), res.Records[0].Grade)
	assert.Empty(t, res.Diagnostics.CorrectionsApplied)
}
