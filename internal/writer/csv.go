// Package writer renders extraction results for the command line.
package writer

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/insightdelivered/transcript-grades/internal/models"
)

// Formats accepted by New.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Writer renders an ExtractionResult.
type Writer interface {
	Write(out io.Writer, res *models.ExtractionResult) error
}

// New returns the writer for format.
func New(format string) (Writer, error) {
	switch strings.ToLower(format) {
	case "", FormatJSON:
		return &JSONWriter{Indent: true}, nil
	case FormatCSV:
		return &CSVWriter{IncludeHeader: true}, nil
	default:
		return nil, eris.Errorf("writer: unknown format %q", format)
	}
}

// WriteToFile renders res to a file at path using w.
func WriteToFile(w Writer, path string, res *models.ExtractionResult) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "writer: create output file %q", path)
	}
	if err := w.Write(f, res); err != nil {
		f.Close()
		return err
	}
	return eris.Wrapf(f.Close(), "writer: close %q", path)
}

// CSVHeader is the column header row of CSV output.
var CSVHeader = []string{
	"Semester", "Subject Code", "Subject Type", "Subject Name", "Units",
	"Schedule", "Days", "Grade", "Letter Grade", "Remarks",
}

// CSVWriter writes grade records to CSV format.
type CSVWriter struct {
	IncludeHeader bool
}

// Write writes records in CSV format to the given writer. With IncludeHeader
// set, metadata rows prefixed with "#" precede the column header.
func (w *CSVWriter) Write(out io.Writer, res *models.ExtractionResult) error {
	cw := csv.NewWriter(out)

	if w.IncludeHeader {
		meta := [][]string{
			{"# Success", strconv.FormatBool(res.Success)},
			{"# Records", strconv.Itoa(len(res.Records))},
			{"# Unparsed Lines", strconv.Itoa(res.UnparsedLineCount)},
		}
		if len(res.SemestersSeen) > 0 {
			meta = append(meta, []string{"# Semesters", strings.Join(res.SemestersSeen, "; ")})
		}
		if res.Diagnostics != nil && res.Diagnostics.Failure != "" {
			meta = append(meta, []string{"# Failure", res.Diagnostics.Failure})
		}
		if err := cw.WriteAll(meta); err != nil {
			return eris.Wrap(err, "writer: write CSV metadata")
		}
	}

	if err := cw.Write(CSVHeader); err != nil {
		return eris.Wrap(err, "writer: write CSV header")
	}

	for _, r := range res.Records {
		row := []string{
			r.Semester,
			r.SubjectCode,
			r.SubjectType,
			r.SubjectName,
			r.Units.String(),
			r.Schedule,
			r.Days,
			formatGrade(r),
			r.LetterGrade,
			string(r.Remarks),
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "writer: write CSV row")
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "writer: flush CSV")
}

// formatGrade leaves the grade cell empty for subjects still in progress.
func formatGrade(r models.GradeRecord) string {
	if r.IsOngoing() {
		return ""
	}
	return r.Grade.String()
}
