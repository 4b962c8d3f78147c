package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/insightdelivered/transcript-grades/internal/api"
	"github.com/insightdelivered/transcript-grades/internal/grading"
	"github.com/insightdelivered/transcript-grades/internal/models"
)

var (
	gwaPerSemester bool
	gwaSemester    string
	gwaYearLevel   int
)

var gwaCmd = &cobra.Command{
	Use:   "gwa <records.json>",
	Short: "Compute the weighted average and honor tier of stored records",
	Long: `Compute the general weighted average of grade records. The input is either
the JSON output of "extract" or a bare JSON array of records; "-" reads stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := readRecordsFile(args[0], cmd.InOrStdin())
		if err != nil {
			return err
		}
		resp := computeGWA(newCalculator(cfg.Grading), res.Records, gwaSemester, gwaPerSemester, gwaYearLevel)

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(resp), "gwa: encode result")
	},
}

func init() {
	gwaCmd.Flags().BoolVar(&gwaPerSemester, "per-semester", false, "also report one average per semester")
	gwaCmd.Flags().StringVar(&gwaSemester, "semester", "", "only include records from this semester label")
	gwaCmd.Flags().IntVar(&gwaYearLevel, "year-level", 0, "student year level for honor classification")
	rootCmd.AddCommand(gwaCmd)
}

func computeGWA(calc *grading.Calculator, records []models.GradeRecord, semester string, perSemester bool, yearLevel int) api.GWAResponse {
	resp := api.ComputeGWA(calc, api.GWARequest{
		Records:     records,
		Semester:    semester,
		PerSemester: perSemester,
		YearLevel:   yearLevel,
	})
	for _, inv := range resp.Invalid {
		zap.L().Warn("gwa: record skipped",
			zap.String("subject", inv.SubjectCode),
			zap.String("reason", inv.Reason),
		)
	}
	return resp
}

// readRecordsFile loads an extraction result or a bare record array.
func readRecordsFile(path string, stdin io.Reader) (*models.ExtractionResult, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "read records %s", path)
	}
	return decodeRecords(data)
}

func decodeRecords(data []byte) (*models.ExtractionResult, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var records []models.GradeRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, eris.Wrap(err, "decode record array")
		}
		return &models.ExtractionResult{Success: len(records) > 0, Records: records, SemestersSeen: semestersOf(records)}, nil
	}

	var res models.ExtractionResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, eris.Wrap(err, "decode extraction result")
	}
	if res.Records == nil {
		res.Records = []models.GradeRecord{}
	}
	return &res, nil
}

// semestersOf lists record semesters in first-seen order.
func semestersOf(records []models.GradeRecord) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, r := range records {
		if r.Semester != "" && !seen[r.Semester] {
			seen[r.Semester] = true
			out = append(out, r.Semester)
		}
	}
	return out
}
