package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/insightdelivered/transcript-grades/internal/api"
	"github.com/insightdelivered/transcript-grades/internal/config"
	"github.com/insightdelivered/transcript-grades/internal/grading"
	"github.com/insightdelivered/transcript-grades/internal/models"
	"github.com/insightdelivered/transcript-grades/internal/parser"
)

const version = "1.0.0"

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:     "transcript-grades",
	Short:   "Extract subject grades from academic transcripts",
	Long:    "Reads transcript text or PDFs, recovers per-subject grade records, and computes weighted averages and honor eligibility.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func main() {
	api.Version = version
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newEngine builds the parser engine from the parser config.
func newEngine(c config.ParserConfig) (*parser.Engine, error) {
	opts := parser.Options{MaxContinuationLines: c.MaxContinuationLines}
	if c.CorrectionsPath != "" {
		table, err := parser.LoadCorrectionsFile(c.CorrectionsPath)
		if err != nil {
			return nil, err
		}
		zap.L().Info("loaded correction table",
			zap.String("path", c.CorrectionsPath),
			zap.Int("version", table.Version),
			zap.Int("entries", table.Len()),
		)
		opts.Corrections = table
	}
	return parser.New(opts), nil
}

// newCalculator builds the weighted-average calculator from the grading config.
func newCalculator(c config.GradingConfig) *grading.Calculator {
	return grading.NewCalculator(grading.Policy{
		ExcludedMarkers: c.ExcludedMarkers,
		GradeCeiling:    models.DecimalFromFloat(c.GradeCeiling),
	})
}
