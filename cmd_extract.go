package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/insightdelivered/transcript-grades/internal/extractor"
	"github.com/insightdelivered/transcript-grades/internal/grading"
	"github.com/insightdelivered/transcript-grades/internal/models"
	"github.com/insightdelivered/transcript-grades/internal/parser"
	"github.com/insightdelivered/transcript-grades/internal/writer"
)

var (
	extractFormat      string
	extractOutput      string
	extractSemester    string
	extractConcurrency int
	extractOmitDebug   bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <file> [file...]",
	Short: "Extract grade records from transcript text or PDF files",
	Long: `Extract grade records from one or more transcripts. Files ending in .pdf
go through the configured PDF extractor; anything else is read as text.

With one input, --output names the output file (default stdout). With several
inputs, --output names a directory that receives one file per input.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("extract"); err != nil {
			return err
		}
		engine, err := newEngine(cfg.Parser)
		if err != nil {
			return err
		}
		w, err := writer.New(extractFormat)
		if err != nil {
			return err
		}
		if jw, ok := w.(*writer.JSONWriter); ok {
			jw.OmitDebug = extractOmitDebug
		}

		var pdf extractor.Extractor
		if hasPDF(args) {
			chain, err := extractor.New(cfg.Extractor)
			if err != nil {
				return err
			}
			pdf = chain
		}

		concurrency := extractConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Batch.MaxConcurrentDocuments
		}

		docs := processDocuments(ctx, args, concurrency, loader(pdf), engine)
		return writeDocuments(cmd.OutOrStdout(), docs, w, extractOutput, extractFormat, extractSemester)
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractFormat, "format", writer.FormatJSON, "output format: json or csv")
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "output file (one input) or directory (several inputs)")
	extractCmd.Flags().StringVar(&extractSemester, "semester", "", "keep only records from this semester label")
	extractCmd.Flags().IntVar(&extractConcurrency, "concurrency", 0, "documents processed at once (default batch.max_concurrent_documents)")
	extractCmd.Flags().BoolVar(&extractOmitDebug, "no-debug", false, "omit the per-line debug trace from JSON output")
	rootCmd.AddCommand(extractCmd)
}

// document is the outcome of extracting one input file.
type document struct {
	Path   string
	Result *models.ExtractionResult
	Err    error
}

// loadFunc returns the transcript text of one input path.
type loadFunc func(ctx context.Context, path string) (string, error)

func hasPDF(paths []string) bool {
	for _, p := range paths {
		if isPDF(p) {
			return true
		}
	}
	return false
}

func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// loader reads text files directly and sends PDFs through pdf.
func loader(pdf extractor.Extractor) loadFunc {
	return func(ctx context.Context, path string) (string, error) {
		if isPDF(path) {
			if pdf == nil {
				return "", eris.Errorf("extract: no PDF extractor for %s", path)
			}
			return pdf.ExtractText(ctx, path)
		}
		f, err := os.Open(path)
		if err != nil {
			return "", eris.Wrapf(err, "extract: open %s", path)
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return "", eris.Wrapf(err, "extract: read %s", path)
		}
		return string(data), nil
	}
}

// processDocuments extracts every path with at most concurrency documents in
// flight. Each document gets its own Extract call; results keep input order.
func processDocuments(ctx context.Context, paths []string, concurrency int, load loadFunc, engine *parser.Engine) []document {
	if concurrency < 1 {
		concurrency = 1
	}
	docs := make([]document, len(paths))

	zap.L().Info("processing documents",
		zap.Int("documents", len(paths)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64
	for i, path := range paths {
		g.Go(func() error {
			log := zap.L().With(zap.String("file", path))
			docs[i].Path = path

			text, err := load(gctx, path)
			if err != nil {
				failed.Add(1)
				docs[i].Err = err
				log.Error("text extraction failed", zap.Error(err))
				return nil // one bad document does not stop the batch
			}

			res, err := engine.Extract(text)
			docs[i].Result = res
			if err != nil {
				failed.Add(1)
				docs[i].Err = err
				log.Warn("extraction failed", zap.Error(err))
				return nil
			}

			succeeded.Add(1)
			log.Info("extraction complete",
				zap.Bool("success", res.Success),
				zap.Int("records", len(res.Records)),
				zap.Int("unparsed", res.UnparsedLineCount),
				zap.Strings("semesters", res.SemestersSeen),
			)
			return nil
		})
	}
	_ = g.Wait()

	zap.L().Info("documents complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return docs
}

// filterSemester narrows a result to one semester without touching the
// diagnostics, which still describe the whole document.
func filterSemester(res *models.ExtractionResult, semester string) *models.ExtractionResult {
	if semester == "" || res == nil {
		return res
	}
	out := *res
	out.Records = grading.FilterBySemester(res.Records, semester)
	return &out
}

// writeDocuments renders every successful document in input order and
// reports the failures as one error.
func writeDocuments(stdout io.Writer, docs []document, w writer.Writer, output, format, semester string) error {
	multi := len(docs) > 1 && output != ""
	if multi {
		if err := os.MkdirAll(output, 0o755); err != nil {
			return eris.Wrapf(err, "extract: create output directory %s", output)
		}
	}

	var failures []string
	for _, d := range docs {
		if d.Err != nil || d.Result == nil {
			failures = append(failures, d.Path)
			continue
		}
		res := filterSemester(d.Result, semester)

		var err error
		switch {
		case multi:
			base := strings.TrimSuffix(filepath.Base(d.Path), filepath.Ext(d.Path))
			err = writer.WriteToFile(w, filepath.Join(output, base+"."+format), res)
		case output != "":
			err = writer.WriteToFile(w, output, res)
		default:
			err = w.Write(stdout, res)
		}
		if err != nil {
			return err
		}
	}

	if len(failures) > 0 {
		return eris.Errorf("extract: %d of %d documents failed: %s", len(failures), len(docs), strings.Join(failures, ", "))
	}
	return nil
}
