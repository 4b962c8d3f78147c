// Package api serves the extraction pipeline over HTTP.
package api

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/insightdelivered/transcript-grades/internal/config"
	"github.com/insightdelivered/transcript-grades/internal/extractor"
	"github.com/insightdelivered/transcript-grades/internal/grading"
	"github.com/insightdelivered/transcript-grades/internal/models"
	"github.com/insightdelivered/transcript-grades/internal/parser"
	"github.com/insightdelivered/transcript-grades/internal/store"
)

// Version is reported by the health endpoint.
var Version = "dev"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// ExtractResponse is the output contract plus weighted averages.
type ExtractResponse struct {
	*models.ExtractionResult
	GWA           models.GwaResult     `json:"gwa"`
	GWABySemester []models.SemesterGwa `json:"gwa_by_semester"`
	SubmissionID  string               `json:"submission_id,omitempty"`
	RawText       string               `json:"raw_text,omitempty"`
}

// GWARequest is the body of POST /api/gwa.
type GWARequest struct {
	Records     []models.GradeRecord `json:"records"`
	Semester    string               `json:"semester"`
	PerSemester bool                 `json:"per_semester"`
	YearLevel   int                  `json:"year_level"`
}

// GWAResponse is the result of POST /api/gwa. Records with out-of-range
// units or grades are listed in Invalid and left out of every average.
type GWAResponse struct {
	Success      bool                    `json:"success"`
	Semester     string                  `json:"semester,omitempty"`
	Summary      grading.Summary         `json:"summary"`
	PerSemester  []models.SemesterGwa    `json:"per_semester,omitempty"`
	InvalidCount int                     `json:"invalid_count"`
	Invalid      []grading.InvalidRecord `json:"invalid,omitempty"`
}

// ComputeGWA answers a GWARequest. Letter grades and remarks sent by the
// caller are ignored and derived again from each grade.
func ComputeGWA(calc *grading.Calculator, req GWARequest) GWAResponse {
	records := req.Records
	if req.Semester != "" {
		records = grading.FilterBySemester(records, req.Semester)
	}
	records, invalid := grading.Sanitize(records)

	resp := GWAResponse{
		Success:      true,
		Semester:     req.Semester,
		Summary:      calc.Summarize(records, req.YearLevel),
		InvalidCount: len(invalid),
		Invalid:      invalid,
	}
	if req.PerSemester {
		resp.PerSemester = calc.CalculateBySemester(records)
	}
	return resp
}

// Handler holds the HTTP handlers for the API. Store is optional; without it
// extractions are not persisted and the records endpoint is not mounted.
type Handler struct {
	Extractor  extractor.Extractor
	Engine     *parser.Engine
	Calculator *grading.Calculator
	Store      store.Store
}

// NewApp builds a fiber app with the handler's routes mounted.
func NewApp(h *Handler, cfg config.ServerConfig) *fiber.App {
	bodyLimit := cfg.BodyLimitMB
	if bodyLimit <= 0 {
		bodyLimit = 32
	}
	app := fiber.New(fiber.Config{
		AppName:               "transcript-grades",
		BodyLimit:             bodyLimit << 20,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type",
	}))
	h.RegisterRoutes(app)
	return app
}

// RegisterRoutes sets up the HTTP routes.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Get("/api/health", h.HandleHealth)
	app.Post("/api/extract", h.HandleExtract)
	app.Post("/api/gwa", h.HandleGWA)
	if h.Store != nil {
		app.Get("/api/records", h.HandleRecords)
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		zap.L().Error("api: request failed", zap.String("path", c.Path()), zap.Error(err))
	}
	return c.Status(code).JSON(ErrorResponse{Success: false, Error: err.Error()})
}

// HandleHealth reports liveness.
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": Version,
	})
}

// HandleExtract accepts a multipart "file" (PDF or text) or a "text" field
// and returns extracted records with weighted averages. A transcript with
// no recognizable rows is still a 200 with success false. When user_id is
// supplied and a store is configured the result replaces that user's
// submission for the given period.
func (h *Handler) HandleExtract(c *fiber.Ctx) error {
	text, err := h.inputText(c)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "No input. Use form field 'file' or 'text'.")
	}

	res, err := h.Engine.Extract(text)
	if errors.Is(err, parser.ErrEmptyInput) {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err != nil {
		return eris.Wrap(err, "api: extract")
	}

	zap.L().Info("api: extracted",
		zap.Int("records", len(res.Records)),
		zap.Int("unparsed", res.UnparsedLineCount),
		zap.Bool("success", res.Success),
	)

	resp := ExtractResponse{
		ExtractionResult: res,
		GWA:              h.Calculator.Calculate(res.Records),
		GWABySemester:    h.Calculator.CalculateBySemester(res.Records),
	}
	if c.QueryBool("debug") {
		resp.RawText = text
	} else {
		diag := *res.Diagnostics
		diag.DebugLines = nil
		resp.Diagnostics = &diag
	}

	if userID := c.FormValue("user_id"); userID != "" && h.Store != nil {
		sub := store.NewSubmission(userID, c.FormValue("period"), c.FormValue("source"), res)
		saved, err := h.Store.ReplaceSubmission(c.UserContext(), sub, res.Records)
		if err != nil {
			return eris.Wrap(err, "api: store submission")
		}
		resp.SubmissionID = saved.ID
	}

	return c.JSON(resp)
}

// inputText resolves the request body to transcript text.
func (h *Handler) inputText(c *fiber.Ctx) (string, error) {
	if fh, err := c.FormFile("file"); err == nil {
		if strings.EqualFold(filepath.Ext(fh.Filename), ".pdf") {
			return h.pdfText(c, fh.Filename, func(dst string) error { return c.SaveFile(fh, dst) })
		}
		f, err := fh.Open()
		if err != nil {
			return "", fiber.NewError(fiber.StatusBadRequest, "Failed to read uploaded file.")
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return "", fiber.NewError(fiber.StatusBadRequest, "Failed to read uploaded file.")
		}
		return string(data), nil
	}

	if text := c.FormValue("text"); text != "" {
		return text, nil
	}
	if strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMETextPlain) {
		return string(c.Body()), nil
	}
	return "", nil
}

func (h *Handler) pdfText(c *fiber.Ctx, name string, save func(dst string) error) (string, error) {
	if h.Extractor == nil {
		return "", fiber.NewError(fiber.StatusUnprocessableEntity, "PDF extraction is not configured.")
	}

	tmp, err := os.CreateTemp("", "transcript-*.pdf")
	if err != nil {
		return "", eris.Wrap(err, "api: create temp file")
	}
	tmp.Close()
	defer os.Remove(tmp.Name())

	if err := save(tmp.Name()); err != nil {
		return "", eris.Wrap(err, "api: save upload")
	}

	text, err := h.Extractor.ExtractText(c.UserContext(), tmp.Name())
	if err != nil {
		zap.L().Warn("api: pdf extraction failed", zap.String("file", name), zap.Error(err))
		return "", fiber.NewError(fiber.StatusUnprocessableEntity, "PDF extraction failed: "+err.Error())
	}
	return text, nil
}

// HandleGWA computes the weighted average and honor tier of posted records.
func (h *Handler) HandleGWA(c *fiber.Ctx) error {
	var req GWARequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid JSON body: "+err.Error())
	}
	if req.YearLevel < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "year_level must not be negative")
	}

	resp := ComputeGWA(h.Calculator, req)
	if resp.InvalidCount > 0 {
		zap.L().Warn("api: gwa records out of range", zap.Int("invalid", resp.InvalidCount))
	}
	return c.JSON(resp)
}

// HandleRecords lists stored records for a user, optionally for one period.
func (h *Handler) HandleRecords(c *fiber.Ctx) error {
	userID := c.Query("user_id")
	if userID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "user_id is required")
	}
	records, err := h.Store.ListRecords(c.UserContext(), userID, c.Query("period"))
	if err != nil {
		return eris.Wrap(err, "api: list records")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"records": records,
		"gwa":     h.Calculator.Calculate(records),
	})
}
