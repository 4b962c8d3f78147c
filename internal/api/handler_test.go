package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/transcript-grades/internal/config"
	"github.com/insightdelivered/transcript-grades/internal/grading"
	"github.com/insightdelivered/transcript-grades/internal/parser"
	"github.com/insightdelivered/transcript-grades/internal/store"
)

const transcriptText = "1st Semester SY 2023-2024\n" +
	"CS21\tCC 111\tINTRODUCTION TO COMPUTING\t3.00\t01:00PM-02:00PM\tMWTh\t1.4\n" +
	"NSTP1 CWTS 1 NATIONAL SERVICE TRAINING PROGRAM 1 3.00 TBA Sat 1.00\n"

type stubExtractor struct {
	text string
	err  error
}

func (s stubExtractor) ExtractText(_ context.Context, _ string) (string, error) {
	return s.text, s.err
}

func setupTestApp(t *testing.T, h *Handler) *fiber.App {
	t.Helper()
	if h.Engine == nil {
		h.Engine = parser.New(parser.Options{})
	}
	if h.Calculator == nil {
		h.Calculator = grading.NewCalculator(grading.DefaultPolicy())
	}
	return NewApp(h, config.ServerConfig{BodyLimitMB: 4})
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return resp.StatusCode, out
}

func formRequest(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func fileRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/extract", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHealthEndpoint(t *testing.T) {
	app := setupTestApp(t, &Handler{})

	status, body := do(t, app, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, Version, body["version"])
}

func TestExtract_TextField(t *testing.T) {
	app := setupTestApp(t, &Handler{})

	status, body := do(t, app, formRequest("/api/extract", url.Values{"text": {transcriptText}}))
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Len(t, body["records"], 2)
	assert.Equal(t, []any{"1st Semester SY 2023-2024"}, body["semesters_seen"])

	gwa := body["gwa"].(map[string]any)
	assert.Equal(t, 1.4, gwa["weighted_average"])
	assert.Equal(t, float64(1), gwa["excluded_policy_count"])

	diag := body["diagnostics"].(map[string]any)
	assert.NotContains(t, diag, "debug_lines")
	assert.NotContains(t, body, "raw_text")
}

func TestExtract_DebugIncludesTrace(t *testing.T) {
	app := setupTestApp(t, &Handler{})

	_, body := do(t, app, formRequest("/api/extract?debug=true", url.Values{"text": {transcriptText}}))
	diag := body["diagnostics"].(map[string]any)
	assert.Len(t, diag["debug_lines"], 3)
	assert.Equal(t, transcriptText, body["raw_text"])
}

func TestExtract_PlainTextBody(t *testing.T) {
	app := setupTestApp(t, &Handler{})

	req := httptest.NewRequest(http.MethodPost, "/api/extract", strings.NewReader(transcriptText))
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	status, body := do(t, app, req)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["records"], 2)
}

func TestExtract_TextFileUpload(t *testing.T) {
	app := setupTestApp(t, &Handler{})

	status, body := do(t, app, fileRequest(t, "tor.txt", transcriptText))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["records"], 2)
}

func TestExtract_PDFUpload(t *testing.T) {
	app := setupTestApp(t, &Handler{Extractor: stubExtractor{text: transcriptText}})

	status, body := do(t, app, fileRequest(t, "TOR.PDF", "%PDF-1.4 fake"))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["records"], 2)
}

func TestExtract_PDFExtractionFails(t *testing.T) {
	app := setupTestApp(t, &Handler{Extractor: stubExtractor{err: eris.New("scanned document")}})

	status, body := do(t, app, fileRequest(t, "tor.pdf", "%PDF-1.4 fake"))
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "scanned document")
}

func TestExtract_RequiresInput(t *testing.T) {
	app := setupTestApp(t, &Handler{})

	status, body := do(t, app, formRequest("/api/extract", url.Values{}))
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "No input")
}

func TestExtract_NoRowsRecognized(t *testing.T) {
	app := setupTestApp(t, &Handler{})

	status, body := do(t, app, formRequest("/api/extract", url.Values{"text": {"OFFICE OF THE REGISTRAR\nStudent No: 2021-00123"}}))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, false, body["success"])
	assert.Empty(t, body["records"])
	diag := body["diagnostics"].(map[string]any)
	assert.Equal(t, "no subject rows recognized", diag["failure"])
}

func TestGWA(t *testing.T) {
	app := setupTestApp(t, &Handler{})

	payload := `{
		"records": [
			{"subject_code": "CS21", "subject_name": "INTRO", "units": 3, "grade": 1.25, "semester": "1st Semester SY 2023-2024"},
			{"subject_code": "CS22", "subject_name": "PROG 1", "units": 2, "grade": 1.5, "semester": "1st Semester SY 2023-2024"},
			{"subject_code": "CS31", "subject_name": "DATA STRUCTURES", "units": 3, "grade": 1.75, "semester": "2nd Semester SY 2023-2024"}
		],
		"per_semester": true,
		"year_level": 4
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/gwa", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	status, body := do(t, app, req)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["success"])

	// (3*1.25 + 2*1.50 + 3*1.75) / 8 = 12.00 / 8 = 1.50
	summary := body["summary"].(map[string]any)
	gwa := summary["gwa"].(map[string]any)
	assert.Equal(t, 1.5, gwa["weighted_average"])
	assert.Equal(t, "CumLaude", summary["honor"])
	assert.Len(t, body["per_semester"], 2)
}

func TestGWA_SemesterFilter(t *testing.T) {
	app := setupTestApp(t, &Handler{})

	payload := `{"records": [
		{"subject_code": "CS21", "units": 3, "grade": 1.25, "semester": "1st Semester SY 2023-2024"},
		{"subject_code": "CS31", "units": 3, "grade": 2.00, "semester": "2nd Semester SY 2023-2024"}
	], "semester": "2nd semester sy 2023-2024", "year_level": 2}`
	req := httptest.NewRequest(http.MethodPost, "/api/gwa", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	_, body := do(t, app, req)
	summary := body["summary"].(map[string]any)
	gwa := summary["gwa"].(map[string]any)
	assert.Equal(t, 2.0, gwa["weighted_average"])
	assert.Equal(t, "None", summary["honor"])
	assert.NotContains(t, body, "per_semester")
}

func TestGWA_OutOfRangeRecordsExcluded(t *testing.T) {
	app := setupTestApp(t, &Handler{})

	payload := `{"records": [
		{"subject_code": "CS21", "units": 3, "grade": 1.5, "letter_grade": "F", "remarks": "FAILED"},
		{"subject_code": "CS22", "units": 3, "grade": 9.00},
		{"subject_code": "CS23", "units": -3, "grade": 1.00}
	], "year_level": 2}`
	req := httptest.NewRequest(http.MethodPost, "/api/gwa", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	status, body := do(t, app, req)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(2), body["invalid_count"])
	assert.Len(t, body["invalid"], 2)

	summary := body["summary"].(map[string]any)
	gwa := summary["gwa"].(map[string]any)
	assert.Equal(t, 1.5, gwa["weighted_average"])
	assert.Equal(t, float64(1), gwa["included_subject_count"])
	assert.Equal(t, "DeansList", summary["honor"])
}

func TestGWA_InvalidBody(t *testing.T) {
	app := setupTestApp(t, &Handler{})

	req := httptest.NewRequest(http.MethodPost, "/api/gwa", strings.NewReader(`{"records": [`))
	req.Header.Set("Content-Type", "application/json")
	status, body := do(t, app, req)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, false, body["success"])
}

func TestExtract_StoresSubmission(t *testing.T) {
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	app := setupTestApp(t, &Handler{Store: st})

	status, body := do(t, app, formRequest("/api/extract", url.Values{
		"text":    {transcriptText},
		"user_id": {"student-1"},
		"period":  {"2023-2024"},
	}))
	require.Equal(t, fiber.StatusOK, status)
	assert.NotEmpty(t, body["submission_id"])

	status, body = do(t, app, httptest.NewRequest(http.MethodGet, "/api/records?user_id=student-1&period=2023-2024", nil))
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["records"], 2)

	status, _ = do(t, app, httptest.NewRequest(http.MethodGet, "/api/records", nil))
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestRecordsRouteRequiresStore(t *testing.T) {
	app := setupTestApp(t, &Handler{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/records?user_id=x", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
