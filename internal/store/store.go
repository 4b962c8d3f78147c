// Package store persists extraction results. A submission for a user and
// period is always replaced wholesale, never merged with an earlier one.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/insightdelivered/transcript-grades/internal/config"
	"github.com/insightdelivered/transcript-grades/internal/models"
)

// Drivers accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrNotFound is returned when a submission does not exist.
var ErrNotFound = eris.New("store: not found")

// Submission is one stored extraction for a user and academic period.
type Submission struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	Period            string    `json:"period"`
	Source            string    `json:"source,omitempty"`
	Success           bool      `json:"success"`
	RecordCount       int       `json:"record_count"`
	UnparsedLineCount int       `json:"unparsed_line_count"`
	SemestersSeen     []string  `json:"semesters_seen"`
	CreatedAt         time.Time `json:"created_at"`
}

// NewSubmission builds a Submission from an extraction result.
func NewSubmission(userID, period, source string, res *models.ExtractionResult) Submission {
	return Submission{
		UserID:            userID,
		Period:            period,
		Source:            source,
		Success:           res.Success,
		RecordCount:       len(res.Records),
		UnparsedLineCount: res.UnparsedLineCount,
		SemestersSeen:     res.SemestersSeen,
	}
}

// Store defines the persistence interface for extraction results.
type Store interface {
	// ReplaceSubmission deletes every submission and record stored for the
	// user and period, then inserts sub and records in one transaction.
	ReplaceSubmission(ctx context.Context, sub Submission, records []models.GradeRecord) (*Submission, error)
	ListRecords(ctx context.Context, userID, period string) ([]models.GradeRecord, error)
	GetSubmission(ctx context.Context, id string) (*Submission, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open connects to the configured database.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	zap.L().Debug("store: opening", zap.String("driver", cfg.Driver))
	switch cfg.Driver {
	case "", DriverSQLite:
		return NewSQLite(cfg.DatabaseURL)
	case DriverPostgres:
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

// prepare fills in the ID, timestamp and record count before insertion.
func prepare(sub Submission, records []models.GradeRecord) (Submission, error) {
	if sub.UserID == "" {
		return sub, eris.New("store: submission user id is required")
	}
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	if sub.SemestersSeen == nil {
		sub.SemestersSeen = []string{}
	}
	sub.RecordCount = len(records)
	return sub, nil
}

func encodeSemesters(s []string) ([]byte, error) {
	if s == nil {
		s = []string{}
	}
	b, err := json.Marshal(s)
	return b, eris.Wrap(err, "store: marshal semesters")
}

func decodeSemesters(b []byte) ([]string, error) {
	out := []string{}
	if len(b) == 0 {
		return out, nil
	}
	err := json.Unmarshal(b, &out)
	return out, eris.Wrap(err, "store: unmarshal semesters")
}

// recordColumns is the insertion order for grade_records.
var recordColumns = []string{
	"id", "submission_id", "user_id", "period", "position",
	"subject_code", "subject_type", "subject_name", "units", "schedule",
	"days", "grade", "letter_grade", "remarks", "semester",
}

func recordRow(sub Submission, pos int, r models.GradeRecord) []any {
	return []any{
		uuid.New().String(), sub.ID, sub.UserID, sub.Period, pos,
		r.SubjectCode, r.SubjectType, r.SubjectName, int64(r.Units), r.Schedule,
		r.Days, int64(r.Grade), r.LetterGrade, string(r.Remarks), r.Semester,
	}
}

// scanner is satisfied by *sql.Row, *sql.Rows, pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (models.GradeRecord, error) {
	var (
		r            models.GradeRecord
		units, grade int64
		remarks      string
	)
	err := row.Scan(
		&r.SubjectCode, &r.SubjectType, &r.SubjectName, &units, &r.Schedule,
		&r.Days, &grade, &r.LetterGrade, &remarks, &r.Semester,
	)
	if err != nil {
		return r, err
	}
	r.Units = models.Decimal(units)
	r.Grade = models.Decimal(grade)
	r.Remarks = models.Remarks(remarks)
	return r, nil
}
