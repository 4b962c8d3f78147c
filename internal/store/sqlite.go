package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/insightdelivered/transcript-grades/internal/models"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA foreign_keys=ON",
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS submissions (
	id                  TEXT PRIMARY KEY,
	user_id             TEXT NOT NULL,
	period              TEXT NOT NULL,
	source              TEXT NOT NULL DEFAULT '',
	success             INTEGER NOT NULL,
	record_count        INTEGER NOT NULL,
	unparsed_line_count INTEGER NOT NULL,
	semesters_seen      TEXT NOT NULL,
	created_at          DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS grade_records (
	id            TEXT PRIMARY KEY,
	submission_id TEXT NOT NULL REFERENCES submissions(id) ON DELETE CASCADE,
	user_id       TEXT NOT NULL,
	period        TEXT NOT NULL,
	position      INTEGER NOT NULL,
	subject_code  TEXT NOT NULL,
	subject_type  TEXT NOT NULL,
	subject_name  TEXT NOT NULL,
	units         INTEGER NOT NULL,
	schedule      TEXT NOT NULL,
	days          TEXT NOT NULL,
	grade         INTEGER NOT NULL,
	letter_grade  TEXT NOT NULL,
	remarks       TEXT NOT NULL,
	semester      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_submissions_user_period ON submissions(user_id, period);
CREATE INDEX IF NOT EXISTS idx_grade_records_user_period ON grade_records(user_id, period);
CREATE INDEX IF NOT EXISTS idx_grade_records_submission ON grade_records(submission_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ReplaceSubmission(ctx context.Context, sub Submission, records []models.GradeRecord) (*Submission, error) {
	sub, err := prepare(sub, records)
	if err != nil {
		return nil, err
	}
	semesters, err := encodeSemesters(sub.SemestersSeen)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin replace")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM grade_records WHERE user_id = ? AND period = ?`, sub.UserID, sub.Period,
	); err != nil {
		return nil, eris.Wrap(err, "sqlite: delete records")
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM submissions WHERE user_id = ? AND period = ?`, sub.UserID, sub.Period,
	); err != nil {
		return nil, eris.Wrap(err, "sqlite: delete submissions")
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO submissions (id, user_id, period, source, success, record_count, unparsed_line_count, semesters_seen, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.UserID, sub.Period, sub.Source, sub.Success, sub.RecordCount,
		sub.UnparsedLineCount, string(semesters), sub.CreatedAt,
	); err != nil {
		return nil, eris.Wrap(err, "sqlite: insert submission")
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO grade_records (`+strings.Join(recordColumns, ", ")+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: prepare record insert")
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err := stmt.ExecContext(ctx, recordRow(sub, i, r)...); err != nil {
			return nil, eris.Wrapf(err, "sqlite: insert record %s", r.SubjectCode)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit replace")
	}
	return &sub, nil
}

func (s *SQLiteStore) ListRecords(ctx context.Context, userID, period string) ([]models.GradeRecord, error) {
	query := `SELECT subject_code, subject_type, subject_name, units, schedule, days, grade, letter_grade, remarks, semester
		FROM grade_records WHERE user_id = ?`
	args := []any{userID}
	if period != "" {
		query += ` AND period = ?`
		args = append(args, period)
	}
	query += ` ORDER BY period, position`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list records")
	}
	defer rows.Close()

	out := []models.GradeRecord{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate records")
}

func (s *SQLiteStore) GetSubmission(ctx context.Context, id string) (*Submission, error) {
	var (
		sub       Submission
		semesters string
		createdAt time.Time
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, period, source, success, record_count, unparsed_line_count, semesters_seen, created_at
		 FROM submissions WHERE id = ?`, id,
	).Scan(&sub.ID, &sub.UserID, &sub.Period, &sub.Source, &sub.Success, &sub.RecordCount,
		&sub.UnparsedLineCount, &semesters, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: submission %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get submission %s", id)
	}

	sub.SemestersSeen, err = decodeSemesters([]byte(semesters))
	if err != nil {
		return nil, err
	}
	sub.CreatedAt = createdAt.UTC()
	return &sub, nil
}
