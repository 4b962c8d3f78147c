package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/insightdelivered/transcript-grades/internal/models"
)

// Pool is the subset of *pgxpool.Pool used by PostgresStore.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 10
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS submissions (
	id                  TEXT PRIMARY KEY,
	user_id             TEXT NOT NULL,
	period              TEXT NOT NULL,
	source              TEXT NOT NULL DEFAULT '',
	success             BOOLEAN NOT NULL,
	record_count        INTEGER NOT NULL,
	unparsed_line_count INTEGER NOT NULL,
	semesters_seen      JSONB NOT NULL DEFAULT '[]'::jsonb,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
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
	units         BIGINT NOT NULL,
	schedule      TEXT NOT NULL,
	days          TEXT NOT NULL,
	grade         BIGINT NOT NULL,
	letter_grade  TEXT NOT NULL,
	remarks       TEXT NOT NULL,
	semester      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_submissions_user_period ON submissions(user_id, period);
CREATE INDEX IF NOT EXISTS idx_grade_records_user_period ON grade_records(user_id, period);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) ReplaceSubmission(ctx context.Context, sub Submission, records []models.GradeRecord) (*Submission, error) {
	sub, err := prepare(sub, records)
	if err != nil {
		return nil, err
	}
	semesters, err := encodeSemesters(sub.SemestersSeen)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: begin replace")
	}
	if err := replaceTx(ctx, tx, sub, semesters, records); err != nil {
		_ = tx.Rollback(ctx)
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "postgres: commit replace")
	}
	return &sub, nil
}

func replaceTx(ctx context.Context, tx pgx.Tx, sub Submission, semesters []byte, records []models.GradeRecord) error {
	if _, err := tx.Exec(ctx,
		`DELETE FROM grade_records WHERE user_id = $1 AND period = $2`, sub.UserID, sub.Period,
	); err != nil {
		return eris.Wrap(err, "postgres: delete records")
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM submissions WHERE user_id = $1 AND period = $2`, sub.UserID, sub.Period,
	); err != nil {
		return eris.Wrap(err, "postgres: delete submissions")
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO submissions (id, user_id, period, source, success, record_count, unparsed_line_count, semesters_seen, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		sub.ID, sub.UserID, sub.Period, sub.Source, sub.Success, sub.RecordCount,
		sub.UnparsedLineCount, semesters, sub.CreatedAt,
	); err != nil {
		return eris.Wrap(err, "postgres: insert submission")
	}

	if len(records) == 0 {
		return nil
	}
	rows := make([][]any, len(records))
	for i, r := range records {
		rows[i] = recordRow(sub, i, r)
	}
	n, err := tx.CopyFrom(ctx, pgx.Identifier{"grade_records"}, recordColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return eris.Wrap(err, "postgres: copy records")
	}
	if int(n) != len(records) {
		return eris.Errorf("postgres: copied %d of %d records", n, len(records))
	}
	return nil
}

func (s *PostgresStore) ListRecords(ctx context.Context, userID, period string) ([]models.GradeRecord, error) {
	query := `SELECT subject_code, subject_type, subject_name, units, schedule, days, grade, letter_grade, remarks, semester
		FROM grade_records WHERE user_id = $1`
	args := []any{userID}
	if period != "" {
		query += ` AND period = $2`
		args = append(args, period)
	}
	query += ` ORDER BY period, position`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list records")
	}
	defer rows.Close()

	out := []models.GradeRecord{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate records")
}

func (s *PostgresStore) GetSubmission(ctx context.Context, id string) (*Submission, error) {
	var (
		sub       Submission
		semesters []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, period, source, success, record_count, unparsed_line_count, semesters_seen, created_at
		 FROM submissions WHERE id = $1`, id,
	).Scan(&sub.ID, &sub.UserID, &sub.Period, &sub.Source, &sub.Success, &sub.RecordCount,
		&sub.UnparsedLineCount, &semesters, &sub.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: submission %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get submission %s", id)
	}

	sub.SemestersSeen, err = decodeSemesters(semesters)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}
