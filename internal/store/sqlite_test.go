package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/transcript-grades/internal/config"
	"github.com/insightdelivered/transcript-grades/internal/models"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func sampleRecords() []models.GradeRecord {
	return []models.GradeRecord{
		{
			SubjectCode: "CS21", SubjectType: "CC 101", SubjectName: "INTRO TO COMPUTING",
			Units: models.MustDecimal("3.00"), Schedule: "08:00 AM-09:30 AM", Days: "MW",
			Grade: models.MustDecimal("1.25"), LetterGrade: "A", Remarks: models.RemarksPassed,
			Semester: "1st Semester SY 2023-2024",
		},
		{
			SubjectCode: "CS74", SubjectName: "THESIS 2",
			Units: models.MustDecimal("3.00"), LetterGrade: models.LetterNA, Remarks: models.RemarksOngoing,
			Semester: "2nd Semester SY 2023-2024",
		},
	}
}

func TestSQLite_ReplaceAndList(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	sub := Submission{UserID: "u1", Period: "2023-2024", Source: "tor.pdf", Success: true,
		SemestersSeen: []string{"1st Semester SY 2023-2024", "2nd Semester SY 2023-2024"}}
	saved, err := st.ReplaceSubmission(ctx, sub, sampleRecords())
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, 2, saved.RecordCount)

	got, err := st.ListRecords(ctx, "u1", "2023-2024")
	require.NoError(t, err)
	assert.Equal(t, sampleRecords(), got)

	loaded, err := st.GetSubmission(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "tor.pdf", loaded.Source)
	assert.True(t, loaded.Success)
	assert.Equal(t, sub.SemestersSeen, loaded.SemestersSeen)
}

func TestSQLite_ReplaceIsWholesale(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	first, err := st.ReplaceSubmission(ctx, Submission{UserID: "u1", Period: "2023-2024"}, sampleRecords())
	require.NoError(t, err)

	second, err := st.ReplaceSubmission(ctx, Submission{UserID: "u1", Period: "2023-2024"}, sampleRecords()[:1])
	require.NoError(t, err)

	got, err := st.ListRecords(ctx, "u1", "2023-2024")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "CS21", got[0].SubjectCode)

	_, err = st.GetSubmission(ctx, first.ID)
	assert.True(t, eris.Is(err, ErrNotFound))
	_, err = st.GetSubmission(ctx, second.ID)
	assert.NoError(t, err)
}

func TestSQLite_PeriodsAndUsersAreIsolated(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.ReplaceSubmission(ctx, Submission{UserID: "u1", Period: "2022-2023"}, sampleRecords()[:1])
	require.NoError(t, err)
	_, err = st.ReplaceSubmission(ctx, Submission{UserID: "u1", Period: "2023-2024"}, sampleRecords())
	require.NoError(t, err)
	_, err = st.ReplaceSubmission(ctx, Submission{UserID: "u2", Period: "2023-2024"}, sampleRecords())
	require.NoError(t, err)

	all, err := st.ListRecords(ctx, "u1", "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	one, err := st.ListRecords(ctx, "u1", "2022-2023")
	require.NoError(t, err)
	assert.Len(t, one, 1)

	none, err := st.ListRecords(ctx, "u3", "")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLite_EmptySubmission(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	saved, err := st.ReplaceSubmission(ctx, Submission{UserID: "u1", Period: "p"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, saved.RecordCount)

	loaded, err := st.GetSubmission(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{}, loaded.SemestersSeen)
}

func TestSQLite_RequiresUser(t *testing.T) {
	st := newTestSQLiteStore(t)
	_, err := st.ReplaceSubmission(context.Background(), Submission{Period: "p"}, nil)
	assert.Error(t, err)
}

func TestSQLite_GetSubmission_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)
	_, err := st.GetSubmission(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	st, err := Open(ctx, config.StoreConfig{Driver: DriverSQLite, DatabaseURL: filepath.Join(t.TempDir(), "open.db")})
	require.NoError(t, err)
	require.NoError(t, st.Migrate(ctx))
	require.NoError(t, st.Close())

	_, err = Open(ctx, config.StoreConfig{Driver: "mysql"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown driver "mysql"`)
}

func TestNewSubmission(t *testing.T) {
	res := &models.ExtractionResult{
		Success:           true,
		Records:           sampleRecords(),
		UnparsedLineCount: 3,
		SemestersSeen:     []string{"Summer 2024"},
	}
	sub := NewSubmission("u1", "2024", "tor.pdf", res)
	assert.Equal(t, Submission{
		UserID: "u1", Period: "2024", Source: "tor.pdf", Success: true,
		RecordCount: 2, UnparsedLineCount: 3, SemestersSeen: []string{"Summer 2024"},
	}, sub)
}
