package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/profile-harvest/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "harvest.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteStore_ImplementsStore(t *testing.T) {
	var _ Store = (*SQLiteStore)(nil)
}

func TestSQLiteStore_MigrateIdempotent(t *testing.T) {
	s := newTestSQLite(t)
	assert.NoError(t, s.Migrate(context.Background()))
}

func TestSQLiteStore_RunLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	run, err := s.CreateRun(ctx, model.RunKindFull, "codellama", "https://d.example/search?start=")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunKindFull, got.Kind)
	assert.Equal(t, "codellama", got.Model)
	assert.Equal(t, "https://d.example/search?start=", got.BaseURL)
	assert.Equal(t, model.RunStatusRunning, got.Status)

	require.NoError(t, s.FinishRun(ctx, run.ID, model.RunStatusFailed, "interrupted"))

	got, err = s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, got.Status)
	assert.Equal(t, "interrupted", got.Error)
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))
}

func TestSQLiteStore_GetRun_NotFound(t *testing.T) {
	s := newTestSQLite(t)

	_, err := s.GetRun(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLiteStore_FinishRun_NotFound(t *testing.T) {
	s := newTestSQLite(t)

	err := s.FinishRun(context.Background(), "missing", model.RunStatusComplete, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLiteStore_ListRuns_Filters(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	scrape, err := s.CreateRun(ctx, model.RunKindScrape, "", "u")
	require.NoError(t, err)
	process, err := s.CreateRun(ctx, model.RunKindProcess, "phi", "")
	require.NoError(t, err)
	require.NoError(t, s.FinishRun(ctx, scrape.ID, model.RunStatusComplete, ""))

	all, err := s.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	complete, err := s.ListRuns(ctx, RunFilter{Status: model.RunStatusComplete})
	require.NoError(t, err)
	require.Len(t, complete, 1)
	assert.Equal(t, scrape.ID, complete[0].ID)

	byKind, err := s.ListRuns(ctx, RunFilter{Kind: model.RunKindProcess})
	require.NoError(t, err)
	require.Len(t, byKind, 1)
	assert.Equal(t, process.ID, byKind[0].ID)

	limited, err := s.ListRuns(ctx, RunFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	offset, err := s.ListRuns(ctx, RunFilter{Limit: 10, Offset: 1})
	require.NoError(t, err)
	assert.Len(t, offset, 1)
}

func TestSQLiteStore_PageOutcomes(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	run, err := s.CreateRun(ctx, model.RunKindFull, "codellama", "u")
	require.NoError(t, err)

	outcomes := []*model.PageOutcome{
		{RunID: run.ID, Index: 2, Step: model.PageStepProcess, Status: model.PageStatusOK, Source: "page_2.html", Records: 3, DurationMs: 1200},
		{RunID: run.ID, Index: 1, Step: model.PageStepFetch, Status: model.PageStatusOK, Source: "u0", DurationMs: 40},
		{
			RunID: run.ID, Index: 2, Step: model.PageStepFetch, Status: model.PageStatusFailed, Source: "u50",
			ErrorKind: "fetch", ErrorCategory: model.ErrorCategoryTransient, Error: "connection refused",
		},
	}
	for _, o := range outcomes {
		require.NoError(t, s.RecordPage(ctx, o))
		assert.NotEmpty(t, o.ID)
		assert.False(t, o.CreatedAt.IsZero())
	}

	got, err := s.ListPageOutcomes(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Ordered by step then page index.
	assert.Equal(t, model.PageStepFetch, got[0].Step)
	assert.Equal(t, 1, got[0].Index)
	assert.Equal(t, model.PageStepFetch, got[1].Step)
	assert.Equal(t, 2, got[1].Index)
	assert.Equal(t, model.ErrorCategoryTransient, got[1].ErrorCategory)
	assert.Equal(t, "connection refused", got[1].Error)
	assert.Equal(t, model.PageStepProcess, got[2].Step)
	assert.Equal(t, 3, got[2].Records)
	assert.Equal(t, int64(1200), got[2].DurationMs)
	assert.WithinDuration(t, time.Now(), got[2].CreatedAt, time.Minute)
}

func TestSQLiteStore_ListPageOutcomes_Empty(t *testing.T) {
	s := newTestSQLite(t)

	got, err := s.ListPageOutcomes(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Empty(t, got)
}
