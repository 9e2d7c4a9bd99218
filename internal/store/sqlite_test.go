package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/impact-report/internal/model"
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

func TestSQLite_CreateRun_And_GetRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "Acme Corp")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusQueued, run.Status)

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", got.Company)
	assert.Equal(t, model.RunStatusQueued, got.Status)
	assert.Nil(t, got.Result)
}

func TestSQLite_GetRun_Missing(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetRun(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrNotFound))
}

func TestSQLite_UpdateRunStatus(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "Acme Corp")
	require.NoError(t, err)
	require.NoError(t, st.UpdateRunStatus(ctx, run.ID, model.RunStatusInserting))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusInserting, got.Status)

	err = st.UpdateRunStatus(ctx, "missing", model.RunStatusFailed)
	assert.True(t, eris.Is(err, model.ErrNotFound))
}

func TestSQLite_UpdateRunResult(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	ok, err := st.CreateRun(ctx, "Acme Corp")
	require.NoError(t, err)
	require.NoError(t, st.UpdateRunResult(ctx, ok.ID, &model.RunResult{
		Success:     true,
		CompanyName: "Acme Corp",
		OutputPath:  "out/acme.docx",
		Metrics: model.RunMetrics{
			RulesProcessed: 4,
			TokenUsage:     model.TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15, Cost: 0.01},
		},
	}))

	got, err := st.GetRun(ctx, ok.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	assert.Equal(t, "out/acme.docx", got.OutputPath)
	require.NotNil(t, got.Result)
	assert.Equal(t, 4, got.Result.Metrics.RulesProcessed)
	assert.Equal(t, int64(15), got.Result.Metrics.TokenUsage.TotalTokens)
	assert.Equal(t, int64(15), got.Tokens)
	assert.InDelta(t, 0.01, got.CostUSD, 1e-9)
	assert.Empty(t, got.Error)

	bad, err := st.CreateRun(ctx, "Globex")
	require.NoError(t, err)
	require.NoError(t, st.UpdateRunResult(ctx, bad.ID, &model.RunResult{
		Success: false,
		Errors:  []string{"provider error"},
	}))
	got, err = st.GetRun(ctx, bad.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, got.Status)
	assert.Equal(t, []string{"provider error"}, got.Result.Errors)
	assert.Equal(t, "provider error", got.Error)
}

func TestSQLite_ListRuns_Filters(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	a, err := st.CreateRun(ctx, "Acme Corp")
	require.NoError(t, err)
	_, err = st.CreateRun(ctx, "Globex")
	require.NoError(t, err)
	_, err = st.CreateRun(ctx, "Acme Corp")
	require.NoError(t, err)
	require.NoError(t, st.UpdateRunStatus(ctx, a.ID, model.RunStatusFailed))

	all, err := st.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	acme, err := st.ListRuns(ctx, RunFilter{Company: "Acme Corp"})
	require.NoError(t, err)
	assert.Len(t, acme, 2)

	partial, err := st.ListRuns(ctx, RunFilter{Company: "acme"})
	require.NoError(t, err)
	assert.Len(t, partial, 2)

	failed, err := st.ListRuns(ctx, RunFilter{Status: model.RunStatusFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, a.ID, failed[0].ID)

	limited, err := st.ListRuns(ctx, RunFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLite_Phases(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "Acme Corp")
	require.NoError(t, err)

	phase, err := st.CreatePhase(ctx, run.ID, "resolve")
	require.NoError(t, err)
	assert.Equal(t, model.PhaseStatusRunning, phase.Status)

	require.NoError(t, st.CompletePhase(ctx, phase.ID, &model.PhaseResult{
		Name:     "resolve",
		Status:   model.PhaseStatusComplete,
		Duration: 12,
		Metadata: map[string]any{"survey_fallback": false},
	}))

	phases, err := st.ListPhases(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, phases, 1)
	assert.Equal(t, model.PhaseStatusComplete, phases[0].Status)
	require.NotNil(t, phases[0].Result)
	assert.Equal(t, int64(12), phases[0].Result.Duration)

	err = st.CompletePhase(ctx, "missing", &model.PhaseResult{Status: model.PhaseStatusFailed})
	assert.True(t, eris.Is(err, model.ErrNotFound))
}

func TestSQLite_Migrate_Idempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	require.NoError(t, st.Migrate(context.Background()))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, "none", "")
	require.NoError(t, err)
	assert.IsType(t, Nop{}, s)

	s, err = Open(ctx, "sqlite", filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	_, err = s.CreateRun(ctx, "Acme Corp")
	require.NoError(t, err)

	_, err = Open(ctx, "postgres", "")
	assert.Error(t, err)
}
