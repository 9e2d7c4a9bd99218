package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sells-group/impact-report/internal/model"
)

// Nop is a Store that records nothing. It backs store.driver "none".
type Nop struct{}

func (Nop) CreateRun(_ context.Context, company string) (*model.Run, error) {
	now := time.Now().UTC()
	return &model.Run{
		ID:        uuid.New().String(),
		Company:   company,
		Status:    model.RunStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (Nop) UpdateRunStatus(context.Context, string, model.RunStatus) error { return nil }

func (Nop) UpdateRunResult(context.Context, string, *model.RunResult) error { return nil }

func (Nop) GetRun(_ context.Context, runID string) (*model.Run, error) {
	return nil, model.ErrNotFound
}

func (Nop) ListRuns(context.Context, RunFilter) ([]model.Run, error) { return nil, nil }

func (Nop) CreatePhase(_ context.Context, runID string, name string) (*model.RunPhase, error) {
	return &model.RunPhase{
		ID:        uuid.New().String(),
		RunID:     runID,
		Name:      name,
		Status:    model.PhaseStatusRunning,
		StartedAt: time.Now().UTC(),
	}, nil
}

func (Nop) CompletePhase(context.Context, string, *model.PhaseResult) error { return nil }

func (Nop) ListPhases(context.Context, string) ([]model.RunPhase, error) { return nil, nil }

func (Nop) Migrate(context.Context) error { return nil }

func (Nop) Close() error { return nil }
