package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/qtc/internal/model"
)

// NoopStore discards run history. It backs store.driver "none".
type NoopStore struct{}

func (NoopStore) CreateRun(_ context.Context, identifier string) (*model.Run, error) {
	now := time.Now().UTC()
	return &model.Run{
		ID:         uuid.New().String(),
		Identifier: identifier,
		Status:     model.RunStatusQueued,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (NoopStore) UpdateRunStatus(context.Context, string, model.RunStatus) error { return nil }

func (NoopStore) UpdateRunResult(context.Context, string, model.RunStatus, *model.RunResult) error {
	return nil
}

func (NoopStore) GetRun(_ context.Context, runID string) (*model.Run, error) {
	return nil, eris.Errorf("run not found: %s", runID)
}

func (NoopStore) ListRuns(context.Context, RunFilter) ([]model.Run, error) { return nil, nil }

func (NoopStore) CreatePhase(_ context.Context, runID string, name string) (*model.RunPhase, error) {
	return &model.RunPhase{
		ID:        uuid.New().String(),
		RunID:     runID,
		Name:      name,
		Status:    model.PhaseStatusRunning,
		StartedAt: time.Now().UTC(),
	}, nil
}

func (NoopStore) CompletePhase(context.Context, string, *model.PhaseResult) error { return nil }

func (NoopStore) ListPhases(context.Context, string) ([]model.RunPhase, error) { return nil, nil }

func (NoopStore) SaveThermo(context.Context, ...model.ThermoRecord) error { return nil }

func (NoopStore) GetThermo(context.Context, string) (*model.ThermoRecord, error) { return nil, nil }

func (NoopStore) Migrate(context.Context) error { return nil }

func (NoopStore) Close() error { return nil }
