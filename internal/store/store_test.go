package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/qtc/internal/model"
)

func newTestSQLite(t *testing.T) Store {
	t.Helper()
	return newTestSQLiteStore(t)
}

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func waterRecord() model.ThermoRecord {
	return model.ThermoRecord{
		Identifier: "O",
		Name:       "O",
		Formula:    "H2O",
		ZPE:        12.88,
		DeltaH:     -57.8,
		TMin:       300,
		TMid:       1000,
		TMax:       3000,
		Low:        [7]float64{4.19, -2.03e-3, 6.52e-6, -5.48e-9, 1.77e-12, -30293.7, -0.849},
		High:       [7]float64{2.67, 3.05e-3, -8.73e-7, 1.20e-10, -6.39e-15, -29899.2, 6.86},
		Chemkin:    "O H2O card\n",
	}
}

func storeTestSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("CreateAndGetRun", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, "c1ccccc1")
		require.NoError(t, err)
		assert.NotEmpty(t, run.ID)
		assert.Equal(t, model.RunStatusQueued, run.Status)
		assert.Equal(t, "c1ccccc1", run.Identifier)

		got, err := s.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, run.ID, got.ID)
		assert.Equal(t, model.RunStatusQueued, got.Status)
		assert.Equal(t, "c1ccccc1", got.Identifier)
		assert.Nil(t, got.Result)
	})

	t.Run("GetRunNotFound", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetRun(context.Background(), "missing")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("UpdateRunStatus", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, "O")
		require.NoError(t, err)
		require.NoError(t, s.UpdateRunStatus(ctx, run.ID, model.RunStatusRunningQC))

		got, err := s.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RunStatusRunningQC, got.Status)
	})

	t.Run("UpdateRunStatusNotFound", func(t *testing.T) {
		s := newStore(t)
		err := s.UpdateRunStatus(context.Background(), "nonexistent-id", model.RunStatusParsing)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("UpdateRunResult", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, "O")
		require.NoError(t, err)

		result := &model.RunResult{
			Name:    "O",
			Message: "ZPE = 12.88 kcal/mol\n",
			Phases: []model.PhaseResult{
				{Name: "1_resolve", Status: model.PhaseStatusComplete, Duration: 3},
				{Name: "3_execute", Status: model.PhaseStatusSkipped},
			},
			OutputFiles: []string{"O.ckin"},
		}
		require.NoError(t, s.UpdateRunResult(ctx, run.ID, model.RunStatusComplete, result))

		got, err := s.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RunStatusComplete, got.Status)
		assert.Equal(t, "O", got.Name)
		require.NotNil(t, got.Result)
		assert.Equal(t, "ZPE = 12.88 kcal/mol\n", got.Result.Message)
		assert.Len(t, got.Result.Phases, 2)
		assert.Equal(t, []string{"O.ckin"}, got.Result.OutputFiles)
	})

	t.Run("UpdateRunResultFailed", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, "X")
		require.NoError(t, err)
		result := &model.RunResult{Name: "X", Error: "xyz path not found /nope"}
		require.NoError(t, s.UpdateRunResult(ctx, run.ID, model.RunStatusFailed, result))

		got, err := s.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RunStatusFailed, got.Status)
		assert.Equal(t, "xyz path not found /nope", got.Result.Error)
	})

	t.Run("ListRuns", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.CreateRun(ctx, "O")
		require.NoError(t, err)
		run2, err := s.CreateRun(ctx, "C")
		require.NoError(t, err)
		require.NoError(t, s.UpdateRunStatus(ctx, run2.ID, model.RunStatusThermo))

		all, err := s.ListRuns(ctx, RunFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 2)

		queued, err := s.ListRuns(ctx, RunFilter{Status: model.RunStatusQueued})
		require.NoError(t, err)
		require.Len(t, queued, 1)
		assert.Equal(t, "O", queued[0].Identifier)

		byID, err := s.ListRuns(ctx, RunFilter{Identifier: "C"})
		require.NoError(t, err)
		require.Len(t, byID, 1)
		assert.Equal(t, run2.ID, byID[0].ID)

		limited, err := s.ListRuns(ctx, RunFilter{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, limited, 1)

		offset, err := s.ListRuns(ctx, RunFilter{Offset: 1})
		require.NoError(t, err)
		assert.Len(t, offset, 1)
	})

	t.Run("CreateCompleteAndListPhases", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, "O")
		require.NoError(t, err)

		phase, err := s.CreatePhase(ctx, run.ID, "1_resolve")
		require.NoError(t, err)
		assert.NotEmpty(t, phase.ID)
		assert.Equal(t, run.ID, phase.RunID)
		assert.Equal(t, "1_resolve", phase.Name)
		assert.Equal(t, model.PhaseStatusRunning, phase.Status)

		result := &model.PhaseResult{
			Name:     "1_resolve",
			Status:   model.PhaseStatusComplete,
			Duration: 15,
			Metadata: map[string]any{"multiplicity": float64(1)},
		}
		require.NoError(t, s.CompletePhase(ctx, phase.ID, result))

		phases, err := s.ListPhases(ctx, run.ID)
		require.NoError(t, err)
		require.Len(t, phases, 1)
		assert.Equal(t, model.PhaseStatusComplete, phases[0].Status)
		require.NotNil(t, phases[0].Result)
		assert.Equal(t, int64(15), phases[0].Result.Duration)
		assert.Equal(t, float64(1), phases[0].Result.Metadata["multiplicity"])
	})

	t.Run("CompletePhaseNotFound", func(t *testing.T) {
		s := newStore(t)
		err := s.CompletePhase(context.Background(), "nonexistent-id", &model.PhaseResult{
			Name:   "6_thermo",
			Status: model.PhaseStatusComplete,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("SaveAndGetThermo", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		rec := waterRecord()
		require.NoError(t, s.SaveThermo(ctx, rec))

		got, err := s.GetThermo(ctx, "O")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "H2O", got.Formula)
		assert.InDelta(t, 12.88, got.ZPE, 1e-9)
		assert.Equal(t, rec.Low, got.Low)
		assert.Equal(t, rec.High, got.High)
		assert.False(t, got.UpdatedAt.IsZero())

		miss, err := s.GetThermo(ctx, "C")
		require.NoError(t, err)
		assert.Nil(t, miss)
	})

	t.Run("SaveThermoReplaces", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		rec := waterRecord()
		require.NoError(t, s.SaveThermo(ctx, rec))
		rec.ZPE = 13.2
		rec.RunID = "second"
		require.NoError(t, s.SaveThermo(ctx, rec))

		got, err := s.GetThermo(ctx, "O")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.InDelta(t, 13.2, got.ZPE, 1e-9)
		assert.Equal(t, "second", got.RunID)
	})

	t.Run("SaveThermoEmpty", func(t *testing.T) {
		s := newStore(t)
		assert.NoError(t, s.SaveThermo(context.Background()))
	})
}

func TestSQLiteStore(t *testing.T) {
	storeTestSuite(t, newTestSQLite)
}
