package experiment

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qvecrl/qvec/hpo"
)

func openTestTracker(t *testing.T) *Tracker {
	t.Helper()

	tracker, err := Open(context.Background(),
		filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { tracker.Close() })
	return tracker
}

func TestBeginRunAssignsUniqueIDs(t *testing.T) {
	tracker := openTestTracker(t)
	ctx := context.Background()

	config := hpo.Config{"lr": 2.5e-4, "gamma": 0.99}
	first, err := tracker.BeginRun(ctx, "dqn", config)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := tracker.BeginRun(ctx, "dqn", config)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestRecordAndReadEvaluations(t *testing.T) {
	tracker := openTestTracker(t)
	ctx := context.Background()

	runID, err := tracker.BeginRun(ctx, "dqn", hpo.Config{"lr": 1e-3})
	require.NoError(t, err)

	require.NoError(t, tracker.RecordEvaluation(ctx, 1000,
		[]float64{1.0, 3.0, 5.0}))
	require.NoError(t, tracker.RecordEvaluation(ctx, 2000,
		[]float64{10.0, 10.0}))
	require.NoError(t, tracker.FinishRun(ctx, 2000))

	evals, err := tracker.Evaluations(ctx, runID)
	require.NoError(t, err)
	require.Len(t, evals, 2)

	assert.Equal(t, 1000, evals[0].GlobalStep)
	assert.Equal(t, 3, evals[0].Episodes)
	assert.InDelta(t, 3.0, evals[0].RewardMean, 1e-12)
	assert.InDelta(t, 2.0, evals[0].RewardStd, 1e-12)

	assert.Equal(t, 2000, evals[1].GlobalStep)
	assert.Equal(t, 2, evals[1].Episodes)
	assert.InDelta(t, 10.0, evals[1].RewardMean, 1e-12)
}

func TestEvaluationsAreScopedToTheirRun(t *testing.T) {
	tracker := openTestTracker(t)
	ctx := context.Background()

	first, err := tracker.BeginRun(ctx, "dqn", hpo.Config{})
	require.NoError(t, err)
	require.NoError(t, tracker.RecordEvaluation(ctx, 100, []float64{1}))

	second, err := tracker.BeginRun(ctx, "dqn", hpo.Config{})
	require.NoError(t, err)
	require.NoError(t, tracker.RecordEvaluation(ctx, 200, []float64{2}))
	require.NoError(t, tracker.RecordEvaluation(ctx, 300, []float64{3}))

	evals, err := tracker.Evaluations(ctx, first)
	require.NoError(t, err)
	assert.Len(t, evals, 1)

	evals, err = tracker.Evaluations(ctx, second)
	require.NoError(t, err)
	assert.Len(t, evals, 2)
}

func TestRecordEvaluationRequiresARun(t *testing.T) {
	tracker := openTestTracker(t)
	ctx := context.Background()

	err := tracker.RecordEvaluation(ctx, 100, []float64{1})
	assert.Error(t, err)

	err = tracker.FinishRun(ctx, 100)
	assert.Error(t, err)
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open(context.Background(), "")
	assert.Error(t, err)
}
