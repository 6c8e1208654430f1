package store

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahul/synthetics/internal/journey"
)

func newStore(t *testing.T) *RunStore {
	t.Helper()
	s, err := NewRunStore(filepath.Join(t.TempDir(), "nested", "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRunStore_SaveAndLoad(t *testing.T) {
	s := newStore(t)
	started := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

	res := &journey.Result{
		RunID:    "run-1",
		Journey:  "newrelic-search",
		Started:  started,
		Duration: 4200 * time.Millisecond,
		Steps: []journey.StepRecord{
			{Number: 1, Category: "Window Setup", CategoryStep: 1, Description: "Open Start URL", Policy: journey.Hard, Status: journey.StepPassed, Start: 3 * time.Millisecond, Elapsed: 900 * time.Millisecond},
			{Number: 2, Category: "Search", CategoryStep: 1, Description: "Check results text is shown", Policy: journey.Soft, Status: journey.StepFailed, Start: 1 * time.Second, Elapsed: 20 * time.Millisecond, Error: "R"},
		},
		Failures: []journey.Failure{{Step: "Step 2: [Search:1] - Check results text is shown", Reason: "R"}},
	}
	require.NoError(t, s.SaveRun(res))

	runs, err := s.RecentRuns("newrelic-search", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.False(t, runs[0].Passed)
	assert.Equal(t, 1, runs[0].SoftFailures)
	assert.Equal(t, 4200*time.Millisecond, runs[0].Duration)
	assert.True(t, started.Equal(runs[0].Started))

	steps, err := s.Steps("run-1")
	require.NoError(t, err)
	assert.Equal(t, res.Steps, steps)
}

func TestRunStore_RecentRunsOrder(t *testing.T) {
	s := newStore(t)
	base := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		res := &journey.Result{RunID: id, Journey: "j", Started: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, s.SaveRun(res))
	}
	require.NoError(t, s.SaveRun(&journey.Result{RunID: "other", Journey: "k", Started: base}))

	runs, err := s.RecentRuns("j", 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)
	assert.True(t, runs[0].Passed)
}

func TestRunStore_HardFailure(t *testing.T) {
	s := newStore(t)
	res := &journey.Result{
		RunID:       "hard",
		Journey:     "j",
		Started:     time.Now(),
		HardFailure: "Step 3: [Search:1] -> Click search icon",
		HardErr:     errors.New("timeout"),
	}
	require.NoError(t, s.SaveRun(res))

	runs, err := s.RecentRuns("j", 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.False(t, runs[0].Passed)
	assert.Equal(t, res.HardFailure, runs[0].HardFailure)

	assert.Error(t, s.SaveRun(res), "run ids are unique")
}

func TestRunStore_WriteHistory(t *testing.T) {
	s := newStore(t)
	var out bytes.Buffer
	require.NoError(t, s.WriteHistory(&out, "j", 5))
	assert.Equal(t, "No stored runs for j\n", out.String())

	res := &journey.Result{
		RunID:       "run-9",
		Journey:     "j",
		Started:     time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC),
		Duration:    1500 * time.Millisecond,
		HardFailure: "Step 2: [Search:1] -> Click search icon",
		HardErr:     errors.New("timeout"),
		Steps: []journey.StepRecord{
			{Number: 1, Category: "Setup", CategoryStep: 1, Description: "Open Start URL", Policy: journey.Hard, Status: journey.StepPassed, Elapsed: 900 * time.Millisecond},
			{Number: 2, Category: "Search", CategoryStep: 1, Description: "Click search icon", Policy: journey.Hard, Status: journey.StepFailed, Elapsed: 600 * time.Millisecond, Error: "timeout"},
		},
	}
	require.NoError(t, s.SaveRun(res))

	out.Reset()
	require.NoError(t, s.WriteHistory(&out, "j", 5))
	assert.Equal(t,
		"2026-10-18T09:00:00Z  run-9  FAILED  1.5s  soft failures: 0\n"+
			"  hard failure: Step 2: [Search:1] -> Click search icon\n"+
			"  Step 1: [Setup:1] Open Start URL  HARD passed 900ms\n"+
			"  Step 2: [Search:1] Click search icon  HARD failed 600ms\n"+
			"    timeout\n",
		out.String())
}
