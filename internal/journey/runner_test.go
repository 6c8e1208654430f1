package journey

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahul/synthetics/internal/observability"
)

// fakeClock advances by step every time it is read.
type fakeClock struct {
	t    time.Time
	step time.Duration
}

func (c *fakeClock) now() time.Time {
	t := c.t
	c.t = c.t.Add(c.step)
	return t
}

func newTestRunner(t *testing.T) (*Runner, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	r := NewRunner(NewState(), observability.NewLogger(&out, ""), "test")
	clock := &fakeClock{t: time.Unix(1700000000, 0), step: 25 * time.Millisecond}
	r.now = clock.now
	r.started = clock.now()
	return r, &out
}

func ok(context.Context) error { return nil }

func TestTimedStep_LogFormat(t *testing.T) {
	r, out := newTestRunner(t)

	require.NoError(t, r.TimedStep(context.Background(), Hard, "Open Start URL", "Window Setup", ok))

	assert.Equal(t,
		"START  Step 1: [Window Setup:1] start: 25ms -> Open Start URL\n"+
			"FINISH Step 1: [Window Setup:1] ended: 50ms, elapsed: 25ms -> Open Start URL\n",
		out.String())
}

func TestTimedStep_Numbering(t *testing.T) {
	r, _ := newTestRunner(t)
	ctx := context.Background()

	require.NoError(t, r.TimedStep(ctx, Hard, "a", "Setup", ok))
	require.NoError(t, r.TimedStep(ctx, Hard, "b", "Search", ok))
	require.NoError(t, r.TimedStep(ctx, Hard, "c", "Setup", ok))
	require.NoError(t, r.TimedStep(ctx, Soft, "d", "Search", ok))
	require.NoError(t, r.TimedStep(ctx, Optional, "e", "Search", ok))

	st := r.State()
	assert.Equal(t, 6, st.NextStep())
	assert.Equal(t, 3, st.CategoryCounter("Setup"))
	assert.Equal(t, 4, st.CategoryCounter("Search"))
	assert.Equal(t, 0, st.CategoryCounter("Unknown"))

	var labels []string
	for _, rec := range st.Records() {
		labels = append(labels, fmt.Sprintf("%s:%d", rec.Category, rec.CategoryStep))
	}
	assert.Equal(t, []string{"Setup:1", "Search:1", "Setup:2", "Search:2", "Search:3"}, labels)
}

func TestTimedStep_Hard(t *testing.T) {
	r, out := newTestRunner(t)
	boom := errors.New("element not found")

	err := r.TimedStep(context.Background(), Hard, "Click search icon", "Search", func(context.Context) error {
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "Step 1: [Search:1] -> Click search icon", r.State().HardFailure())
	assert.Empty(t, r.State().Failures())
	assert.Contains(t, out.String(),
		"ERROR! Step 1: [Search:1] -> Click search icon'\n ╚══> This is a HARD step error so processing of further steps will cease and the  journey will be failed.\n")
	assert.NotContains(t, out.String(), "FINISH")
}

func TestTimedStep_Soft(t *testing.T) {
	r, out := newTestRunner(t)

	err := r.TimedStep(context.Background(), Soft, "Check results text is shown", "Search", func(context.Context) error {
		return Assert(false, "")
	})

	require.NoError(t, err)
	assert.Empty(t, r.State().HardFailure())
	assert.Equal(t, []Failure{{
		Step:   "Step 1: [Search:1] - Check results text is shown",
		Reason: "The expression evaluated to a falsy value",
	}}, r.State().Failures())
	assert.Contains(t, out.String(),
		"ERROR! Step 1: [Search:1] -> Check results text is shown\n ╚═══> This is a SOFT step error so processing of further steps will continue but the journey will be failed.\n"+
			"\nThe expression evaluated to a falsy value\n\n\n")
}

func TestTimedStep_Optional(t *testing.T) {
	r, out := newTestRunner(t)

	err := r.TimedStep(context.Background(), Optional, "Confirm header text is correct", "Search", func(context.Context) error {
		return Equal("New Relic", "Some header we expect to fail")
	})

	require.NoError(t, err)
	assert.Empty(t, r.State().Failures())
	assert.Empty(t, r.State().HardFailure())
	assert.False(t, r.State().Failed())
	assert.Contains(t, out.String(),
		"ERROR! Step 1: [Search:1] -> Confirm header text is correct\n ╚═══> This is an OPTIONAL step so this error will not fail the journey.\n")
	assert.Contains(t, out.String(), "Expected values to be strictly equal")

	recs := r.State().Records()
	require.Len(t, recs, 1)
	assert.Equal(t, StepFailed, recs[0].Status)
}

func TestTimedStep_PanicIsAFailure(t *testing.T) {
	r, _ := newTestRunner(t)

	err := r.TimedStep(context.Background(), Soft, "explodes", "Search", func(context.Context) error {
		var m map[string]int
		m["x"] = 1
		return nil
	})

	require.NoError(t, err)
	failures := r.State().Failures()
	require.Len(t, failures, 1)
	assert.True(t, strings.HasPrefix(failures[0].Reason, "panic in step:"))
}

func TestTimedStep_RunsExactlyOnce(t *testing.T) {
	r, _ := newTestRunner(t)
	calls := 0
	_ = r.TimedStep(context.Background(), Hard, "once", "c", func(context.Context) error {
		calls++
		return errors.New("fail")
	})
	assert.Equal(t, 1, calls)
}

func TestStartCategory(t *testing.T) {
	r, out := newTestRunner(t)
	r.StartCategory("Search", "Test search features")
	assert.Equal(t, "\n\n==[ Start category: Search ]==\nTest search features\n\n", out.String())
}

func TestParsePolicy(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want Policy
		err  bool
	}{
		{in: "HARD", want: Hard},
		{in: "soft", want: Soft},
		{in: " Optional ", want: Optional},
		{in: "fatal", err: true},
		{in: "", err: true},
	} {
		t.Run(tc.in, func(t *testing.T) {
			p, err := ParsePolicy(tc.in)
			if tc.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, p)
		})
	}
}
