// Package journey runs scripted browser journeys: ordered categories of
// timed steps, each with a HARD, SOFT or OPTIONAL failure policy.
package journey

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rahul/synthetics/internal/observability"
)

// ErrJourneyFailed matches every *FailedError.
var ErrJourneyFailed = errors.New("journey failed")

// Action is the body of a step.
type Action func(ctx context.Context, env *Env) error

type StepKind int

const (
	KindAction StepKind = iota
	KindDelay
)

// Step describes one unit of browser interaction. Delay steps carry an
// explicit Logged flag: an unlogged delay runs without numbering, timing or
// log lines. Action steps are always logged.
type Step struct {
	Kind        StepKind
	Policy      Policy
	Description string
	Action      Action
	Duration    time.Duration
	Logged      bool
}

// NewStep returns an action step.
func NewStep(policy Policy, description string, action Action) Step {
	return Step{
		Kind:        KindAction,
		Policy:      policy,
		Description: description,
		Action:      action,
		Logged:      true,
	}
}

// Delay returns a HARD step that pauses the journey for d.
func Delay(description string, d time.Duration, logged bool) Step {
	return Step{
		Kind:        KindDelay,
		Policy:      Hard,
		Description: description,
		Duration:    d,
		Logged:      logged,
	}
}

// Category is a named group of steps numbered independently.
type Category struct {
	Name        string
	Description string
	Steps       []Step
}

// Journey is an ordered list of categories.
type Journey struct {
	Name        string
	Description string
	Categories  []Category
}

// Validate checks the journey is runnable.
func (j *Journey) Validate() error {
	if j.Name == "" {
		return errors.New("journey name is required")
	}
	for _, c := range j.Categories {
		if c.Name == "" {
			return fmt.Errorf("journey %s: category name is required", j.Name)
		}
		for i, s := range c.Steps {
			if _, err := ParsePolicy(string(s.Policy)); err != nil {
				return fmt.Errorf("journey %s: category %s step %d: %w", j.Name, c.Name, i+1, err)
			}
			if s.Kind == KindAction && s.Action == nil {
				return fmt.Errorf("journey %s: category %s step %d (%s) has no action", j.Name, c.Name, i+1, s.Description)
			}
			if s.Kind == KindDelay && s.Duration < 0 {
				return fmt.Errorf("journey %s: category %s step %d (%s) has a negative delay", j.Name, c.Name, i+1, s.Description)
			}
		}
	}
	return nil
}

// Run executes every step in order and reports the outcome. The returned
// error is only set when the journey could not start; step failures are
// reported through the Result.
func (j *Journey) Run(ctx context.Context, env *Env, log *observability.Logger) (*Result, error) {
	if err := j.Validate(); err != nil {
		return nil, err
	}
	if env == nil || env.Driver == nil {
		return nil, errors.New("journey environment has no driver")
	}
	if log == nil {
		log = observability.Discard()
	}

	runID := uuid.NewString()
	log = log.WithRun(runID, j.Name)
	ctx, span := observability.StartSpan(ctx, "journey "+j.Name,
		observability.AttrRunID.String(runID),
		observability.AttrJourney.String(j.Name),
	)

	// The journey starts once the session answers.
	if _, err := env.Driver.Capabilities(ctx); err != nil {
		observability.EndSpan(span, err)
		return nil, fmt.Errorf("browser session not ready: %w", err)
	}

	started := time.Now()
	log.Log(observability.Event{
		Type: observability.EventTypeJourneyStart,
		Data: map[string]any{"descriptor": env.Descriptor},
	})

	state := NewState()
	runner := NewRunner(state, log, j.Name)
	hardErr := j.runCategories(ctx, env, runner)

	res := &Result{
		RunID:       runID,
		Journey:     j.Name,
		Started:     started,
		Duration:    time.Since(started),
		Steps:       state.Records(),
		Failures:    state.Failures(),
		HardFailure: state.HardFailure(),
		HardErr:     hardErr,
	}
	res.report(log)

	observability.RecordJourney(j.Name, res.Passed())
	observability.EndSpan(span, res.Err())
	log.Log(observability.Event{
		Type: observability.EventTypeJourneyEnd,
		Data: map[string]any{
			"passed":        res.Passed(),
			"hard_failure":  res.HardFailure,
			"soft_failures": res.Failures,
			"duration_ms":   res.Duration.Milliseconds(),
		},
	})
	return res, nil
}

func (j *Journey) runCategories(ctx context.Context, env *Env, runner *Runner) error {
	for _, c := range j.Categories {
		runner.StartCategory(c.Name, c.Description)
		for _, s := range c.Steps {
			if err := ctx.Err(); err != nil {
				runner.state.hardFailure = fmt.Sprintf("[%s] -> %s (journey cancelled)", c.Name, s.Description)
				return err
			}
			if err := runStep(ctx, env, runner, c.Name, s); err != nil {
				return err
			}
		}
	}
	return nil
}

func runStep(ctx context.Context, env *Env, runner *Runner, category string, s Step) error {
	if s.Kind == KindDelay {
		sleep := func(ctx context.Context) error {
			return env.Driver.Sleep(ctx, s.Duration)
		}
		if !s.Logged {
			if err := sleep(ctx); err != nil {
				runner.state.hardFailure = fmt.Sprintf("[%s] -> unlogged delay of %s", category, s.Duration)
				return err
			}
			return nil
		}
		return runner.TimedStep(ctx, s.Policy, s.Description, category, sleep)
	}
	return runner.TimedStep(ctx, s.Policy, s.Description, category, func(ctx context.Context) error {
		return s.Action(ctx, env)
	})
}

// Result is the outcome of one journey run.
type Result struct {
	RunID       string
	Journey     string
	Started     time.Time
	Duration    time.Duration
	Steps       []StepRecord
	Failures    []Failure
	HardFailure string
	HardErr     error
}

// Passed reports whether the run had neither a HARD nor a SOFT failure.
func (r *Result) Passed() bool {
	return r.HardErr == nil && len(r.Failures) == 0
}

// Err returns a *FailedError for a failed run and nil otherwise.
func (r *Result) Err() error {
	if r.Passed() {
		return nil
	}
	return &FailedError{
		Hard:         r.HardErr != nil,
		HardFailure:  r.HardFailure,
		SoftFailures: len(r.Failures),
		Cause:        r.HardErr,
	}
}

// FailedError is the overall failure of a journey run.
type FailedError struct {
	Hard         bool
	HardFailure  string
	SoftFailures int
	Cause        error
}

func (e *FailedError) Error() string {
	if e.Hard {
		return fmt.Sprintf("Journey failed: There was a hard step failure and %d soft step failures.", e.SoftFailures)
	}
	return fmt.Sprintf("Journey failed: There were %d soft step failures.", e.SoftFailures)
}

func (e *FailedError) Is(target error) bool { return target == ErrJourneyFailed }

func (e *FailedError) Unwrap() error { return e.Cause }

const journeyEnd = "\n\n========[ JOURNEY END ]========\n"

func (r *Result) report(log *observability.Logger) {
	switch {
	case r.HardErr != nil:
		log.Console("%s", r.HardErr.Error())
		log.Console(journeyEnd + "Journey failed: there was a hard step failure.")
		log.Console("%s", r.HardFailure)
		if len(r.Failures) > 0 {
			log.Console("\n\nThere were also %d soft step failures:", len(r.Failures))
			log.Console("%s", FormatFailures(r.Failures))
		}
	case len(r.Failures) > 0:
		log.Console(journeyEnd+"Journey failed: %d soft failures detected:", len(r.Failures))
		log.Console("%s", FormatFailures(r.Failures))
	default:
		log.Console(journeyEnd + "Journey completed successfully")
	}
}

// FormatFailures renders the failure list the way the end summary prints it.
func FormatFailures(failures []Failure) string {
	if len(failures) == 0 {
		return "[]"
	}
	var b strings.Builder
	b.WriteString("[\n")
	for i, f := range failures {
		fmt.Fprintf(&b, "  {\n    failure: '%s',\n    reason: '%s'\n  }", f.Step, f.Reason)
		if i < len(failures)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("]")
	return b.String()
}
