package journey

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/rahul/synthetics/internal/observability"
)

// StepFunc is the unit of work wrapped by TimedStep.
type StepFunc func(ctx context.Context) error

// Runner times steps and applies their failure policy to a State.
type Runner struct {
	state   *State
	log     *observability.Logger
	journey string
	started time.Time
	now     func() time.Time
}

// NewRunner returns a runner whose offsets are measured from now.
func NewRunner(state *State, log *observability.Logger, journey string) *Runner {
	if log == nil {
		log = observability.Discard()
	}
	r := &Runner{
		state:   state,
		log:     log,
		journey: journey,
		now:     time.Now,
	}
	r.started = r.now()
	return r
}

func (r *Runner) State() *State { return r.state }

// sinceStart is the current offset from journey start in whole milliseconds.
func (r *Runner) sinceStart() int64 {
	return r.now().Sub(r.started).Milliseconds()
}

// StartCategory prints the category banner.
func (r *Runner) StartCategory(category, description string) {
	r.log.Console("\n\n==[ Start category: %s ]==", category)
	r.log.Console("%s\n", description)
	r.log.LogCategory(category, description)
}

// TimedStep runs fn exactly once. Only a HARD failure is returned; SOFT and
// OPTIONAL failures are logged, recorded as the policy requires and
// swallowed.
func (r *Runner) TimedStep(ctx context.Context, policy Policy, description, category string, fn StepFunc) error {
	thisStep, categoryStep := r.state.next(category)
	startTimestamp := r.sinceStart()
	r.log.Console("START  Step %d: [%s:%d] start: %dms -> %s", thisStep, category, categoryStep, startTimestamp, description)
	r.log.LogStepStart(thisStep, categoryStep, category, description, startTimestamp)

	ctx, span := observability.StartSpan(ctx, description,
		observability.AttrJourney.String(r.journey),
		observability.AttrCategory.String(category),
		observability.AttrStep.Int(thisStep),
		observability.AttrCategoryStep.Int(categoryStep),
		observability.AttrPolicy.String(policy.String()),
	)

	err := call(ctx, fn)

	endTimestamp := r.sinceStart()
	elapsed := endTimestamp - startTimestamp
	observability.EndSpan(span, err)
	observability.RecordStep(r.journey, category, policy.String(), time.Duration(elapsed)*time.Millisecond, err != nil)

	record := StepRecord{
		Number:       thisStep,
		Category:     category,
		CategoryStep: categoryStep,
		Description:  description,
		Policy:       policy,
		Status:       StepPassed,
		Start:        time.Duration(startTimestamp) * time.Millisecond,
		Elapsed:      time.Duration(elapsed) * time.Millisecond,
	}

	if err == nil {
		r.log.Console("FINISH Step %d: [%s:%d] ended: %dms, elapsed: %dms -> %s", thisStep, category, categoryStep, endTimestamp, elapsed, description)
		r.log.LogStepFinish(thisStep, categoryStep, category, description, endTimestamp, elapsed)
		r.state.records = append(r.state.records, record)
		return nil
	}

	record.Status = StepFailed
	record.Error = err.Error()
	r.state.records = append(r.state.records, record)
	r.log.LogStepError(thisStep, categoryStep, category, description, policy.String(), err.Error())

	switch policy {
	case Hard:
		r.log.Console("ERROR! Step %d: [%s:%d] -> %s'\n ╚══> This is a HARD step error so processing of further steps will cease and the  journey will be failed.", thisStep, category, categoryStep, description)
		r.state.hardFailure = fmt.Sprintf("Step %d: [%s:%d] -> %s", thisStep, category, categoryStep, description)
		return err
	case Soft:
		r.log.Console("ERROR! Step %d: [%s:%d] -> %s\n ╚═══> This is a SOFT step error so processing of further steps will continue but the journey will be failed.", thisStep, category, categoryStep, description)
		r.log.Console("\n%s\n\n", err.Error())
		r.state.failures = append(r.state.failures, Failure{
			Step:   fmt.Sprintf("Step %d: [%s:%d] - %s", thisStep, category, categoryStep, description),
			Reason: err.Error(),
		})
		return nil
	default:
		r.log.Console("ERROR! Step %d: [%s:%d] -> %s\n ╚═══> This is an OPTIONAL step so this error will not fail the journey.", thisStep, category, categoryStep, description)
		r.log.Console("\n%s\n\n", err.Error())
		return nil
	}
}

// call runs fn, turning a panic into an ordinary step error.
func call(ctx context.Context, fn StepFunc) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic in step: %v\n%s", rec, debug.Stack())
		}
	}()
	return fn(ctx)
}
