package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrTimeout matches every *TimeoutError.
var ErrTimeout = errors.New("wait timed out")

// PollInterval is the delay between two condition checks in Wait.
var PollInterval = 100 * time.Millisecond

// TimeoutError is returned when a Wait condition is not met in time.
type TimeoutError struct {
	Message string
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("TimeoutError: %s\nWait timed out after %dms", e.Message, e.Elapsed.Milliseconds())
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// Condition reports whether a wait is over. A non-nil error aborts the wait.
type Condition func(ctx context.Context) (bool, error)

// errNotMet keeps the retry loop going while a condition is false.
var errNotMet = errors.New("condition not met")

// Wait polls cond every PollInterval until it reports true, it fails, or
// timeout elapses. The condition always runs at least once. Calls to cond are
// bounded by the remaining time, and a condition cut short by that bound
// counts as a timeout.
func Wait(ctx context.Context, timeout time.Duration, message string, cond Condition) error {
	start := time.Now()
	condCtx, cancel := context.WithDeadline(ctx, start.Add(timeout))
	defer cancel()

	op := func() error {
		ok, err := cond(condCtx)
		if err != nil {
			return backoff.Permanent(err)
		}
		if !ok {
			return errNotMet
		}
		return nil
	}

	err := backoff.Retry(op, backoff.WithContext(backoff.NewConstantBackOff(PollInterval), condCtx))
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, errNotMet):
		return &TimeoutError{Message: message, Elapsed: time.Since(start)}
	default:
		return err
	}
}

// WaitForElement waits until an element matching loc is in the document.
func WaitForElement(ctx context.Context, d Driver, loc Locator, timeout time.Duration) (Element, error) {
	var found Element
	err := Wait(ctx, timeout, "Timed-out waiting for element to be located using: "+loc.String(),
		func(ctx context.Context) (bool, error) {
			el, err := d.FindElement(ctx, loc)
			if errors.Is(err, ErrNoSuchElement) {
				return false, nil
			}
			if err != nil {
				return false, err
			}
			found = el
			return true, nil
		})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// WaitForAndFindElement waits until an element matching loc is in the
// document and visible, then returns it. Each of the two phases gets the full
// timeout.
func WaitForAndFindElement(ctx context.Context, d Driver, loc Locator, timeout time.Duration) (Element, error) {
	el, err := WaitForElement(ctx, d, loc, timeout)
	if err != nil {
		return nil, err
	}

	err = Wait(ctx, timeout, "Timed-out waiting for element to be visible using: "+loc.String(),
		func(ctx context.Context) (bool, error) {
			return el.IsDisplayed(ctx)
		})
	if err != nil {
		return nil, err
	}
	return el, nil
}

// WaitForPendingRequests waits until document.readyState is complete.
func WaitForPendingRequests(ctx context.Context, d Driver, timeout time.Duration) error {
	return Wait(ctx, timeout, "waitForPendingRequests",
		func(ctx context.Context) (bool, error) {
			state, err := d.ReadyState(ctx)
			if err != nil {
				return false, err
			}
			return state == "complete", nil
		})
}
