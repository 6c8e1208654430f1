package agent

import (
	"context"
	"log"
	"time"

	"github.com/rahul/synthetics/internal/journey"
	"github.com/rahul/synthetics/internal/observability"
)

// RunFunc executes one journey run.
type RunFunc func(ctx context.Context) (*journey.Result, error)

// Scheduler re-runs a journey on a fixed interval, the way a monitor would.
// Runs never overlap: a run that outlasts the interval delays the next one.
type Scheduler struct {
	Journey  string
	Interval time.Duration
	Run      RunFunc
	Logger   *observability.Logger
}

func NewScheduler(journeyName string, interval time.Duration, run RunFunc, logger *observability.Logger) *Scheduler {
	if logger == nil {
		logger = observability.Discard()
	}
	return &Scheduler{
		Journey:  journeyName,
		Interval: interval,
		Run:      run,
		Logger:   logger,
	}
}

// Start runs the journey immediately and then on every tick until ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	log.Printf("Monitor scheduler started for %s every %s", s.Journey, s.Interval)

	s.pollAndExecute(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pollAndExecute(ctx)
		}
	}
}

func (s *Scheduler) pollAndExecute(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	observability.SetStatus(s.Journey, observability.OutcomeRunning)
	res, err := s.Run(ctx)

	outcome := observability.OutcomePassed
	switch {
	case err != nil:
		log.Printf("Error executing scheduled run of %s: %v", s.Journey, err)
		outcome = observability.OutcomeFailed
	case !res.Passed():
		outcome = observability.OutcomeFailed
	}

	observability.SetStatus(s.Journey, outcome)
	s.Logger.LogHeartbeat(s.Journey, string(outcome))
}
