package store

import (
	"fmt"
	"io"
	"time"
)

// WriteHistory prints the latest runs of a journey, newest first, each
// followed by its steps.
func (s *RunStore) WriteHistory(w io.Writer, journeyName string, limit int) error {
	runs, err := s.RecentRuns(journeyName, limit)
	if err != nil {
		return fmt.Errorf("failed to load runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintf(w, "No stored runs for %s\n", journeyName)
		return nil
	}

	for _, r := range runs {
		outcome := "PASSED"
		if !r.Passed {
			outcome = "FAILED"
		}
		fmt.Fprintf(w, "%s  %s  %s  %s  soft failures: %d\n",
			r.Started.UTC().Format(time.RFC3339), r.ID, outcome, r.Duration, r.SoftFailures)
		if r.HardFailure != "" {
			fmt.Fprintf(w, "  hard failure: %s\n", r.HardFailure)
		}

		steps, err := s.Steps(r.ID)
		if err != nil {
			return fmt.Errorf("failed to load steps of run %s: %w", r.ID, err)
		}
		for _, st := range steps {
			fmt.Fprintf(w, "  Step %d: [%s:%d] %s  %s %s %s\n",
				st.Number, st.Category, st.CategoryStep, st.Description, st.Policy, st.Status, st.Elapsed)
			if st.Error != "" {
				fmt.Fprintf(w, "    %s\n", st.Error)
			}
		}
	}
	return nil
}
