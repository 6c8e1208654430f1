package observability

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// Outcome is the last known result of a monitored journey.
type Outcome string

const (
	OutcomeUnknown Outcome = "UNKNOWN"
	OutcomeRunning Outcome = "RUNNING"
	OutcomePassed  Outcome = "PASSED"
	OutcomeFailed  Outcome = "FAILED"
)

type MonitorStatus struct {
	mu          sync.RWMutex
	Journey     string
	LastOutcome Outcome
	LastRun     time.Time
}

var globalStatus = &MonitorStatus{
	LastOutcome: OutcomeUnknown,
}

// SetStatus updates the global monitor status.
func SetStatus(journey string, outcome Outcome) {
	globalStatus.mu.Lock()
	defer globalStatus.mu.Unlock()
	globalStatus.Journey = journey
	globalStatus.LastOutcome = outcome
	if outcome != OutcomeRunning {
		globalStatus.LastRun = time.Now()
	}
}

// GetStatus retrieves a copy of the global monitor status.
func GetStatus() (string, Outcome, time.Time) {
	globalStatus.mu.RLock()
	defer globalStatus.mu.RUnlock()
	return globalStatus.Journey, globalStatus.LastOutcome, globalStatus.LastRun
}

// StatusHandler serves the monitor status as JSON.
func StatusHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		journey, outcome, lastRun := GetStatus()
		body := map[string]any{
			"journey": journey,
			"outcome": outcome,
		}
		if !lastRun.IsZero() {
			body["last_run"] = lastRun.UTC().Format(time.RFC3339)
		}
		w.Header().Set("Content-Type", "application/json")
		if outcome == OutcomeFailed {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		if err := json.NewEncoder(w).Encode(body); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}
