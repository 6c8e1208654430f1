package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	metricStepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "synthetics",
		Name:      "step_duration_seconds",
		Help:      "Duration of journey steps, by category and outcome.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"journey", "category", "outcome"})
	metricStepFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "synthetics",
		Name:      "step_failures_total",
		Help:      "Number of failed journey steps, by failure policy.",
	}, []string{"journey", "policy"})
	metricJourneyRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "synthetics",
		Name:      "journey_runs_total",
		Help:      "Number of completed journey runs, by outcome.",
	}, []string{"journey", "outcome"})
)

// RecordStep observes one finished step. Failed steps also count toward the
// per-policy failure counter.
func RecordStep(journey, category, policy string, elapsed time.Duration, failed bool) {
	outcome := "passed"
	if failed {
		outcome = "failed"
		metricStepFailures.WithLabelValues(journey, policy).Inc()
	}
	metricStepDuration.WithLabelValues(journey, category, outcome).Observe(elapsed.Seconds())
}

// RecordJourney counts a finished run.
func RecordJourney(journey string, passed bool) {
	outcome := "passed"
	if !passed {
		outcome = "failed"
	}
	metricJourneyRuns.WithLabelValues(journey, outcome).Inc()
}

// MetricsHandler serves the default prometheus registry.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
