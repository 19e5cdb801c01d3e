// Package metrics defines the Prometheus collectors for the tracker.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// TrackingRequests counts ingestion requests by endpoint and outcome.
	// Outcome is "recorded" when the state transition applied and "masked"
	// when an internal failure was absorbed by the fail-open policy.
	TrackingRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_ingestion_requests_total",
			Help: "Total tracking requests by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	// AggregationRuns counts rollup refreshes by path (primary, fallback,
	// failed).
	AggregationRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_aggregation_runs_total",
			Help: "Campaign rollup refreshes by aggregation path",
		},
		[]string{"path"},
	)

	// RedirectsServed counts click redirects by destination class.
	RedirectsServed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_redirects_total",
			Help: "Click redirects served, by destination (target or default)",
		},
		[]string{"destination"},
	)
)

// Init registers all collectors with the default registry. Call once per
// process before serving.
func Init() {
	prometheus.MustRegister(TrackingRequests, AggregationRuns, RedirectsServed)
}
