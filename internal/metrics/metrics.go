// Package metrics holds the Prometheus collectors of the storefront BFF.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QuotesComputed = promauto.NewCounterVec( //nolint:gochecknoglobals // prometheus collector
		prometheus.CounterOpts{
			Name: "paginaventa_quotes_computed_total",
			Help: "Total number of price quotes computed",
		},
		[]string{"source"},
	)

	CheckoutSubmissions = promauto.NewCounterVec( //nolint:gochecknoglobals // prometheus collector
		prometheus.CounterOpts{
			Name: "paginaventa_checkout_submissions_total",
			Help: "Total number of wizard submissions by result",
		},
		[]string{"result"},
	)

	ProvisioningOutcomes = promauto.NewCounterVec( //nolint:gochecknoglobals // prometheus collector
		prometheus.CounterOpts{
			Name: "paginaventa_provisioning_outcomes_total",
			Help: "Total number of provisioning streams by terminal state",
		},
		[]string{"state"},
	)

	ProvisioningStreamsActive = promauto.NewGauge( //nolint:gochecknoglobals // prometheus collector
		prometheus.GaugeOpts{
			Name: "paginaventa_provisioning_streams_active",
			Help: "Number of open provisioning status streams",
		},
	)

	StatusRequests = promauto.NewCounterVec( //nolint:gochecknoglobals // prometheus collector
		prometheus.CounterOpts{
			Name: "paginaventa_status_requests_total",
			Help: "Total number of verify and status requests sent by pollers",
		},
		[]string{"endpoint", "outcome"},
	)

	BackendRequestDuration = promauto.NewHistogramVec( //nolint:gochecknoglobals // prometheus collector
		prometheus.HistogramOpts{
			Name:    "paginaventa_backend_request_duration_seconds",
			Help:    "Duration of platform backend requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op", "outcome"},
	)
)

// Quote sources.
const (
	SourceWizard   = "wizard"
	SourcePublic   = "public"
	SourceOperator = "operator"
)

// Submission results.
const (
	ResultSuccess  = "success"
	ResultFailed   = "failed"
	ResultNoPlan   = "plan_unresolved"
	ResultConflict = "conflict"
)

// Request outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)
