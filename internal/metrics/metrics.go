// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// VendorRequestsTotal counts vendor API calls by endpoint and outcome
	// (success, failure, unauthorized, rejected).
	VendorRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "garmin_vendor_requests_total",
			Help: "Total number of vendor API requests",
		},
		[]string{"endpoint", "outcome"},
	)

	VendorRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "garmin_vendor_request_duration_seconds",
			Help:    "Duration of vendor API requests in seconds, retries included",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint"},
	)

	// VendorBreakerState is the circuit breaker state: 0 closed, 1 half-open, 2 open.
	VendorBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "garmin_vendor_circuit_breaker_state",
			Help: "Vendor circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
	)

	// CredentialsResolved is set to 1 for the shape and source picked at startup.
	CredentialsResolved = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "garmin_credentials_resolved",
			Help: "Credential bundle resolved at startup, by shape and source",
		},
		[]string{"shape", "source"},
	)

	CredentialNoticesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "garmin_credential_notices_total",
			Help: "Non-fatal notices raised while resolving credentials",
		},
		[]string{"kind"},
	)
)

func ObserveVendorRequest(endpoint, outcome string, d time.Duration) {
	VendorRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	VendorRequestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

func RecordCredentialsResolved(shape, source string) {
	CredentialsResolved.WithLabelValues(shape, source).Set(1)
}

func RecordCredentialNotice(kind string) {
	CredentialNoticesTotal.WithLabelValues(kind).Inc()
}
