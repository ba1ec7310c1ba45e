// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_validations_total",
			Help: "Total number of payment validations by overall status",
		},
		[]string{"status"},
	)

	ValidationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "payment_validation_duration_seconds",
			Help: "Duration of payment validation in seconds",
		},
		[]string{"status"},
	)

	RubricScore = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "validation_rubric_score",
			Help:    "Per-rubric score distribution",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
		[]string{"rubric"},
	)

	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auto_pipeline_runs_total",
			Help: "Total number of automatic pipeline runs by outcome",
		},
		[]string{"outcome"},
	)

	CertificatesIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "certificates_issued_total",
			Help: "Total number of certificates issued",
		},
	)

	CertificatesRevoked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "certificates_revoked_total",
			Help: "Total number of certificates revoked",
		},
	)
)
