package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics holds all Prometheus collectors for the application.
// Following the explicit dependency injection pattern, this struct
// is passed to all components that need to record metrics.
type Metrics struct {
	// Solana RPC Metrics
	solanaRPCCallsTotal   *prometheus.CounterVec
	solanaRPCCallDuration *prometheus.HistogramVec

	// Submission Metrics
	submissionsTotal     *prometheus.CounterVec
	confirmationDuration *prometheus.HistogramVec
	confirmationPolls    *prometheus.HistogramVec

	// Drain Metrics
	drainFeeLamports *prometheus.HistogramVec
	drainsRejected   *prometheus.CounterVec

	// Workflow Metrics
	workflowDuration *prometheus.HistogramVec

	// NATS Metrics
	natsMessagesPublished *prometheus.CounterVec
	natsPublishDuration   *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		// Solana RPC Metrics
		solanaRPCCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solana_rpc_calls_total",
				Help: "Total number of Solana RPC calls by method and status",
			},
			[]string{"method", "status", "endpoint"},
		),
		solanaRPCCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "solana_rpc_call_duration_seconds",
				Help:    "Duration of Solana RPC calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"method", "endpoint"},
		),

		// Submission Metrics
		submissionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transaction_submissions_total",
				Help: "Total number of transaction submissions by kind and outcome",
			},
			[]string{"kind", "status"},
		),
		confirmationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "transaction_confirmation_duration_seconds",
				Help:    "Time from send until the target commitment was observed",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
			},
			[]string{"commitment"},
		),
		confirmationPolls: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "transaction_confirmation_polls",
				Help:    "Number of signature status polls per confirmation",
				Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
			},
			[]string{"commitment"},
		),

		// Drain Metrics
		drainFeeLamports: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "drain_fee_lamports",
				Help:    "Network fee quoted for drain transfers",
				Buckets: []float64{5000, 10000, 25000, 50000, 100000, 500000},
			},
			[]string{"cluster"},
		),
		drainsRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "drains_rejected_total",
				Help: "Drains aborted before submission",
			},
			[]string{"reason"},
		),

		// Workflow Metrics
		workflowDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "workflow_duration_seconds",
				Help:    "Duration of a full build-sign-submit-confirm run",
				Buckets: []float64{1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"kind", "status"},
		),

		// NATS Metrics
		natsMessagesPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nats_messages_published_total",
				Help: "Total number of NATS messages published",
			},
			[]string{"subject", "status"},
		),
		natsPublishDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nats_publish_duration_seconds",
				Help:    "Duration of NATS publish operations in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
			[]string{"subject"},
		),
	}
}

// Solana RPC metric helpers

// RecordRPCCall records a Solana RPC call with duration.
func (m *Metrics) RecordRPCCall(method, status, endpoint string, duration float64) {
	m.solanaRPCCallsTotal.WithLabelValues(method, status, endpoint).Inc()
	m.solanaRPCCallDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// Submission metric helpers

// RecordSubmission records the outcome of a submitted transaction.
func (m *Metrics) RecordSubmission(kind string, err error) {
	m.submissionsTotal.WithLabelValues(kind, statusOf(err)).Inc()
}

// RecordConfirmation records how long and how many polls a confirmation took.
func (m *Metrics) RecordConfirmation(commitment string, polls int, duration float64) {
	m.confirmationDuration.WithLabelValues(commitment).Observe(duration)
	m.confirmationPolls.WithLabelValues(commitment).Observe(float64(polls))
}

// Drain metric helpers

// RecordDrainFee records the fee quoted for a drain.
func (m *Metrics) RecordDrainFee(cluster string, fee uint64) {
	m.drainFeeLamports.WithLabelValues(cluster).Observe(float64(fee))
}

// RecordDrainRejected records a drain that was aborted before submission.
func (m *Metrics) RecordDrainRejected(reason string) {
	m.drainsRejected.WithLabelValues(reason).Inc()
}

// Workflow metric helpers

// RecordWorkflowDuration records the duration of a full run.
func (m *Metrics) RecordWorkflowDuration(kind string, err error, duration float64) {
	m.workflowDuration.WithLabelValues(kind, statusOf(err)).Observe(duration)
}

// NATS metric helpers

// RecordNATSPublish records a NATS publish operation.
func (m *Metrics) RecordNATSPublish(subject, status string, duration float64) {
	m.natsMessagesPublished.WithLabelValues(subject, status).Inc()
	m.natsPublishDuration.WithLabelValues(subject).Observe(duration)
}

// Push sends everything gathered by g to a Prometheus Pushgateway. Short
// CLI runs exit before a scrape could happen, so they push instead.
func Push(ctx context.Context, gatewayURL, job string, g prometheus.Gatherer) error {
	if err := push.New(gatewayURL, job).Gatherer(g).PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", gatewayURL, err)
	}
	return nil
}

// Helper functions

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
