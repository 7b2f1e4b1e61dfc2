package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PaymentsObserved tracks every event read from the payment stream.
	PaymentsObserved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "forwarder_payments_observed_total",
			Help: "Total number of payment stream events observed",
		},
	)

	// PaymentsQualified tracks events that passed the qualifying filter.
	PaymentsQualified = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "forwarder_payments_qualified_total",
			Help: "Total number of events that qualified for forwarding",
		},
	)

	// ForwardsSucceeded tracks forward invocations that ended in success.
	ForwardsSucceeded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "forwarder_forwards_succeeded_total",
			Help: "Total number of successfully forwarded payments",
		},
	)

	// ForwardsFailed tracks permanently failed forward invocations by reason.
	ForwardsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forwarder_forwards_failed_total",
			Help: "Total number of permanently failed forwards",
		},
		[]string{"reason"},
	)

	// SubmissionAttempts tracks individual submission attempts by result.
	SubmissionAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forwarder_submission_attempts_total",
			Help: "Total number of transaction submission attempts",
		},
		[]string{"result"},
	)

	// FeePerOperation tracks the fee offered on the most recent submission.
	FeePerOperation = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "forwarder_fee_per_operation_stroops",
			Help: "Fee per operation offered on the most recent submission",
		},
	)

	// StreamReconnects tracks payment stream reconnections.
	StreamReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "forwarder_stream_reconnects_total",
			Help: "Total number of payment stream reconnections",
		},
	)

	// CursorSaveFailures tracks failed cursor persistence attempts.
	CursorSaveFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "forwarder_cursor_save_failures_total",
			Help: "Total number of failed cursor saves",
		},
	)
)
