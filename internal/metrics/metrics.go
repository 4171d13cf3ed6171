// Package metrics exposes the gateway's Prometheus instrumentation
// (spec §5, §9): counters for each invariant/validation/throttling
// failure mode named in the error taxonomy, and a delivery-latency
// histogram for the Callback Dispatcher.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	InvariantViolations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nexus",
		Name:      "invariant_violations_total",
		Help:      "Count of numeric kernel invariant violations by invariant id.",
	}, []string{"invariant"})

	SchemaValidationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nexus",
		Name:      "schema_validation_failures_total",
		Help:      "Count of inbound documents that failed XSD validation, by message type.",
	}, []string{"message_type"})

	CallbackDeliveryFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nexus",
		Name:      "callback_delivery_failures_total",
		Help:      "Count of callback deliveries that exhausted all retries.",
	})

	CallbackDeliveryLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "nexus",
		Name:      "callback_delivery_latency_seconds",
		Help:      "Time from schedule to final delivery outcome (success or exhaustion).",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
	})

	RateLimitExceeded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nexus",
		Name:      "rate_limit_exceeded_total",
		Help:      "Count of requests rejected by the Ingress Guard, by route.",
	}, []string{"route"})

	PaymentsByStatus = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nexus",
		Name:      "payments_total",
		Help:      "Count of payments reaching each terminal/non-terminal status.",
	}, []string{"status"})
)
