package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Order workflow metrics
	OrderTransitions        *prometheus.CounterVec
	OrderTransitionRejected *prometheus.CounterVec
	CheckoutOrdersCreated   prometheus.Counter
	CheckoutFailures        prometheus.Counter

	// Delivery workflow metrics
	DeliveryAssignments    *prometheus.CounterVec
	DeliveryAcceptConflict prometheus.Counter

	// Payment metrics
	PaymentsProcessed *prometheus.CounterVec
	PaymentLatency    prometheus.Histogram

	// Outbox related metrics
	OutboxEventsProcessed   prometheus.Counter
	OutboxEventsFailed      prometheus.Counter
	OutboxProcessingLatency prometheus.Histogram
	OutboxRetries           *prometheus.CounterVec

	// Database metrics
	DatabaseOperations *prometheus.CounterVec
	DatabaseLatency    *prometheus.HistogramVec
}

// New creates and registers all application metrics
func New(namespace string) *Metrics {
	return &Metrics{
		OrderTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_transitions_total",
			Help:      "Total number of order status transitions",
		}, []string{"from", "to"}),
		OrderTransitionRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_transitions_rejected_total",
			Help:      "Total number of rejected order status transitions",
		}, []string{"from", "to"}),
		CheckoutOrdersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_orders_created_total",
			Help:      "Total number of orders created through checkout",
		}),
		CheckoutFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_failures_total",
			Help:      "Total number of failed checkout attempts",
		}),
		DeliveryAssignments: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_assignments_total",
			Help:      "Total number of delivery assignments",
		}, []string{"source"}),
		DeliveryAcceptConflict: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_accept_conflicts_total",
			Help:      "Total number of lost courier accept races",
		}),
		PaymentsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_processed_total",
			Help:      "Total number of processed payments",
		}, []string{"method", "status"}),
		PaymentLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "payment_duration_seconds",
			Help:      "Time spent processing payments",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),
		OutboxEventsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_processed_total",
			Help:      "Total number of successfully processed outbox events",
		}),
		OutboxEventsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_failed_total",
			Help:      "Total number of failed outbox events",
		}),
		OutboxProcessingLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "outbox_processing_duration_seconds",
			Help:      "Time spent processing outbox events",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		OutboxRetries: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_retry_attempts_total",
			Help:      "Total number of retry attempts for outbox events",
		}, []string{"event_type"}),
		DatabaseOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),
		DatabaseLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "database_operation_duration_seconds",
			Help:      "Duration of database operations",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
	}
}
