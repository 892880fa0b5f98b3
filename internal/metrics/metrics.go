// Package metrics defines the Prometheus instrumentation for webhook
// ingestion and order reconciliation.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// WebhookEventsTotal counts webhook events received, by event type.
	// Unrecognized types are counted too; they are acknowledged, not errors.
	WebhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Total number of webhook events received, by event type",
		},
		[]string{"type"},
	)

	// WebhookEventsMalformedTotal counts deliveries whose body failed to parse.
	WebhookEventsMalformedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_events_malformed_total",
			Help: "Total number of webhook deliveries with an unparseable body",
		},
	)

	// WebhookEventsUnhandledTotal counts events of a type the reconciler
	// does not understand.
	WebhookEventsUnhandledTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_events_unhandled_total",
			Help: "Total number of webhook events of an unrecognized type",
		},
	)

	// ReconcileFailuresTotal counts reconciliation flows that failed on a
	// collaborator error, by flow.
	ReconcileFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_failures_total",
			Help: "Total number of failed reconciliation attempts, by flow",
		},
		[]string{"flow"},
	)

	// OrdersReconciledTotal counts successfully reconciled orders, by flow
	// and whether the order was newly created or refreshed.
	OrdersReconciledTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_reconciled_total",
			Help: "Total number of orders reconciled from webhook events",
		},
		[]string{"flow", "created"},
	)

	// UnmappedProductsTotal counts line items that fell back to a freeform
	// line because no catalog product matched.
	UnmappedProductsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "unmapped_products_total",
			Help: "Total number of line items with no matching catalog product",
		},
	)
)

// Register registers all Prometheus metrics.
func Register() {
	prometheus.MustRegister(WebhookEventsTotal)
	prometheus.MustRegister(WebhookEventsMalformedTotal)
	prometheus.MustRegister(WebhookEventsUnhandledTotal)
	prometheus.MustRegister(ReconcileFailuresTotal)
	prometheus.MustRegister(OrdersReconciledTotal)
	prometheus.MustRegister(UnmappedProductsTotal)
}
