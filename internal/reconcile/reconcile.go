// Package reconcile turns Stripe checkout and invoice webhook events into
// exactly one local order per underlying purchase. The Stripe invoice ID
// is the idempotency key: redelivered or overlapping events for the same
// invoice converge on a single order whose fields reflect the latest
// event, with only the audit note list accumulating.
package reconcile

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/orderbridge/reconciler/internal/store"
	"github.com/orderbridge/reconciler/internal/stripeapi"
)

// Flow labels used in logs and metrics.
const (
	flowCheckout = "checkout"
	flowInvoice  = "invoice"
)

// SessionRetriever fetches the fully expanded checkout session for a
// session ID. Implemented by stripeapi.Client.
type SessionRetriever interface {
	RetrieveSession(ctx context.Context, id string) (*stripeapi.CheckoutSession, error)
}

// Settings is the immutable configuration snapshot the engine works from.
type Settings struct {
	// DomesticCountry is exempt from the international surcharge and tax
	// clearing.
	DomesticCountry string

	// InternationalShippingCost is the surcharge in major currency units;
	// zero disables the surcharge line.
	InternationalShippingCost decimal.Decimal

	// TestMode raises diagnostic verbosity only.
	TestMode bool
}

// Engine is the event-to-order reconciliation engine.
type Engine struct {
	orders   store.Orders
	catalog  store.Catalog
	sessions SessionRetriever
	settings Settings
	logger   *slog.Logger
}

// NewEngine creates a reconciliation engine.
func NewEngine(orders store.Orders, catalog store.Catalog, sessions SessionRetriever, settings Settings, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		orders:   orders,
		catalog:  catalog,
		sessions: sessions,
		settings: settings,
		logger:   logger,
	}
}
