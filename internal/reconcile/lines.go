package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/orderbridge/reconciler/internal/metrics"
	"github.com/orderbridge/reconciler/internal/money"
	"github.com/orderbridge/reconciler/internal/store"
	"github.com/orderbridge/reconciler/internal/stripeapi"
)

// eventLine is the flow-independent shape of one incoming line item.
// AmountMinor is the line total in minor currency units.
type eventLine struct {
	ProductRef  string
	Description string
	Quantity    int64
	AmountMinor int64
}

// linesFromSession extracts event lines from an expanded checkout
// session. Checkout line items carry their total in amount_total.
func linesFromSession(sess *stripeapi.CheckoutSession) []eventLine {
	if sess.LineItems == nil {
		return nil
	}
	lines := make([]eventLine, 0, len(sess.LineItems.Data))
	for _, li := range sess.LineItems.Data {
		lines = append(lines, eventLine{
			ProductRef:  productRef(li.Price),
			Description: li.Description,
			Quantity:    li.Quantity,
			AmountMinor: li.AmountTotal,
		})
	}
	return lines
}

// linesFromInvoice extracts event lines from an invoice. Invoice lines
// carry their total in amount.
func linesFromInvoice(inv *stripeapi.Invoice) []eventLine {
	lines := make([]eventLine, 0, len(inv.Lines.Data))
	for _, li := range inv.Lines.Data {
		lines = append(lines, eventLine{
			ProductRef:  productRef(li.Price),
			Description: li.Description,
			Quantity:    li.Quantity,
			AmountMinor: li.Amount,
		})
	}
	return lines
}

func productRef(p *stripeapi.Price) string {
	if p == nil {
		return ""
	}
	return p.Product
}

// mapLines resolves each incoming line against the catalog. Lookup
// errors other than a miss abort the whole mapping so a flaky catalog
// turns into a retryable failure instead of a silently degraded order.
func (e *Engine) mapLines(ctx context.Context, lines []eventLine) ([]store.OrderLine, error) {
	out := make([]store.OrderLine, 0, len(lines))
	for _, li := range lines {
		mapped, err := e.mapLine(ctx, li)
		if err != nil {
			return nil, err
		}
		out = append(out, mapped)
	}
	return out, nil
}

// mapLine maps one event line to an order line. The external product ref
// is tried as an assigned Stripe product ID first, then as a SKU. When
// neither matches, or the line has no product ref at all, the line is
// preserved as a freeform line carrying the event's own description and
// amount so no revenue is dropped.
func (e *Engine) mapLine(ctx context.Context, li eventLine) (store.OrderLine, error) {
	if li.ProductRef != "" {
		p, err := e.catalog.FindByStripeProductID(ctx, li.ProductRef)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return store.OrderLine{}, fmt.Errorf("looking up product %q: %w", li.ProductRef, err)
		}
		if err != nil {
			p, err = e.catalog.FindBySKU(ctx, li.ProductRef)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return store.OrderLine{}, fmt.Errorf("looking up product %q by sku: %w", li.ProductRef, err)
			}
		}
		if p != nil {
			return store.OrderLine{
				Kind:      store.LineKindProduct,
				ProductID: p.ID,
				Name:      p.Name,
				Quantity:  li.Quantity,
			}, nil
		}
	}

	metrics.UnmappedProductsTotal.Inc()
	e.logger.Warn("no catalog product for line item, keeping freeform",
		slog.String("product_ref", li.ProductRef),
		slog.String("description", li.Description),
	)
	return store.OrderLine{
		Kind:     store.LineKindFreeform,
		Name:     li.Description,
		Quantity: li.Quantity,
		Amount:   money.FromMinorUnits(li.AmountMinor),
	}, nil
}
