package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/orderbridge/reconciler/internal/money"
	"github.com/orderbridge/reconciler/internal/store"
)

// finalizeInput carries everything a flow extracted from its event. The
// finalizer is the single writer of order state for both flows.
type finalizeInput struct {
	Lines      []store.OrderLine
	TotalMinor int64
	Currency   string

	PaymentMethod      string
	PaymentMethodTitle string
	CustomerID         string

	Billing  profile
	Shipping profile

	InvoiceRef string
	Note       string
}

// finalize overwrites the order's reconciled state from the latest event,
// applies regional adjustments, records the audit note and persists. The
// note list is the only field that accumulates across redeliveries.
func (e *Engine) finalize(ctx context.Context, o *store.Order, in finalizeInput) error {
	o.Lines = in.Lines
	o.Total = money.FromMinorUnits(in.TotalMinor)
	o.Currency = money.NormalizeCurrency(in.Currency)

	o.PaymentMethod = in.PaymentMethod
	o.PaymentMethodTitle = in.PaymentMethodTitle
	o.CustomerID = in.CustomerID

	o.BillingName = in.Billing.Name
	o.BillingEmail = in.Billing.Email
	o.BillingAddress = in.Billing.Address
	o.ShippingName = in.Shipping.Name
	o.ShippingAddress = in.Shipping.Address

	// Surcharge and tax clearing depend on the shipping address, so they
	// run after the profile is applied.
	e.applyRegionalAdjustments(o)

	o.StripeInvoiceID = in.InvoiceRef
	o.Status = store.StatusProcessing

	if err := e.orders.AppendNote(ctx, o, in.Note); err != nil {
		return fmt.Errorf("recording order note: %w", err)
	}
	if err := e.orders.Save(ctx, o); err != nil {
		return fmt.Errorf("saving order: %w", err)
	}

	e.logger.Info("order reconciled",
		slog.String("order_id", o.ID.String()),
		slog.String("status", o.Status),
		slog.String("total", o.Total.StringFixed(2)),
		slog.String("currency", o.Currency),
	)
	return nil
}
