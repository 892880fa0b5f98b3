package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/orderbridge/reconciler/internal/store"
)

// resolveOrder finds the order carrying the given invoice ref or creates
// an empty one, atomically. An empty ref cannot be deduplicated; the
// resulting order is always new, which is logged because a redelivery of
// the same event would then produce a duplicate.
func (e *Engine) resolveOrder(ctx context.Context, invoiceRef string) (*store.Order, bool, error) {
	if invoiceRef == "" {
		e.logger.Warn("event without an invoice reference, order cannot be deduplicated")
	}

	order, created, err := e.orders.FindOrCreateByInvoiceRef(ctx, invoiceRef)
	if err != nil {
		return nil, false, fmt.Errorf("resolving order for invoice %q: %w", invoiceRef, err)
	}

	if created {
		e.logger.Info("order created",
			slog.String("order_id", order.ID.String()),
			slog.String("invoice", invoiceRef),
		)
	} else {
		e.logger.Info("existing order matched",
			slog.String("order_id", order.ID.String()),
			slog.String("invoice", invoiceRef),
		)
	}
	return order, created, nil
}
