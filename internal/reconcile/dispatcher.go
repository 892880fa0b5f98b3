package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/orderbridge/reconciler/internal/metrics"
	"github.com/orderbridge/reconciler/internal/stripeapi"
)

// Result is the outcome of dispatching one webhook delivery, expressed as
// an HTTP status and response body for the transport shell to write.
type Result struct {
	Status int
	Body   string
}

// Dispatch parses a raw webhook body, classifies the event and routes it
// to the matching reconciliation flow.
//
// Unparseable bodies produce a 400 without any reconciliation attempt.
// Unrecognized event types are acknowledged with a 200 so the provider
// does not retry-loop on events we do not understand. Flow failures are
// converted to a 500 carrying a diagnostic message; the provider's
// redelivery is the retry mechanism, and the idempotency key makes that
// redelivery safe.
func (e *Engine) Dispatch(ctx context.Context, body []byte) Result {
	var env stripeapi.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		metrics.WebhookEventsMalformedTotal.Inc()
		e.logger.Error("invalid webhook payload", "error", err)
		return Result{Status: http.StatusBadRequest, Body: "invalid JSON payload"}
	}

	metrics.WebhookEventsTotal.WithLabelValues(env.Type).Inc()
	if e.settings.TestMode {
		e.logger.Debug("webhook received in test mode",
			slog.String("event_id", env.ID),
			slog.String("event_type", env.Type),
		)
	}

	switch env.Type {
	case stripeapi.EventCheckoutSessionCompleted:
		var sess stripeapi.CheckoutSession
		if err := json.Unmarshal(env.Data.Object, &sess); err != nil {
			metrics.WebhookEventsMalformedTotal.Inc()
			e.logger.Error("malformed checkout session object", "error", err, "event_id", env.ID)
			return Result{Status: http.StatusBadRequest, Body: "invalid checkout session payload"}
		}
		if err := e.handleCheckoutSessionCompleted(ctx, &sess); err != nil {
			metrics.ReconcileFailuresTotal.WithLabelValues(flowCheckout).Inc()
			// Log the payload so a failed delivery can be replayed by hand.
			e.logger.Error("checkout session reconciliation failed",
				"error", err,
				slog.String("session_id", sess.ID),
				slog.String("payload", string(body)),
			)
			return Result{Status: http.StatusInternalServerError, Body: "failed to process order: " + err.Error()}
		}
		return Result{Status: http.StatusOK, Body: "order processed successfully"}

	case stripeapi.EventInvoicePaid:
		var inv stripeapi.Invoice
		if err := json.Unmarshal(env.Data.Object, &inv); err != nil {
			metrics.WebhookEventsMalformedTotal.Inc()
			e.logger.Error("malformed invoice object", "error", err, "event_id", env.ID)
			return Result{Status: http.StatusBadRequest, Body: "invalid invoice payload"}
		}
		if err := e.handleInvoicePaid(ctx, &inv); err != nil {
			metrics.ReconcileFailuresTotal.WithLabelValues(flowInvoice).Inc()
			e.logger.Error("invoice reconciliation failed",
				"error", err,
				slog.String("invoice_id", inv.ID),
				slog.String("payload", string(body)),
			)
			return Result{Status: http.StatusInternalServerError, Body: "failed to process order: " + err.Error()}
		}
		return Result{Status: http.StatusOK, Body: "order processed successfully"}

	default:
		metrics.WebhookEventsUnhandledTotal.Inc()
		e.logger.Info("unhandled event type", slog.String("event_type", env.Type))
		return Result{Status: http.StatusOK, Body: "webhook handled"}
	}
}

// handleCheckoutSessionCompleted reconciles a completed checkout into an
// order. The webhook delivery carries a slim session, so the full session
// with line items is retrieved from Stripe first; its invoice reference
// is the dedup key shared with any later invoice.paid delivery for the
// same purchase.
func (e *Engine) handleCheckoutSessionCompleted(ctx context.Context, sess *stripeapi.CheckoutSession) error {
	full, err := e.sessions.RetrieveSession(ctx, sess.ID)
	if err != nil {
		return err
	}

	order, created, err := e.resolveOrder(ctx, full.Invoice)
	if err != nil {
		return err
	}

	lines, err := e.mapLines(ctx, linesFromSession(full))
	if err != nil {
		return err
	}

	src := profileSource{Shipping: full.ShippingDetails}
	if cd := full.CustomerDetails; cd != nil {
		src.BillingName = cd.Name
		src.BillingEmail = cd.Email
		src.BillingAddr = cd.Address
	}
	billing, shipping := buildProfile(src)

	if err := e.finalize(ctx, order, finalizeInput{
		Lines:              lines,
		TotalMinor:         full.AmountTotal,
		Currency:           full.Currency,
		PaymentMethod:      "stripe",
		PaymentMethodTitle: "Stripe",
		CustomerID:         full.Customer,
		Billing:            billing,
		Shipping:           shipping,
		InvoiceRef:         full.Invoice,
		Note:               "Order updated from Stripe Checkout Session " + full.ID,
	}); err != nil {
		return err
	}

	metrics.OrdersReconciledTotal.WithLabelValues(flowCheckout, strconv.FormatBool(created)).Inc()
	return nil
}

// handleInvoicePaid reconciles a paid invoice into an order. Invoice
// payloads arrive complete, so no retrieval round trip is needed; the
// invoice's own ID is the dedup key.
func (e *Engine) handleInvoicePaid(ctx context.Context, inv *stripeapi.Invoice) error {
	if inv.ID == "" {
		return fmt.Errorf("invoice event without an id")
	}

	order, created, err := e.resolveOrder(ctx, inv.ID)
	if err != nil {
		return err
	}

	lines, err := e.mapLines(ctx, linesFromInvoice(inv))
	if err != nil {
		return err
	}

	billing, shipping := buildProfile(profileSource{
		BillingName:  inv.CustomerName,
		BillingEmail: inv.CustomerEmail,
		BillingAddr:  inv.CustomerAddress,
		Shipping:     inv.CustomerShipping,
	})

	note := "Order updated from Stripe invoice " + inv.ID
	if inv.BillingReason == stripeapi.BillingReasonSubscriptionCycle {
		note = "Subscription renewal order updated from Stripe invoice " + inv.ID
	}

	if err := e.finalize(ctx, order, finalizeInput{
		Lines:              lines,
		TotalMinor:         inv.AmountPaid,
		Currency:           inv.Currency,
		PaymentMethod:      "stripe",
		PaymentMethodTitle: "Stripe",
		CustomerID:         inv.Customer,
		Billing:            billing,
		Shipping:           shipping,
		InvoiceRef:         inv.ID,
		Note:               note,
	}); err != nil {
		return err
	}

	metrics.OrdersReconciledTotal.WithLabelValues(flowInvoice, strconv.FormatBool(created)).Inc()
	return nil
}
