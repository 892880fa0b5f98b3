// Package api contains the HTTP handlers for the public API surface.
package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/orderbridge/reconciler/internal/reconcile"
)

// maxWebhookBody caps how much of a webhook delivery is read. Stripe
// events are small; anything larger is not a legitimate delivery.
const maxWebhookBody = 65536

// Dispatcher routes a parsed webhook delivery to the reconciliation
// flows. Implemented by reconcile.Engine.
type Dispatcher interface {
	Dispatch(ctx context.Context, body []byte) reconcile.Result
}

// Verifier checks a webhook payload against its Stripe-Signature header.
// Implemented by stripeapi.Client.
type Verifier interface {
	VerifyWebhookSignature(payload []byte, sigHeader, secret string) error
}

// WebhookHandler handles incoming Stripe webhook events.
type WebhookHandler struct {
	dispatcher Dispatcher
	verifier   Verifier
	logger     *slog.Logger
	secret     string // webhook signing secret, empty disables verification
}

// NewWebhookHandler creates a new Stripe webhook handler. An empty
// webhookSecret disables signature verification; run that way only
// behind a trusted proxy that does its own authentication.
func NewWebhookHandler(dispatcher Dispatcher, verifier Verifier, logger *slog.Logger, webhookSecret string) *WebhookHandler {
	if webhookSecret == "" {
		logger.Warn("webhook signature verification disabled, set STRIPE_WEBHOOK_SECRET to enable")
	}
	return &WebhookHandler{
		dispatcher: dispatcher,
		verifier:   verifier,
		logger:     logger,
		secret:     webhookSecret,
	}
}

// RegisterRoutes registers the webhook endpoint.
func (h *WebhookHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/webhooks/stripe", h.HandleStripeWebhook)
}

// HandleStripeWebhook handles POST /api/v1/webhooks/stripe.
// It verifies the Stripe signature when a secret is configured, then
// hands the raw body to the reconciliation dispatcher and relays its
// verdict.
func (h *WebhookHandler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	// Signature verification needs the raw body, so read before parsing.
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.logger.Error("failed to read webhook body", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if h.secret != "" {
		sigHeader := r.Header.Get("Stripe-Signature")
		if err := h.verifier.VerifyWebhookSignature(body, sigHeader, h.secret); err != nil {
			h.logger.Warn("webhook signature verification failed", "error", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
	}

	res := h.dispatcher.Dispatch(r.Context(), body)
	w.WriteHeader(res.Status)
	if _, err := io.WriteString(w, res.Body); err != nil {
		h.logger.Error("failed to write webhook response", "error", err)
	}
}
