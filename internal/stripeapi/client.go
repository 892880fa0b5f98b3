// Package stripeapi wraps the Stripe Go SDK for the two calls the
// reconciler makes: retrieving an expanded checkout session and verifying
// webhook signatures. Webhook payloads themselves are parsed with the
// strict types in this package rather than the SDK's loose ones.
package stripeapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// Client is the provider-retrieval collaborator. It is an opaque network
// dependency; timeouts and retries are the SDK's concern.
type Client struct {
	backend stripe.Backend
	key     string
	logger  *slog.Logger
}

// NewClient creates a Stripe client using the given secret key.
func NewClient(secretKey string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		backend: stripe.GetBackend(stripe.APIBackend),
		key:     secretKey,
		logger:  logger,
	}
}

// RetrieveSession fetches the fully expanded checkout session, including
// its line items, from the Stripe API. The webhook delivery only carries
// a slim session object, so the checkout flow always re-fetches.
func (c *Client) RetrieveSession(ctx context.Context, id string) (*CheckoutSession, error) {
	if id == "" {
		return nil, fmt.Errorf("retrieving checkout session: empty session id")
	}

	params := &stripe.Params{Context: ctx}
	params.AddExpand("line_items")

	sess := &CheckoutSession{}
	if err := c.backend.Call(http.MethodGet, "/v1/checkout/sessions/"+id, c.key, params, sess); err != nil {
		return nil, fmt.Errorf("retrieving checkout session %s: %w", id, err)
	}

	c.logger.Debug("checkout session retrieved",
		slog.String("session_id", sess.ID),
		slog.String("invoice", sess.Invoice),
	)
	return sess, nil
}

// VerifyWebhookSignature validates a webhook payload against the
// Stripe-Signature header using the endpoint signing secret. It enforces
// the SDK's default replay tolerance. API version mismatches are ignored:
// payloads are deserialized by this package's own strict types, not the
// SDK's, so the SDK's pinned api_version is irrelevant here.
func (c *Client) VerifyWebhookSignature(payload []byte, sigHeader, secret string) error {
	_, err := webhook.ConstructEventWithOptions(payload, sigHeader, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return fmt.Errorf("verifying webhook signature: %w", err)
	}
	return nil
}
