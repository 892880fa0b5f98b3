package stripeapi

import (
	"encoding/json"

	stripe "github.com/stripe/stripe-go/v82"
)

// Event types the reconciler understands. Everything else is acknowledged
// and recorded, never rejected.
const (
	EventCheckoutSessionCompleted = "checkout.session.completed"
	EventInvoicePaid              = "invoice.paid"
)

// Envelope is the provider event wrapper:
//
//	{"type": "...", "data": {"object": {...}}}
//
// The nested object is left raw so each event kind gets its own strict
// parse instead of ad hoc field probing.
type Envelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// Address mirrors the Stripe address object. Absent fields stay empty.
type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// CustomerDetails carries the billing identity collected at checkout.
type CustomerDetails struct {
	Name    string   `json:"name"`
	Email   string   `json:"email"`
	Address *Address `json:"address"`
}

// ShippingDetails carries an explicit ship-to block on a session or
// invoice. A nil ShippingDetails means "ship to the billing address".
type ShippingDetails struct {
	Name    string   `json:"name"`
	Address *Address `json:"address"`
}

// Price identifies the Stripe product a line was sold under.
type Price struct {
	ID      string `json:"id"`
	Product string `json:"product"`
}

// LineItem is a checkout session line item or an invoice line. The two
// shapes differ only in which amount field is populated: checkout line
// items carry amount_total, invoice lines carry amount. Both are in
// minor currency units.
type LineItem struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Quantity    int64  `json:"quantity"`
	Amount      int64  `json:"amount"`
	AmountTotal int64  `json:"amount_total"`
	Price       *Price `json:"price"`
}

// LineItemList is Stripe's list wrapper.
type LineItemList struct {
	Data []LineItem `json:"data"`
}

// CheckoutSession is the subset of a Stripe Checkout Session the
// reconciler reads. It embeds stripe.APIResource so the same struct can
// be fetched directly through the stripe-go backend when the webhook
// payload's slim session needs expanding.
type CheckoutSession struct {
	stripe.APIResource
	ID              string           `json:"id"`
	Invoice         string           `json:"invoice"`
	AmountTotal     int64            `json:"amount_total"`
	Currency        string           `json:"currency"`
	Customer        string           `json:"customer"`
	CustomerDetails *CustomerDetails `json:"customer_details"`
	ShippingDetails *ShippingDetails `json:"shipping_details"`
	LineItems       *LineItemList    `json:"line_items"`
}

// Invoice is the subset of a Stripe invoice the reconciler reads. Invoice
// payloads arrive complete on the webhook, so no retrieval round trip is
// needed.
type Invoice struct {
	ID               string           `json:"id"`
	BillingReason    string           `json:"billing_reason"`
	AmountPaid       int64            `json:"amount_paid"`
	Currency         string           `json:"currency"`
	Customer         string           `json:"customer"`
	CustomerName     string           `json:"customer_name"`
	CustomerEmail    string           `json:"customer_email"`
	CustomerAddress  *Address         `json:"customer_address"`
	CustomerShipping *ShippingDetails `json:"customer_shipping"`
	Lines            LineItemList     `json:"lines"`
}

// BillingReasonSubscriptionCycle marks an invoice generated by a
// recurring subscription renewal.
const BillingReasonSubscriptionCycle = "subscription_cycle"
