// Package store defines the order and product domain model and the
// persistence interfaces the reconciliation core depends on. Two
// implementations exist: PG (PostgreSQL via pgx) and Memory (for tests
// and local development).
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when an order or product does not exist.
var ErrNotFound = errors.New("not found")

// Order statuses. A reconciled order moves new -> processing on the first
// finalize and stays processing on every redelivery.
const (
	StatusNew        = "new"
	StatusProcessing = "processing"
)

// Order line kinds.
const (
	LineKindProduct  = "product"
	LineKindFreeform = "freeform"
	LineKindShipping = "shipping"
)

// Address is a postal address. All fields are optional; an absent address
// is the zero value.
type Address struct {
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// IsZero reports whether no address field is set.
func (a Address) IsZero() bool {
	return a == Address{}
}

// PersonName is a first/last name pair derived from a display name.
type PersonName struct {
	First string `json:"first,omitempty"`
	Last  string `json:"last,omitempty"`
}

// Product is a local catalog item. The catalog is read-only from the
// reconciler's perspective.
type Product struct {
	ID              uuid.UUID
	Name            string
	SKU             string
	StripeProductID string
}

// OrderLine is one resolved line on an order: a catalog product with a
// quantity, a freeform line carrying its own amount, or a shipping
// charge. Product lines are priced by the catalog, so Amount is only set
// on freeform and shipping lines.
type OrderLine struct {
	Kind      string          `json:"kind"`
	ProductID uuid.UUID       `json:"product_id,omitempty"`
	Name      string          `json:"name"`
	Quantity  int64           `json:"quantity"`
	Amount    decimal.Decimal `json:"amount"`
}

// TaxLine is a previously computed tax amount on an order.
type TaxLine struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// Order is the reconciliation target. For a given non-empty
// StripeInvoiceID at most one order exists; repeated reconciliation
// overwrites every field from the latest event except Notes, which only
// grows.
type Order struct {
	ID     uuid.UUID
	Status string

	Total    decimal.Decimal
	Currency string

	PaymentMethod      string
	PaymentMethodTitle string
	CustomerID         string

	BillingName    PersonName
	BillingEmail   string
	BillingAddress Address

	ShippingName    PersonName
	ShippingAddress Address

	Lines []OrderLine
	Taxes []TaxLine
	Notes []string

	// StripeInvoiceID is the idempotency key. Empty for orders created
	// from checkout sessions without an invoice; those cannot be
	// deduplicated on redelivery.
	StripeInvoiceID string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewOrder returns an empty order in status new carrying the given
// invoice ref.
func NewOrder(invoiceRef string) *Order {
	now := time.Now().UTC()
	return &Order{
		ID:              uuid.New(),
		Status:          StatusNew,
		Total:           decimal.Zero,
		StripeInvoiceID: invoiceRef,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Catalog resolves external product references to local catalog items.
type Catalog interface {
	// FindByStripeProductID returns the product assigned the given Stripe
	// product ID, or ErrNotFound.
	FindByStripeProductID(ctx context.Context, stripeProductID string) (*Product, error)

	// FindBySKU returns the product whose stock-keeping code matches, or
	// ErrNotFound.
	FindBySKU(ctx context.Context, sku string) (*Product, error)
}

// Orders persists reconciled orders.
type Orders interface {
	// FindOrCreateByInvoiceRef atomically returns the order carrying the
	// given Stripe invoice ref, creating an empty one when none exists.
	// The created flag reports which happened. Two concurrent calls for
	// the same never-seen ref yield the same order. An empty ref always
	// creates a fresh order.
	FindOrCreateByInvoiceRef(ctx context.Context, invoiceRef string) (o *Order, created bool, err error)

	// GetByInvoiceRef returns the order carrying the given non-empty
	// invoice ref, or ErrNotFound.
	GetByInvoiceRef(ctx context.Context, invoiceRef string) (*Order, error)

	// Save durably persists the full order record.
	Save(ctx context.Context, o *Order) error

	// AppendNote appends an audit note to the order's note list and
	// persists it.
	AppendNote(ctx context.Context, o *Order, note string) error
}
