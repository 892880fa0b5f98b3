package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PG implements Catalog and Orders on PostgreSQL. Idempotency relies on a
// partial unique index on orders.stripe_invoice_id (non-empty values
// only); see the migrations.
type PG struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPG creates a PostgreSQL-backed store.
func NewPG(pool *pgxpool.Pool, logger *slog.Logger) *PG {
	if logger == nil {
		logger = slog.Default()
	}
	return &PG{pool: pool, logger: logger}
}

const productColumns = "id, name, sku, stripe_product_id"

func (s *PG) FindByStripeProductID(ctx context.Context, stripeProductID string) (*Product, error) {
	return s.findProduct(ctx,
		"SELECT "+productColumns+" FROM products WHERE stripe_product_id = $1 AND stripe_product_id <> '' LIMIT 1",
		stripeProductID)
}

func (s *PG) FindBySKU(ctx context.Context, sku string) (*Product, error) {
	return s.findProduct(ctx,
		"SELECT "+productColumns+" FROM products WHERE sku = $1 AND sku <> '' LIMIT 1",
		sku)
}

func (s *PG) findProduct(ctx context.Context, query, arg string) (*Product, error) {
	var p Product
	err := s.pool.QueryRow(ctx, query, arg).Scan(&p.ID, &p.Name, &p.SKU, &p.StripeProductID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("finding product %q: %w", arg, err)
	}
	return &p, nil
}

// FindOrCreateByInvoiceRef inserts a fresh order and relies on the
// partial unique index to detect a concurrent or earlier insert for the
// same ref: on conflict nothing is inserted and the existing row is
// re-fetched instead of surfacing the violation.
func (s *PG) FindOrCreateByInvoiceRef(ctx context.Context, invoiceRef string) (*Order, bool, error) {
	o := NewOrder(invoiceRef)

	if invoiceRef == "" {
		// No dedup key; always a fresh order.
		if err := s.insert(ctx, o); err != nil {
			return nil, false, err
		}
		return o, true, nil
	}

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO orders (id, status, total, currency, payment_method, payment_method_title,
		                    customer_id, billing_email, billing_name, billing_address,
		                    shipping_name, shipping_address, lines, taxes, notes,
		                    stripe_invoice_id, created_at, updated_at)
		VALUES ($1, $2, 0, '', '', '', '', '', '{}', '{}', '{}', '{}', '[]', '[]', '[]', $3, $4, $4)
		ON CONFLICT (stripe_invoice_id) WHERE stripe_invoice_id <> '' DO NOTHING`,
		o.ID, o.Status, invoiceRef, o.CreatedAt,
	)
	if err != nil {
		return nil, false, fmt.Errorf("creating order for invoice %q: %w", invoiceRef, err)
	}

	if tag.RowsAffected() == 1 {
		return o, true, nil
	}

	existing, err := s.GetByInvoiceRef(ctx, invoiceRef)
	if err != nil {
		return nil, false, fmt.Errorf("re-fetching order for invoice %q: %w", invoiceRef, err)
	}
	return existing, false, nil
}

func (s *PG) insert(ctx context.Context, o *Order) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO orders (id, status, total, currency, payment_method, payment_method_title,
		                    customer_id, billing_email, billing_name, billing_address,
		                    shipping_name, shipping_address, lines, taxes, notes,
		                    stripe_invoice_id, created_at, updated_at)
		VALUES ($1, $2, 0, '', '', '', '', '', '{}', '{}', '{}', '{}', '[]', '[]', '[]', $3, $4, $4)`,
		o.ID, o.Status, o.StripeInvoiceID, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting order %s: %w", o.ID, err)
	}
	return nil
}

const orderColumns = `id, status, total::text, currency, payment_method, payment_method_title,
       customer_id, billing_email, billing_name, billing_address,
       shipping_name, shipping_address, lines, taxes, notes,
       stripe_invoice_id, created_at, updated_at`

func (s *PG) GetByInvoiceRef(ctx context.Context, invoiceRef string) (*Order, error) {
	if invoiceRef == "" {
		return nil, ErrNotFound
	}
	row := s.pool.QueryRow(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE stripe_invoice_id = $1 LIMIT 1",
		invoiceRef)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting order for invoice %q: %w", invoiceRef, err)
	}
	return o, nil
}

func (s *PG) Save(ctx context.Context, o *Order) error {
	billingName, err := json.Marshal(o.BillingName)
	if err != nil {
		return fmt.Errorf("encoding billing name: %w", err)
	}
	billingAddr, err := json.Marshal(o.BillingAddress)
	if err != nil {
		return fmt.Errorf("encoding billing address: %w", err)
	}
	shippingName, err := json.Marshal(o.ShippingName)
	if err != nil {
		return fmt.Errorf("encoding shipping name: %w", err)
	}
	shippingAddr, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return fmt.Errorf("encoding shipping address: %w", err)
	}
	lines, err := json.Marshal(o.Lines)
	if err != nil {
		return fmt.Errorf("encoding lines: %w", err)
	}
	taxes, err := json.Marshal(o.Taxes)
	if err != nil {
		return fmt.Errorf("encoding taxes: %w", err)
	}
	notes, err := json.Marshal(o.Notes)
	if err != nil {
		return fmt.Errorf("encoding notes: %w", err)
	}

	o.UpdatedAt = time.Now().UTC()

	tag, err := s.pool.Exec(ctx, `
		UPDATE orders
		SET status = $2, total = $3, currency = $4,
		    payment_method = $5, payment_method_title = $6, customer_id = $7,
		    billing_email = $8, billing_name = $9, billing_address = $10,
		    shipping_name = $11, shipping_address = $12,
		    lines = $13, taxes = $14, notes = $15,
		    stripe_invoice_id = $16, updated_at = $17
		WHERE id = $1`,
		o.ID, o.Status, numericFromDecimal(o.Total), o.Currency,
		o.PaymentMethod, o.PaymentMethodTitle, o.CustomerID,
		o.BillingEmail, billingName, billingAddr,
		shippingName, shippingAddr,
		lines, taxes, notes,
		o.StripeInvoiceID, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving order %s: %w", o.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendNote appends server-side so that concurrent redeliveries touching
// the same order cannot overwrite each other's notes.
func (s *PG) AppendNote(ctx context.Context, o *Order, note string) error {
	element, err := json.Marshal([]string{note})
	if err != nil {
		return fmt.Errorf("encoding note: %w", err)
	}

	tag, err := s.pool.Exec(ctx,
		"UPDATE orders SET notes = notes || $2::jsonb, updated_at = $3 WHERE id = $1",
		o.ID, element, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("appending note to order %s: %w", o.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	o.Notes = append(o.Notes, note)
	return nil
}

// scanOrder reads one order row. Numeric totals travel as text to avoid
// lossy float conversions.
func scanOrder(row pgx.Row) (*Order, error) {
	var (
		o            Order
		total        string
		billingName  []byte
		billingAddr  []byte
		shippingName []byte
		shippingAddr []byte
		lines        []byte
		taxes        []byte
		notes        []byte
	)
	if err := row.Scan(
		&o.ID, &o.Status, &total, &o.Currency, &o.PaymentMethod, &o.PaymentMethodTitle,
		&o.CustomerID, &o.BillingEmail, &billingName, &billingAddr,
		&shippingName, &shippingAddr, &lines, &taxes, &notes,
		&o.StripeInvoiceID, &o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	o.Total, err = decimal.NewFromString(total)
	if err != nil {
		return nil, fmt.Errorf("parsing order total %q: %w", total, err)
	}
	if err := json.Unmarshal(billingName, &o.BillingName); err != nil {
		return nil, fmt.Errorf("decoding billing name: %w", err)
	}
	if err := json.Unmarshal(billingAddr, &o.BillingAddress); err != nil {
		return nil, fmt.Errorf("decoding billing address: %w", err)
	}
	if err := json.Unmarshal(shippingName, &o.ShippingName); err != nil {
		return nil, fmt.Errorf("decoding shipping name: %w", err)
	}
	if err := json.Unmarshal(shippingAddr, &o.ShippingAddress); err != nil {
		return nil, fmt.Errorf("decoding shipping address: %w", err)
	}
	if err := json.Unmarshal(lines, &o.Lines); err != nil {
		return nil, fmt.Errorf("decoding lines: %w", err)
	}
	if err := json.Unmarshal(taxes, &o.Taxes); err != nil {
		return nil, fmt.Errorf("decoding taxes: %w", err)
	}
	if err := json.Unmarshal(notes, &o.Notes); err != nil {
		return nil, fmt.Errorf("decoding notes: %w", err)
	}
	return &o, nil
}

// numericFromDecimal converts a decimal amount to pgtype.Numeric for a
// numeric column parameter.
func numericFromDecimal(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
