package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/orderbridge/reconciler/internal/store"
)

// FixtureProduct inserts a catalog product and returns it.
func (tdb *TestDB) FixtureProduct(t *testing.T, name, sku, stripeProductID string) store.Product {
	t.Helper()

	p := store.Product{
		ID:              uuid.New(),
		Name:            name,
		SKU:             sku,
		StripeProductID: stripeProductID,
	}
	_, err := tdb.Pool.Exec(context.Background(),
		"INSERT INTO products (id, name, sku, stripe_product_id) VALUES ($1, $2, $3, $4)",
		p.ID, p.Name, p.SKU, p.StripeProductID,
	)
	if err != nil {
		t.Fatalf("creating fixture product %q: %v", name, err)
	}
	return p
}
