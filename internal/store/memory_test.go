package store

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestMemory_FindOrCreate_NewThenExisting(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	first, created, err := m.FindOrCreateByInvoiceRef(ctx, "in_100")
	if err != nil {
		t.Fatalf("first FindOrCreate: %v", err)
	}
	if !created {
		t.Error("first call: want created=true")
	}
	if first.Status != StatusNew {
		t.Errorf("status: got %q, want %q", first.Status, StatusNew)
	}

	second, created, err := m.FindOrCreateByInvoiceRef(ctx, "in_100")
	if err != nil {
		t.Fatalf("second FindOrCreate: %v", err)
	}
	if created {
		t.Error("second call: want created=false")
	}
	if second.ID != first.ID {
		t.Errorf("second call returned a different order: %s vs %s", second.ID, first.ID)
	}
	if m.OrderCount() != 1 {
		t.Errorf("order count: got %d, want 1", m.OrderCount())
	}
}

func TestMemory_FindOrCreate_EmptyRefAlwaysCreates(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	a, created, err := m.FindOrCreateByInvoiceRef(ctx, "")
	if err != nil || !created {
		t.Fatalf("first call: created=%v err=%v", created, err)
	}
	b, created, err := m.FindOrCreateByInvoiceRef(ctx, "")
	if err != nil || !created {
		t.Fatalf("second call: created=%v err=%v", created, err)
	}
	if a.ID == b.ID {
		t.Error("orders without an invoice ref must not be deduplicated")
	}
}

func TestMemory_FindOrCreate_ConcurrentSameRef(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	const workers = 16
	ids := make([]uuid.UUID, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			o, _, err := m.FindOrCreateByInvoiceRef(ctx, "in_race")
			if err != nil {
				t.Errorf("worker %d: %v", i, err)
				return
			}
			ids[i] = o.ID
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("concurrent resolution produced distinct orders: %s vs %s", ids[i], ids[0])
		}
	}
	if m.OrderCount() != 1 {
		t.Errorf("order count: got %d, want 1", m.OrderCount())
	}
}

func TestMemory_SaveAndGetRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	o, _, err := m.FindOrCreateByInvoiceRef(ctx, "in_200")
	if err != nil {
		t.Fatalf("FindOrCreate: %v", err)
	}

	o.Status = StatusProcessing
	o.Total = decimal.RequireFromString("42.50")
	o.Currency = "EUR"
	o.Lines = []OrderLine{{Kind: LineKindFreeform, Name: "Widget", Quantity: 2, Amount: decimal.RequireFromString("42.50")}}
	if err := m.Save(ctx, o); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := m.GetByInvoiceRef(ctx, "in_200")
	if err != nil {
		t.Fatalf("GetByInvoiceRef: %v", err)
	}
	if got.Status != StatusProcessing {
		t.Errorf("status: got %q, want %q", got.Status, StatusProcessing)
	}
	if got.Total.StringFixed(2) != "42.50" {
		t.Errorf("total: got %s, want 42.50", got.Total)
	}
	if len(got.Lines) != 1 || got.Lines[0].Name != "Widget" {
		t.Errorf("lines not persisted: %+v", got.Lines)
	}

	// Mutating the returned order must not leak into stored state.
	got.Lines[0].Name = "Changed"
	again, err := m.GetByInvoiceRef(ctx, "in_200")
	if err != nil {
		t.Fatalf("GetByInvoiceRef: %v", err)
	}
	if again.Lines[0].Name != "Widget" {
		t.Error("stored order mutated through a returned copy")
	}
}

func TestMemory_AppendNote(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	o, _, err := m.FindOrCreateByInvoiceRef(ctx, "in_300")
	if err != nil {
		t.Fatalf("FindOrCreate: %v", err)
	}

	if err := m.AppendNote(ctx, o, "first"); err != nil {
		t.Fatalf("AppendNote: %v", err)
	}
	if err := m.AppendNote(ctx, o, "second"); err != nil {
		t.Fatalf("AppendNote: %v", err)
	}

	got, err := m.GetByInvoiceRef(ctx, "in_300")
	if err != nil {
		t.Fatalf("GetByInvoiceRef: %v", err)
	}
	if len(got.Notes) != 2 || got.Notes[0] != "first" || got.Notes[1] != "second" {
		t.Errorf("notes: got %v, want [first second]", got.Notes)
	}
}

func TestMemory_CatalogLookups(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	id := uuid.New()
	m.AddProduct(Product{ID: id, Name: "Widget", SKU: "WID-1", StripeProductID: "prod_abc"})

	p, err := m.FindByStripeProductID(ctx, "prod_abc")
	if err != nil {
		t.Fatalf("FindByStripeProductID: %v", err)
	}
	if p.ID != id {
		t.Errorf("product id: got %s, want %s", p.ID, id)
	}

	p, err = m.FindBySKU(ctx, "WID-1")
	if err != nil {
		t.Fatalf("FindBySKU: %v", err)
	}
	if p.Name != "Widget" {
		t.Errorf("product name: got %q, want Widget", p.Name)
	}

	if _, err := m.FindByStripeProductID(ctx, "prod_missing"); err != ErrNotFound {
		t.Errorf("missing product: got %v, want ErrNotFound", err)
	}
}
