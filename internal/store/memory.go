package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Memory implements Catalog and Orders in process memory. It mirrors the
// PG semantics, including the atomic find-or-create on the invoice ref,
// and is safe for concurrent use.
type Memory struct {
	mu       sync.Mutex
	orders   map[uuid.UUID]*Order
	byRef    map[string]uuid.UUID
	products []Product
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		orders: make(map[uuid.UUID]*Order),
		byRef:  make(map[string]uuid.UUID),
	}
}

// AddProduct registers a catalog item.
func (m *Memory) AddProduct(p Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = append(m.products, p)
}

func (m *Memory) FindByStripeProductID(_ context.Context, stripeProductID string) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.StripeProductID != "" && p.StripeProductID == stripeProductID {
			cp := p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) FindBySKU(_ context.Context, sku string) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.SKU != "" && p.SKU == sku {
			cp := p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) FindOrCreateByInvoiceRef(_ context.Context, invoiceRef string) (*Order, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if invoiceRef != "" {
		if id, ok := m.byRef[invoiceRef]; ok {
			return cloneOrder(m.orders[id]), false, nil
		}
	}

	o := NewOrder(invoiceRef)
	m.orders[o.ID] = cloneOrder(o)
	if invoiceRef != "" {
		m.byRef[invoiceRef] = o.ID
	}
	return o, true, nil
}

func (m *Memory) GetByInvoiceRef(_ context.Context, invoiceRef string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byRef[invoiceRef]
	if invoiceRef == "" || !ok {
		return nil, ErrNotFound
	}
	return cloneOrder(m.orders[id]), nil
}

func (m *Memory) Save(_ context.Context, o *Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.orders[o.ID]; !ok {
		return ErrNotFound
	}
	m.orders[o.ID] = cloneOrder(o)
	if o.StripeInvoiceID != "" {
		m.byRef[o.StripeInvoiceID] = o.ID
	}
	return nil
}

func (m *Memory) AppendNote(_ context.Context, o *Order, note string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.orders[o.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Notes = append(stored.Notes, note)
	o.Notes = append(o.Notes, note)
	return nil
}

// OrderCount reports how many orders exist. Test helper.
func (m *Memory) OrderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

// cloneOrder copies an order, including its slices, so callers can mutate
// the result without touching stored state.
func cloneOrder(o *Order) *Order {
	cp := *o
	cp.Lines = append([]OrderLine(nil), o.Lines...)
	cp.Taxes = append([]TaxLine(nil), o.Taxes...)
	cp.Notes = append([]string(nil), o.Notes...)
	return &cp
}
