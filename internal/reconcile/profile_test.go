package reconcile

import (
	"testing"

	"github.com/orderbridge/reconciler/internal/store"
	"github.com/orderbridge/reconciler/internal/stripeapi"
)

func TestBuildProfileShippingFallback(t *testing.T) {
	billing, shipping := buildProfile(profileSource{
		BillingName:  "Test User",
		BillingEmail: "test@example.com",
		BillingAddr:  &stripeapi.Address{Line1: "1 High St", City: "London", Country: "GB"},
	})

	want := store.PersonName{First: "Test", Last: "User"}
	if billing.Name != want {
		t.Errorf("billing name = %+v, want %+v", billing.Name, want)
	}
	if billing.Email != "test@example.com" {
		t.Errorf("billing email = %q, want %q", billing.Email, "test@example.com")
	}

	// No explicit ship-to block: shipping mirrors billing.
	if shipping.Name != billing.Name {
		t.Errorf("shipping name = %+v, want billing name %+v", shipping.Name, billing.Name)
	}
	if shipping.Address != billing.Address {
		t.Errorf("shipping address = %+v, want billing address %+v", shipping.Address, billing.Address)
	}
}

func TestBuildProfileExplicitShipping(t *testing.T) {
	billing, shipping := buildProfile(profileSource{
		BillingName:  "Test User",
		BillingEmail: "test@example.com",
		BillingAddr:  &stripeapi.Address{Line1: "1 High St", Country: "GB"},
		Shipping: &stripeapi.ShippingDetails{
			Name:    "Someone Else Entirely",
			Address: &stripeapi.Address{Line1: "2 Other Rd", Country: "US"},
		},
	})

	if got, want := shipping.Name, (store.PersonName{First: "Someone", Last: "Else Entirely"}); got != want {
		t.Errorf("shipping name = %+v, want %+v", got, want)
	}
	if shipping.Address.Country != "US" {
		t.Errorf("shipping country = %q, want %q", shipping.Address.Country, "US")
	}
	if billing.Address.Country != "GB" {
		t.Errorf("billing country = %q, want %q", billing.Address.Country, "GB")
	}
}

func TestBuildProfileNames(t *testing.T) {
	tests := []struct {
		name    string
		display string
		want    store.PersonName
	}{
		{"first and last", "Jane Doe", store.PersonName{First: "Jane", Last: "Doe"}},
		{"single name", "Cher", store.PersonName{First: "Cher"}},
		{"multi word last", "Jean Claude Van Damme", store.PersonName{First: "Jean", Last: "Claude Van Damme"}},
		{"empty", "", store.PersonName{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			billing, _ := buildProfile(profileSource{BillingName: tt.display})
			if billing.Name != tt.want {
				t.Errorf("got %+v, want %+v", billing.Name, tt.want)
			}
		})
	}
}

func TestBuildProfileNilAddresses(t *testing.T) {
	billing, shipping := buildProfile(profileSource{BillingName: "Test User"})
	if !billing.Address.IsZero() {
		t.Errorf("billing address = %+v, want zero", billing.Address)
	}
	if !shipping.Address.IsZero() {
		t.Errorf("shipping address = %+v, want zero", shipping.Address)
	}
}
