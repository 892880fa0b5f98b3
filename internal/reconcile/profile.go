package reconcile

import (
	"github.com/orderbridge/reconciler/internal/money"
	"github.com/orderbridge/reconciler/internal/store"
	"github.com/orderbridge/reconciler/internal/stripeapi"
)

// profileSource normalizes the customer identity fields of either event
// shape before profile building.
type profileSource struct {
	BillingName  string
	BillingEmail string
	BillingAddr  *stripeapi.Address
	Shipping     *stripeapi.ShippingDetails
}

// profile is one side (billing or shipping) of a customer profile.
type profile struct {
	Name    store.PersonName
	Email   string
	Address store.Address
}

// buildProfile derives the billing and shipping profiles from an event.
// When the event carries no explicit ship-to block the shipping profile
// is a copy of the billing profile, so downstream consumers always see a
// complete pair.
func buildProfile(src profileSource) (billing, shipping profile) {
	first, last := money.SplitName(src.BillingName)
	billing = profile{
		Name:    store.PersonName{First: first, Last: last},
		Email:   src.BillingEmail,
		Address: convertAddress(src.BillingAddr),
	}

	if src.Shipping == nil {
		shipping = billing
		shipping.Email = ""
		return billing, shipping
	}

	first, last = money.SplitName(src.Shipping.Name)
	shipping = profile{
		Name:    store.PersonName{First: first, Last: last},
		Address: convertAddress(src.Shipping.Address),
	}
	return billing, shipping
}

func convertAddress(a *stripeapi.Address) store.Address {
	if a == nil {
		return store.Address{}
	}
	return store.Address{
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}
