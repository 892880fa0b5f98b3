package reconcile

import "github.com/orderbridge/reconciler/internal/store"

// applyRegionalAdjustments adds the international shipping surcharge and
// clears tax lines for orders shipping outside the domestic country. The
// surcharge is skipped when configured to zero; the tax clearing happens
// for every international order regardless. Orders without a shipping
// country are treated as domestic.
func (e *Engine) applyRegionalAdjustments(o *store.Order) {
	country := o.ShippingAddress.Country
	if country == "" || country == e.settings.DomesticCountry {
		return
	}

	if e.settings.InternationalShippingCost.IsPositive() {
		o.Lines = append(o.Lines, store.OrderLine{
			Kind:     store.LineKindShipping,
			Name:     "International Shipping",
			Quantity: 1,
			Amount:   e.settings.InternationalShippingCost,
		})
	}
	o.Taxes = nil
}
