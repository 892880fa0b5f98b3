// Package money holds the small conversion helpers shared by the
// reconciliation flows: minor-unit amounts, currency codes, and the
// display-name split used for billing and shipping names.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// FromMinorUnits converts an amount in the smallest currency unit
// (e.g. 9999 cents) to major units (99.99), rounded to 2 decimal places.
// All currencies in scope carry 2 minor-unit digits.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.NewFromInt(minor).DivRound(hundred, 2)
}

// NormalizeCurrency uppercases a three-letter ISO currency code as
// delivered by the provider (Stripe sends lowercase codes).
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// SplitName splits a display name into first and last name on the first
// space; the remainder becomes the last name. A name with no space yields
// an empty last name.
func SplitName(full string) (first, last string) {
	full = strings.TrimSpace(full)
	if full == "" {
		return "", ""
	}
	parts := strings.SplitN(full, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}
