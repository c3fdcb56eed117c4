package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is a monetary value in minor units (öre for SEK).
type Money = int64

// ExtractTax derives the tax portion contained in a tax-inclusive subtotal.
// Displayed prices already include tax, so the extracted amount is reported
// for record keeping and never added on top of a total.
//
//	tax = subtotal * rate / (1 + rate)
//
// with the rate expressed in basis points. Rounding is half-up on the minor
// unit, independent of wall-clock state, so the same inputs always produce
// the same output.
func ExtractTax(subtotal Money, rateBps int) Money {
	if subtotal <= 0 || rateBps <= 0 {
		return 0
	}
	num := subtotal * int64(rateBps)
	den := int64(10000 + rateBps)
	return (num + den/2) / den
}

// FromMajorString parses a decimal string such as "850.00" into minor units.
// Used only at gateway boundaries where providers speak in decimal values.
func FromMajorString(value string) (Money, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", value, err)
	}
	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart(), nil
}

// ToMajorString renders minor units as the two-decimal string wire format
// expected by PayPal-style gateways ("85000" öre -> "850.00").
func ToMajorString(amount Money) string {
	return decimal.NewFromInt(amount).Div(decimal.NewFromInt(100)).StringFixed(2)
}
