package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Currencies Stripe charges in whole units.
var zeroDecimal = map[string]struct{}{
	"bif": {}, "clp": {}, "djf": {}, "gnf": {}, "jpy": {}, "kmf": {}, "krw": {},
	"mga": {}, "pyg": {}, "rwf": {}, "ugx": {}, "vnd": {}, "vuv": {}, "xaf": {},
	"xof": {}, "xpf": {},
}

// FromMinor converts an amount in minor units (cents) into a decimal value.
func FromMinor(amount int64, currency string) decimal.Decimal {
	return decimal.New(amount, -exponent(currency))
}

// Format renders an amount as "29.99 USD".
func Format(amount int64, currency string) string {
	exp := exponent(currency)
	return FromMinor(amount, currency).StringFixed(exp) + " " + strings.ToUpper(currency)
}

func exponent(currency string) int32 {
	if _, ok := zeroDecimal[strings.ToLower(strings.TrimSpace(currency))]; ok {
		return 0
	}
	return 2
}
