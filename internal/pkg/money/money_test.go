package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		amount   int64
		currency string
		want     string
	}{
		{amount: 999, currency: "usd", want: "9.99 USD"},
		{amount: 2999, currency: "eur", want: "29.99 EUR"},
		{amount: 5, currency: "usd", want: "0.05 USD"},
		{amount: 1500, currency: "jpy", want: "1500 JPY"},
		{amount: 0, currency: "usd", want: "0.00 USD"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Format(tt.amount, tt.currency))
	}
}

func TestFromMinor(t *testing.T) {
	assert.Equal(t, "99.99", FromMinor(9999, "usd").String())
	assert.Equal(t, "500", FromMinor(500, "KRW").String())
}
