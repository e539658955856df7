package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFromMinor(t *testing.T) {
	cases := []struct {
		name     string
		amount   int64
		currency string
		want     string
	}{
		{"try", 29900, "try", "299.00"},
		{"usd upper", 15000, "USD", "150.00"},
		{"cents", 1999, "eur", "19.99"},
		{"zero decimal", 500, "jpy", "500.00"},
		{"zero", 0, "try", "0.00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FromMinor(tc.amount, tc.currency).StringFixed(2))
		})
	}
}

func TestToMinor_RoundTrip(t *testing.T) {
	assert.Equal(t, int64(29900), ToMinor(FromMinor(29900, "try"), "try"))
	assert.Equal(t, int64(500), ToMinor(FromMinor(500, "jpy"), "jpy"))
	assert.Equal(t, int64(1000), ToMinor(decimal.RequireFromString("9.995"), "usd"))
}
