package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWithTax(t *testing.T) {
	cases := []struct {
		name   string
		amount Cents
		rate   TaxRate
		want   Cents
	}{
		{"standard rate", 10000, 21, 12100},
		{"reduced rate", 10000, 10, 11000},
		{"super reduced rate", 10000, 4, 10400},
		{"rounds half up", 33, 21, 40},   // 33 * 1.21 = 39.93
		{"rounds down", 10, 4, 10},       // 10 * 1.04 = 10.4
		{"rounds up at half", 50, 10, 55}, // 50 * 1.10 = 55 exactly
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.rate.WithTax(tc.amount))
		})
	}
}

func TestTaxRateValid(t *testing.T) {
	require.True(t, TaxRate(4).Valid())
	require.True(t, TaxRate(10).Valid())
	require.True(t, TaxRate(21).Valid())
	require.False(t, TaxRate(0).Valid())
	require.False(t, TaxRate(15).Valid())
	require.False(t, TaxRate(-21).Valid())
}
