package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	cases := map[string]string{
		"0":          "0 сум",
		"999":        "999 сум",
		"1000":       "1 000 сум",
		"125000":     "125 000 сум",
		"125000.00":  "125 000 сум",
		"1250000.40": "1 250 000 сум",
		"999.5":      "1 000 сум",
		"0.5":        "0 сум",
		"-45000":     "-45 000 сум",
	}
	for in, want := range cases {
		assert.Equal(t, want, Format(decimal.RequireFromString(in)), in)
	}
}

func TestParse(t *testing.T) {
	d, err := Parse("125 000 сум")
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.NewFromInt(125000)))

	d, err = Parse("1,250,000.50")
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("1250000.5")))

	_, err = Parse("  сум")
	assert.Error(t, err)
	_, err = Parse("abc")
	assert.Error(t, err)
}

func TestFormatParseRoundTrip(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"125000", "125 000 сум"},
		{"125 000", "125 000 сум"},
		{"125000.00", "125 000 сум"},
		{"7 500 сум", "7 500 сум"},
		{"1,000,000 UZS", "1 000 000 сум"},
		{"42.75", "43 сум"},
		{"999", "999 сум"},
	}
	for _, tt := range tests {
		d, err := Parse(tt.in)
		require.NoError(t, err, tt.in)
		formatted := Format(d)
		assert.Equal(t, tt.want, formatted, tt.in)

		again, err := Parse(formatted)
		require.NoError(t, err, formatted)
		assert.Equal(t, formatted, Format(again), tt.in)
	}
}
