// Package money formats and parses sum amounts.
package money

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/wichananm65/partyland-backend/internal/apperror"
)

// Currency is appended to every formatted amount.
const Currency = "сум"

var suffixes = []string{Currency, "so'm", "uzs", "UZS"}

// Format renders d rounded to whole sums with space-grouped thousands,
// e.g. 125000 -> "125 000 сум".
func Format(d decimal.Decimal) string {
	whole := d.RoundBank(0).StringFixed(0)
	sign := ""
	if strings.HasPrefix(whole, "-") {
		sign, whole = "-", whole[1:]
	}
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + " " + Currency
}

// Parse reads an amount typed by a person or produced by Format. Spaces and
// commas are treated as thousands separators and a currency suffix is ignored.
func Parse(s string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(s)
	for _, suf := range suffixes {
		raw = strings.TrimSuffix(raw, suf)
	}
	raw = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f', ',', '_':
			return -1
		}
		return r
	}, raw)
	if raw == "" {
		return decimal.Zero, apperror.Validation("amount is empty")
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, apperror.Validation("invalid amount %q", s)
	}
	return d, nil
}
