// Package pricing derives the monetary placeholder values of a proposal from
// raw whole-unit amounts.
//
// Everything here is pure: amounts are non-negative int64 whole units,
// percentages truncate toward zero, and rendering never produces decimals.
package pricing

import (
	"strings"

	"github.com/dustin/go-humanize"
)

// GSTSuffix is appended to rendered totals in tax-annotated currencies.
const GSTSuffix = " + 18% GST"

// Currency is an ISO 4217 code supported by the proposal templates.
type Currency string

const (
	USD Currency = "USD"
	INR Currency = "INR"
	AUD Currency = "AUD"
)

var symbols = map[Currency]string{
	USD: "$",
	INR: "₹",
	AUD: "A$",
}

// additionalFeatures is the fixed "Additional Features & Enhancements" price
// quoted alongside, never inside, the totals.
var additionalFeatures = map[Currency]int64{
	USD: 250,
	INR: 25000,
	AUD: 375,
}

// ParseCurrency normalizes a currency code. Unknown codes fall back to USD.
func ParseCurrency(code string) Currency {
	c := Currency(strings.ToUpper(strings.TrimSpace(code)))
	if _, ok := symbols[c]; ok {
		return c
	}
	return USD
}

// Currencies lists the supported currencies.
func Currencies() []Currency {
	return []Currency{USD, INR, AUD}
}

// Symbols returns every supported currency symbol.
func Symbols() []string {
	out := make([]string, 0, len(symbols))
	for _, c := range Currencies() {
		out = append(out, symbols[c])
	}
	return out
}

func (c Currency) Symbol() string {
	if s, ok := symbols[c]; ok {
		return s
	}
	return symbols[USD]
}

// TaxAnnotated reports whether totals in c carry GSTSuffix instead of a
// computed tax line.
func (c Currency) TaxAnnotated() bool {
	return c == INR
}

// Format renders n with thousands grouping and the currency symbol.
func (c Currency) Format(n int64) string {
	return c.Symbol() + FormatAmount(n)
}

// FormatTotal renders a grand total, adding the tax annotation when the
// currency calls for it.
func (c Currency) FormatTotal(n int64) string {
	s := c.Format(n)
	if c.TaxAnnotated() {
		s += GSTSuffix
	}
	return s
}

// AdditionalFeatures returns the fixed additional-features price for c.
func (c Currency) AdditionalFeatures() int64 {
	if v, ok := additionalFeatures[c]; ok {
		return v
	}
	return additionalFeatures[USD]
}

// FormatAmount groups thousands with commas: 1234567 -> "1,234,567".
func FormatAmount(n int64) string {
	return humanize.Comma(n)
}

// percent returns n*p/100 truncated toward zero.
func percent(n, p int64) int64 {
	return n * p / 100
}
