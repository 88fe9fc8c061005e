// Package normalize canonicalizes raw export rows: locale numbers, person names,
// day-level dates, Spanish month names and the column layouts of each source.
// Nothing in this package returns an error for malformed numbers or dates;
// they resolve to zero or to a "not parsed" flag.
package normalize

import (
	"strings"

	"github.com/shopspring/decimal"
)

var currencyReplacer = strings.NewReplacer("€", "", "EUR", "", " ", "", " ", "")

// ParseNumber parses a number written with a comma decimal separator ("70,50").
// "1.234,56" is read as thousands separator plus decimal comma. Blank or
// non-numeric input yields zero.
func ParseNumber(value string) decimal.Decimal {
	s := currencyReplacer.Replace(strings.TrimSpace(value))
	if s == "" {
		return decimal.Zero
	}

	comma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0 && comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case comma >= 0 && dot >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		s = strings.Replace(s, ",", ".", 1)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FormatNumber renders an amount with two decimals and a comma separator
func FormatNumber(d decimal.Decimal) string {
	return strings.Replace(d.StringFixed(2), ".", ",", 1)
}
