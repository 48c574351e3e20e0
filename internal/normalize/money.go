package normalize

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount parses a CMS money field such as `"0000031.56"` or `$1,234.50` into
// a decimal rounded to 2 places. Empty input yields zero.
func Amount(s string) (decimal.Decimal, error) {
	s = Field(s)
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return d.Round(2), nil
}
