package render

import (
	"strings"

	"github.com/hmeicr/hmeicr/internal/model"
)

// Currency keeps only the characters A-Z. The code is shown as an inline
// label, so nothing else may pass through.
func Currency(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r
		}
		return -1
	}, s)
}

// Amount formats with exactly two decimals, "0.00" when absent or not numeric.
func Amount(a model.Amount) string {
	if !a.Valid {
		return "0.00"
	}
	return a.Value.StringFixed(2)
}

// Date formats a calendar date for display.
func Date(d model.Date) string {
	return d.String()
}
