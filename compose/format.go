package compose

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatINR formats an amount into Indian Rupee notation. It uses the Indian
// numbering system where, after the rightmost 3 digits, digits are grouped in
// pairs (e.g., ₹1,23,45,678.90). The result always has exactly 2 decimals.
func FormatINR(amount decimal.Decimal) string {
	negative := amount.Sign() < 0
	if negative {
		amount = amount.Neg()
	}

	raw := amount.StringFixed(2)
	parts := strings.SplitN(raw, ".", 2)
	intPart := parts[0]
	decPart := parts[1]

	result := "₹" + applyIndianGrouping(intPart) + "." + decPart
	if negative {
		result = "-" + result
	}
	return result
}

// applyIndianGrouping inserts commas into an integer string using the Indian
// numbering system: the rightmost 3 digits form the first group, then every
// 2 digits form subsequent groups.
func applyIndianGrouping(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	result := s[n-3:]
	remaining := s[:n-3]

	for len(remaining) > 2 {
		result = remaining[len(remaining)-2:] + "," + result
		remaining = remaining[:len(remaining)-2]
	}
	if len(remaining) > 0 {
		result = remaining + "," + result
	}

	return result
}
