package services

import (
	"fmt"
	"math"
	"strings"
)

// FormatAmount formats an amount with thousands separators and exactly two
// decimal places (e.g. 1,234,567.89). A non-empty currency is prefixed with
// a space.
func FormatAmount(amount float64, currency string) string {
	negative := false
	if amount < 0 {
		negative = true
		amount = -amount
	}

	// Format with 2 decimal places.
	raw := fmt.Sprintf("%.2f", amount)

	// Split into integer and decimal parts.
	parts := strings.SplitN(raw, ".", 2)
	result := applyGrouping(parts[0]) + "." + parts[1]

	if currency != "" {
		result = currency + " " + result
	}
	if negative && strings.Trim(parts[0]+parts[1], "0") != "" {
		result = "-" + result
	}
	return result
}

// applyGrouping inserts a comma between every group of three digits,
// counting from the right.
func applyGrouping(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	var b strings.Builder
	lead := n % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// formatQty returns a string representation of the quantity value.
// Whole numbers are formatted without decimals; fractional values get 2 decimal places.
func formatQty(qty float64) string {
	if qty == math.Trunc(qty) {
		return fmt.Sprintf("%.0f", qty)
	}
	return fmt.Sprintf("%.2f", qty)
}

// indentName prefixes name with two spaces per hierarchy level.
func indentName(name string, level int) string {
	if level <= 0 {
		return name
	}
	return strings.Repeat("  ", level) + name
}

// CellText renders column c of a row for display. Leaf-only columns are
// blank on structure and element rows.
func CellText(r RowRecord, c Column) string {
	switch {
	case !r.Shows(c):
		return ""
	case c == ColUnit:
		return r.Unit
	case c == ColQuantity:
		return formatQty(r.Quantity)
	}
	return FormatAmount(r.Value(c), "")
}
