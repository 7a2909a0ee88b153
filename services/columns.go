package services

import (
	"fmt"
	"strings"
)

// Column is an optional value column of the estimate table.
type Column string

const (
	ColQuantity  Column = "quantity"
	ColUnit      Column = "unit"
	ColRate      Column = "rate"
	ColAmount    Column = "amount"
	ColMaterial  Column = "material"
	ColLabour    Column = "labour"
	ColEquipment Column = "equipment"
	ColOverheads Column = "overheads"
	ColProfit    Column = "profit"
	ColVAT       Column = "vat"
)

// AllColumns lists the optional columns in display order.
var AllColumns = []Column{
	ColQuantity, ColUnit, ColRate, ColAmount,
	ColMaterial, ColLabour, ColEquipment, ColOverheads, ColProfit, ColVAT,
}

var columnLabels = map[Column]string{
	ColQuantity:  "Qty",
	ColUnit:      "Unit",
	ColRate:      "Rate",
	ColAmount:    "Amount",
	ColMaterial:  "Material",
	ColLabour:    "Labour",
	ColEquipment: "Equipment",
	ColOverheads: "Overheads",
	ColProfit:    "Profit",
	ColVAT:       "VAT",
}

// Label returns the header text of the column.
func (c Column) Label() string {
	if l, ok := columnLabels[c]; ok {
		return l
	}
	return string(c)
}

// LeafOnly reports whether the column only carries values on level-2 rows.
func (c Column) LeafOnly() bool {
	return c == ColQuantity || c == ColUnit || c == ColRate
}

// Numeric reports whether the column holds a number.
func (c Column) Numeric() bool {
	return c != ColUnit
}

// ColumnSet is a set of visible columns kept in display order.
type ColumnSet []Column

// NewColumnSet builds a set from cols, dropping duplicates and unknown
// values and sorting into display order.
func NewColumnSet(cols ...Column) ColumnSet {
	want := make(map[Column]bool, len(cols))
	for _, c := range cols {
		want[c] = true
	}
	set := make(ColumnSet, 0, len(cols))
	for _, c := range AllColumns {
		if want[c] {
			set = append(set, c)
		}
	}
	return set
}

// Has reports whether c is visible.
func (s ColumnSet) Has(c Column) bool {
	for _, v := range s {
		if v == c {
			return true
		}
	}
	return false
}

// String returns the comma separated column names.
func (s ColumnSet) String() string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = string(c)
	}
	return strings.Join(names, ",")
}

// ParseColumns parses a comma separated column list. An empty string yields
// def. The literal "all" selects every column.
func ParseColumns(s string, def ColumnSet) (ColumnSet, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	if strings.EqualFold(s, "all") {
		return NewColumnSet(AllColumns...), nil
	}

	var cols []Column
	for _, part := range strings.Split(s, ",") {
		name := Column(strings.ToLower(strings.TrimSpace(part)))
		if name == "" {
			continue
		}
		if _, ok := columnLabels[name]; !ok {
			return nil, fmt.Errorf("unknown column %q", part)
		}
		cols = append(cols, name)
	}
	return NewColumnSet(cols...), nil
}
