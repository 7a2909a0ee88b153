package services

import (
	"time"
)

// RowRecord is one flattened estimate row (structure, element or item).
type RowRecord struct {
	ID       string  `json:"id"`
	Level    int     `json:"level"` // 0 = structure, 1 = element, 2 = item
	Index    string  `json:"index"` // "1", "1.1", "1.1.1" etc
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity,omitempty"`
	Unit     string  `json:"unit,omitempty"`
	Rate     float64 `json:"rate,omitempty"`
	Status   string  `json:"status,omitempty"`
	Breakdown
}

// Value returns the numeric value of column c for the row. Leaf-only
// columns read as zero on structure and element rows.
func (r RowRecord) Value(c Column) float64 {
	switch c {
	case ColQuantity:
		return r.Quantity
	case ColRate:
		return r.Rate
	case ColAmount:
		return r.Amount
	case ColMaterial:
		return r.Material
	case ColLabour:
		return r.Labour
	case ColEquipment:
		return r.Equipment
	case ColOverheads:
		return r.Overheads
	case ColProfit:
		return r.Profit
	case ColVAT:
		return r.VAT
	}
	return 0
}

// Shows reports whether column c carries a value on this row.
func (r RowRecord) Shows(c Column) bool {
	return !c.LeafOnly() || r.Level == LevelItem
}

// FlattenRows lists the nodes of the forest in pre-order as rows.
func FlattenRows(roots []*TreeNode) []RowRecord {
	var rows []RowRecord
	Walk(roots, func(n *TreeNode) {
		row := RowRecord{
			ID:        n.Item.ID,
			Level:     n.Item.Level,
			Index:     n.Index,
			Name:      n.Item.Name,
			Breakdown: n.totals,
		}
		if n.Item.IsLeaf() {
			row.Quantity = n.Item.Quantity
			row.Unit = n.Item.Unit
			row.Rate = n.Item.UnitCost
			row.Status = n.Item.Status
		}
		rows = append(rows, row)
	})
	return rows
}

// ExportToTable flattens the forest into table rows. Every row carries all
// values; cols is returned alongside so renderers know what to show.
func ExportToTable(forest Forest, cols ColumnSet) Table {
	rows := FlattenRows(forest.Roots)
	if rows == nil {
		rows = []RowRecord{}
	}
	return Table{
		Columns: cols,
		Rows:    rows,
		Totals:  forest.Totals(),
	}
}

// Table is the tabular form of an estimate.
type Table struct {
	Columns ColumnSet   `json:"columns"`
	Rows    []RowRecord `json:"rows"`
	Totals  Breakdown   `json:"totals"`
}

// GrandTotal sums the amounts of the structure rows.
func GrandTotal(rows []RowRecord) float64 {
	var sum float64
	for _, r := range rows {
		if r.Level == LevelStructure {
			sum += r.Amount
		}
	}
	return sum
}

// ExportMeta is the document level information of an export.
type ExportMeta struct {
	Title       string
	Reference   string
	Currency    string
	GeneratedAt time.Time
	Filter      Filter
}

// ExportData holds all data needed by the spreadsheet and document encoders.
type ExportData struct {
	Title       string
	Reference   string
	Currency    string
	GeneratedAt time.Time
	Filter      Filter
	Columns     ColumnSet
	Rows        []RowRecord
	Totals      Breakdown
}

// GrandTotal is the sum of the structure amounts.
func (d ExportData) GrandTotal() float64 {
	return d.Totals.Amount
}

// BuildExportData flattens the forest and computes the footer totals. Both
// encoders read the same value, so their totals always agree.
func BuildExportData(forest Forest, cols ColumnSet, meta ExportMeta) ExportData {
	table := ExportToTable(forest, cols)
	generated := meta.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	return ExportData{
		Title:       meta.Title,
		Reference:   meta.Reference,
		Currency:    meta.Currency,
		GeneratedAt: generated,
		Filter:      meta.Filter,
		Columns:     cols,
		Rows:        table.Rows,
		Totals:      table.Totals,
	}
}
