package services

import (
	"testing"
	"time"
)

func TestExportToTable_Rows(t *testing.T) {
	forest := BuildTree(sampleItems(), DefaultRates())
	table := ExportToTable(forest, NewColumnSet(ColAmount))

	if len(table.Rows) != 9 {
		t.Fatalf("rows = %d, want 9", len(table.Rows))
	}

	first := table.Rows[0]
	if first.Index != "1" || first.Level != LevelStructure || first.Amount != 450 {
		t.Errorf("first row = %+v", first)
	}
	if first.Quantity != 0 || first.Unit != "" || first.Rate != 0 {
		t.Errorf("structure row carries leaf fields: %+v", first)
	}

	leafRow := table.Rows[2]
	if leafRow.ID != "i1" || leafRow.Quantity != 10 || leafRow.Rate != 5 || leafRow.Unit != "m3" {
		t.Errorf("leaf row = %+v", leafRow)
	}
	if leafRow.Status != StatusDraft {
		t.Errorf("leaf status = %q", leafRow.Status)
	}

	// Columns only govern rendering, every value is present.
	if !approxEqual(table.Rows[0].Material, 180) {
		t.Errorf("hidden column value missing: material = %v", table.Rows[0].Material)
	}
	if GrandTotal(table.Rows) != table.Totals.Amount {
		t.Errorf("grand total %v != totals %v", GrandTotal(table.Rows), table.Totals.Amount)
	}
}

func TestExportToTable_EmptyForest(t *testing.T) {
	table := ExportToTable(Forest{}, NewColumnSet(AllColumns...))
	if table.Rows == nil {
		t.Error("rows should be an empty slice, not nil")
	}
	if len(table.Rows) != 0 {
		t.Errorf("rows = %d, want 0", len(table.Rows))
	}
}

func TestRowRecord_Shows(t *testing.T) {
	branchRow := RowRecord{Level: LevelElement}
	leafRow := RowRecord{Level: LevelItem}

	for _, c := range AllColumns {
		if !leafRow.Shows(c) {
			t.Errorf("leaf should show %s", c)
		}
		if got := branchRow.Shows(c); got == c.LeafOnly() {
			t.Errorf("branch Shows(%s) = %v", c, got)
		}
	}
}

func TestBuildExportData_DefaultsTime(t *testing.T) {
	before := time.Now()
	data := BuildExportData(Forest{}, nil, ExportMeta{Title: "T"})
	if data.GeneratedAt.Before(before) {
		t.Errorf("GeneratedAt = %v, want >= %v", data.GeneratedAt, before)
	}

	fixed := time.Date(2025, 1, 15, 9, 30, 0, 0, time.UTC)
	data = BuildExportData(Forest{}, nil, ExportMeta{GeneratedAt: fixed})
	if !data.GeneratedAt.Equal(fixed) {
		t.Errorf("GeneratedAt = %v, want %v", data.GeneratedAt, fixed)
	}
}

func TestParseColumns(t *testing.T) {
	def := NewColumnSet(ColAmount)
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "amount", false},
		{"all", "quantity,unit,rate,amount,material,labour,equipment,overheads,profit,vat", false},
		{"VAT, amount,amount", "amount,vat", false},
		{"qty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColumns(tt.in, def)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && got.String() != tt.want {
				t.Errorf("ParseColumns(%q) = %q, want %q", tt.in, got.String(), tt.want)
			}
		})
	}
}
