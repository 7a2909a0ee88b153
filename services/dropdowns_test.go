package services

import (
	"testing"
)

func TestUnitOptions(t *testing.T) {
	if len(UnitOptions) == 0 {
		t.Fatal("UnitOptions should not be empty")
	}

	expected := map[string]bool{"m": true, "m2": true, "m3": true, "kg": true, "sum": true}
	found := make(map[string]bool)
	for _, opt := range UnitOptions {
		if opt == "" {
			t.Error("UnitOptions contains empty string")
		}
		if found[opt] {
			t.Errorf("UnitOptions contains %q twice", opt)
		}
		found[opt] = true
	}
	for k := range expected {
		if !found[k] {
			t.Errorf("expected unit option %q not found", k)
		}
	}
}

func TestHeaderAliases_CoverExportHeaders(t *testing.T) {
	// Every header written by the spreadsheet encoder for an importable
	// field must be recognised again.
	for _, h := range []string{"#", "Description", "Qty", "Unit", "Rate"} {
		if _, ok := HeaderAliases[normaliseHeader(h)]; !ok {
			t.Errorf("export header %q is not an import alias", h)
		}
	}
	for _, c := range []Column{ColQuantity, ColUnit, ColRate} {
		if _, ok := HeaderAliases[normaliseHeader(c.Label())]; !ok {
			t.Errorf("column label %q is not an import alias", c.Label())
		}
	}
}
