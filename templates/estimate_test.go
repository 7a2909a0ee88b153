package templates

import (
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"

	"bqestimator/services"
)

func pageData() EstimatePageData {
	items := []services.EstimateItem{
		{ID: "s1", Level: services.LevelStructure, Name: "Substructure", Order: 1},
		{ID: "e1", ParentID: "s1", Level: services.LevelElement, Name: "Walls <outer>", Order: 1},
		{ID: "i1", ParentID: "e1", Level: services.LevelItem, Name: "Blockwork", Order: 1,
			Quantity: 1000, Unit: "m2", UnitCost: 12.5, Status: services.StatusApproved},
	}
	forest := services.BuildTree(items, services.DefaultRates())
	cols := services.NewColumnSet(services.ColQuantity, services.ColUnit, services.ColAmount)
	return EstimatePageData{
		ProjectID:   "p1",
		ProjectName: "Demo & Co",
		Reference:   "BQ-1",
		Currency:    "KES",
		Filter:      services.Filter{Search: "block"},
		Table:       services.ExportToTable(forest, cols),
	}
}

func renderString(t *testing.T, c templ.Component) string {
	t.Helper()
	var b strings.Builder
	if err := c.Render(context.Background(), &b); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return b.String()
}

func TestEstimatePage(t *testing.T) {
	html := renderString(t, EstimatePage(pageData()))

	for _, want := range []string{
		"<title>Demo &amp; Co | Estimate</title>",
		`<div id="estimate-table">`,
		`value="block"`,
		`<td>1.1.1</td>`,
		"Walls &lt;outer&gt;",
		`<td class="num">12,500.00</td>`,
		"KES 12,500.00",
		`hx-post="/projects/p1/estimate/lock"`,
		`href="/projects/p1/estimate/export/excel?cols=quantity%2Cunit%2Camount&amp;search=block"`,
		`<option value="all" selected>All statuses</option>`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestEstimateTable_Fragment(t *testing.T) {
	html := renderString(t, EstimateTable(pageData()))
	if strings.Contains(html, "<html") {
		t.Error("fragment should not include the page layout")
	}
	if !strings.HasPrefix(html, `<table`) {
		t.Errorf("fragment starts with %q", html[:min(len(html), 40)])
	}
	// Leaf-only columns are blank on branch rows.
	if !strings.Contains(html, `<tr id="row-s1" class="level-0"><td>1</td><td style="padding-left:1em">Substructure</td><td class="num"></td><td class="unit"></td><td class="num">12,500.00</td>`) {
		t.Errorf("structure row not rendered as expected:\n%s", html)
	}
}

func TestEstimateTable_LockedHidesActions(t *testing.T) {
	data := pageData()
	data.Locked = true
	html := renderString(t, EstimateTable(data))
	if strings.Contains(html, "hx-delete") {
		t.Error("locked estimate should not offer delete buttons")
	}
}

func TestEstimateTable_Empty(t *testing.T) {
	data := pageData()
	data.Table = services.ExportToTable(services.Forest{}, data.Table.Columns)
	if html := renderString(t, EstimateTable(data)); !strings.Contains(html, "No items match the current filter.") {
		t.Errorf("unexpected empty output: %s", html)
	}

	data.Filter = services.Filter{}
	data.Excluded = 2
	html := renderString(t, EstimateTable(data))
	if !strings.Contains(html, "No items yet.") || !strings.Contains(html, "2 records could not be placed") {
		t.Errorf("unexpected empty output: %s", html)
	}
}

func TestProjectListPage(t *testing.T) {
	html := renderString(t, ProjectListPage([]ProjectListItem{
		{ID: "p1", Name: "Villa", Client: "Acme", Locked: true, CreatedDate: "01 Jan 2026"},
	}))
	for _, want := range []string{`href="/projects/p1/estimate"`, "Villa", "Acme", "Locked", `action="/projects"`} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q", want)
		}
	}

	if html := renderString(t, ProjectListPage(nil)); !strings.Contains(html, "No projects yet.") {
		t.Error("expected empty state")
	}
}

func TestStatusLabel(t *testing.T) {
	tests := map[string]string{"": "", "all": "All statuses", "draft": "Draft", "approved": "Approved"}
	for in, want := range tests {
		if got := statusLabel(in); got != want {
			t.Errorf("statusLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
