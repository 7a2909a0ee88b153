// Package testhelpers provides utilities for testing PocketBase-based applications.
package testhelpers

import (
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"bqestimator/collections"
)

// NewTestApp creates a PocketBase instance backed by a temporary directory.
// It bootstraps the app and runs collections.Setup to create all tables.
// The temporary directory is cleaned up automatically when the test finishes.
func NewTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	tmpDir := t.TempDir()
	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir: tmpDir,
	})

	if err := app.Bootstrap(); err != nil {
		t.Fatalf("failed to bootstrap test app: %v", err)
	}

	collections.Setup(app)

	return app
}

// CreateTestProject creates a project record with the given name and returns it.
func CreateTestProject(t *testing.T, app *pocketbase.PocketBase, name string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("projects")
	if err != nil {
		t.Fatalf("failed to find projects collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("name", name)
	record.Set("reference_number", "REF-"+strings.ToUpper(strings.ReplaceAll(name, " ", "-")))
	record.Set("locked", false)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test project: %v", err)
	}

	return record
}

// LockTestProject sets the locked flag of a project.
func LockTestProject(t *testing.T, app *pocketbase.PocketBase, projectID string) {
	t.Helper()

	record, err := app.FindRecordById("projects", projectID)
	if err != nil {
		t.Fatalf("failed to find project %s: %v", projectID, err)
	}
	record.Set("locked", true)
	if err := app.Save(record); err != nil {
		t.Fatalf("failed to lock test project: %v", err)
	}
}

// CreateTestStructure creates a level-0 estimate record.
func CreateTestStructure(t *testing.T, app *pocketbase.PocketBase, projectID, name string, order int) *core.Record {
	t.Helper()
	return createTestItem(t, app, projectID, "", 0, order, name, 0, "", 0)
}

// CreateTestElement creates a level-1 estimate record under a structure.
func CreateTestElement(t *testing.T, app *pocketbase.PocketBase, projectID, structureID, name string, order int) *core.Record {
	t.Helper()
	return createTestItem(t, app, projectID, structureID, 1, order, name, 0, "", 0)
}

// CreateTestItem creates a priced level-2 estimate record under an element.
func CreateTestItem(t *testing.T, app *pocketbase.PocketBase, projectID, elementID, name string, order int, quantity, unitCost float64) *core.Record {
	t.Helper()
	return createTestItem(t, app, projectID, elementID, 2, order, name, quantity, "m2", unitCost)
}

func createTestItem(t *testing.T, app *pocketbase.PocketBase, projectID, parentID string, level, order int, name string, quantity float64, unit string, unitCost float64) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("estimate_items")
	if err != nil {
		t.Fatalf("failed to find estimate_items collection: %v", err)
	}
	record := core.NewRecord(col)
	record.Set("project", projectID)
	record.Set("parent", parentID)
	record.Set("level", level)
	record.Set("sort_order", order)
	record.Set("name", name)
	if level == 2 {
		record.Set("quantity", quantity)
		record.Set("unit", unit)
		record.Set("unit_cost", unitCost)
		record.Set("amount", quantity*unitCost)
		record.Set("status", "draft")
	}
	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test estimate item %q: %v", name, err)
	}
	return record
}

// AssertHTMLContains checks that body contains all specified fragments.
func AssertHTMLContains(t *testing.T, body string, fragments ...string) {
	t.Helper()

	for _, frag := range fragments {
		if !strings.Contains(body, frag) {
			t.Errorf("expected HTML to contain %q, but it was not found\nbody (first 500 chars): %s",
				frag, truncate(body, 500))
		}
	}
}

// AssertHXRedirect checks that the response has an HX-Redirect header with the expected URL.
func AssertHXRedirect(t *testing.T, headerVal, expectedURL string) {
	t.Helper()

	if headerVal != expectedURL {
		t.Errorf("expected HX-Redirect %q, got %q", expectedURL, headerVal)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
