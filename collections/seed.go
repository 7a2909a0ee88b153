package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// ── Definition structs ───────────────────────────────────────────────────

type itemDef struct {
	name     string
	quantity float64
	unit     string
	unitCost float64
	status   string
}

type elementDef struct {
	name  string
	items []itemDef
}

type structureDef struct {
	name     string
	elements []elementDef
}

// SeedProjectName is the name of the demo project created by Seed.
const SeedProjectName = "Residential Villa, Plot 12"

var seedEstimate = []structureDef{
	{
		name: "Substructure",
		elements: []elementDef{
			{
				name: "Excavation and earthworks",
				items: []itemDef{
					{"Site clearance and removal of topsoil 150mm deep", 320, "m2", 85, "approved"},
					{"Excavate foundation trenches n.e. 1.5m deep", 96, "m3", 650, "approved"},
					{"Cart away surplus excavated material", 60, "m3", 420, "submitted"},
					{"Hardcore filling compacted in 150mm layers", 48, "m3", 2300, "draft"},
				},
			},
			{
				name: "Concrete works",
				items: []itemDef{
					{"Blinding concrete class 15 50mm thick", 14, "m3", 11500, "approved"},
					{"Reinforced concrete class 25 in strip footings", 32, "m3", 16800, "submitted"},
					{"High yield steel reinforcement bars", 2400, "kg", 145, "submitted"},
					{"Damp proof membrane 1000 gauge", 300, "m2", 120, "draft"},
				},
			},
		},
	},
	{
		name: "Superstructure",
		elements: []elementDef{
			{
				name: "Walling",
				items: []itemDef{
					{"200mm machine-cut stone walling", 410, "m2", 1650, "draft"},
					{"Hoop iron reinforcement every alternate course", 820, "m", 35, "draft"},
				},
			},
			{
				name: "Roofing",
				items: []itemDef{
					{"Treated cypress roof trusses", 1, "sum", 385000, "submitted"},
					{"Pre-painted box profile iron sheets gauge 28", 290, "m2", 980, "rejected"},
					{"PVC gutters and downpipes", 64, "m", 1450, "draft"},
				},
			},
		},
	},
	{
		name: "Finishes",
		elements: []elementDef{
			{
				name: "Floor finishes",
				items: []itemDef{
					{"Cement sand screed 40mm thick", 260, "m2", 640, "draft"},
					{"Ceramic floor tiles 600x600mm", 210, "m2", 2850, "draft"},
				},
			},
		},
	},
}

// Seed populates the database with one demo project and its estimate.
// Safe to call on every startup -- returns early if any project records
// already exist.
func Seed(app *pocketbase.PocketBase) error {
	projectsCol, err := app.FindCollectionByNameOrId("projects")
	if err != nil {
		return fmt.Errorf("seed: could not find projects collection: %w", err)
	}
	existing, err := app.FindRecordsByFilter(projectsCol, "id != ''", "", 1, 0)
	if err != nil {
		return fmt.Errorf("seed: could not query projects: %w", err)
	}
	if len(existing) > 0 {
		return nil // already seeded
	}

	itemsCol, err := app.FindCollectionByNameOrId("estimate_items")
	if err != nil {
		return fmt.Errorf("seed: could not find estimate_items collection: %w", err)
	}

	project := core.NewRecord(projectsCol)
	project.Set("name", SeedProjectName)
	project.Set("client", "J. Mwangi")
	project.Set("reference_number", "BQ-2025-012")
	project.Set("locked", false)
	if err := app.Save(project); err != nil {
		return fmt.Errorf("seed: save project: %w", err)
	}

	saveItem := func(parentID string, level, order int, name string, it *itemDef) (*core.Record, error) {
		r := core.NewRecord(itemsCol)
		r.Set("project", project.Id)
		r.Set("parent", parentID)
		r.Set("level", level)
		r.Set("sort_order", order)
		r.Set("name", name)
		if it != nil {
			r.Set("quantity", it.quantity)
			r.Set("unit", it.unit)
			r.Set("unit_cost", it.unitCost)
			r.Set("amount", it.quantity*it.unitCost)
			r.Set("status", it.status)
		}
		if err := app.Save(r); err != nil {
			return nil, fmt.Errorf("seed: save %q: %w", name, err)
		}
		return r, nil
	}

	count := 0
	for si, s := range seedEstimate {
		structure, err := saveItem("", 0, si+1, s.name, nil)
		if err != nil {
			return err
		}
		count++
		for ei, e := range s.elements {
			element, err := saveItem(structure.Id, 1, ei+1, e.name, nil)
			if err != nil {
				return err
			}
			count++
			for ii := range e.items {
				it := e.items[ii]
				if _, err := saveItem(element.Id, 2, ii+1, it.name, &it); err != nil {
					return err
				}
				count++
			}
		}
	}

	log.Printf("seed: created project %q with %d estimate items\n", SeedProjectName, count)
	return nil
}
