package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// Setup programmatically creates/ensures the projects and estimate_items
// collections exist.
func Setup(app *pocketbase.PocketBase) {
	projects := ensureCollection(app, "projects", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.TextField{Name: "client", Required: false})
		c.Fields.Add(&core.TextField{Name: "reference_number", Required: false})
		c.Fields.Add(&core.BoolField{Name: "locked"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	minLevel, maxLevel := 0.0, 2.0
	items := ensureCollection(app, "estimate_items", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "project",
			Required:      true,
			CollectionId:  projects.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		// Number fields are not Required: PocketBase treats 0 as blank.
		c.Fields.Add(&core.NumberField{Name: "level", OnlyInt: true, Min: &minLevel, Max: &maxLevel})
		c.Fields.Add(&core.NumberField{Name: "sort_order", OnlyInt: true})
		c.Fields.Add(&core.NumberField{Name: "quantity"})
		c.Fields.Add(&core.TextField{Name: "unit", Required: false})
		c.Fields.Add(&core.NumberField{Name: "unit_cost"})
		c.Fields.Add(&core.NumberField{Name: "amount"})
		c.Fields.Add(&core.SelectField{
			Name:      "status",
			Required:  false,
			Values:    []string{"draft", "submitted", "approved", "rejected"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	// The self relation needs the collection id, so it is added once the
	// collection exists.
	if items.Fields.GetByName("parent") == nil {
		items.Fields.Add(&core.RelationField{
			Name:          "parent",
			Required:      false,
			CollectionId:  items.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		items.AddIndex("idx_estimate_items_siblings", false, "project, parent, sort_order", "")
		if err := app.Save(items); err != nil {
			log.Fatalf("Failed to add parent relation to %q: %v", items.Name, err)
		}
	}
}

// ensureCollection checks if a collection already exists by name. If it does,
// the existing collection is returned. Otherwise a new base collection is
// created, the addFields callback is invoked to populate its fields, and the
// collection is saved.
func ensureCollection(app *pocketbase.PocketBase, name string, addFields func(*core.Collection)) *core.Collection {
	existing, err := app.FindCollectionByNameOrId(name)
	if err == nil && existing != nil {
		log.Printf("Collection %q already exists, skipping creation.\n", name)
		return existing
	}

	collection := core.NewBaseCollection(name)
	addFields(collection)

	if err := app.Save(collection); err != nil {
		log.Fatalf("Failed to create collection %q: %v", name, err)
	}

	fmt.Printf("Created collection %q (id=%s)\n", name, collection.Id)
	return collection
}
