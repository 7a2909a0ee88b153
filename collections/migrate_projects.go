package collections

import (
	"fmt"
	"log"
	"math"

	"github.com/pocketbase/pocketbase"
)

// MigrateStoredAmounts brings the stored amount column in line with the
// records: quantity × unit_cost for level-2 items, zero for structures and
// elements. Safe to call on every startup -- only records that differ are
// saved.
func MigrateStoredAmounts(app *pocketbase.PocketBase) error {
	itemsCol, err := app.FindCollectionByNameOrId("estimate_items")
	if err != nil {
		return fmt.Errorf("migrate: could not find estimate_items collection: %w", err)
	}

	records, err := app.FindAllRecords(itemsCol)
	if err != nil {
		return fmt.Errorf("migrate: could not query estimate items: %w", err)
	}

	fixed := 0
	for _, r := range records {
		want := 0.0
		if r.GetInt("level") == 2 {
			want = r.GetFloat("quantity") * r.GetFloat("unit_cost")
		}
		if math.Abs(r.GetFloat("amount")-want) < 1e-9 {
			continue
		}

		r.Set("amount", want)
		if err := app.Save(r); err != nil {
			log.Printf("migrate: failed to update amount of item %s: %v\n", r.Id, err)
			continue
		}
		fixed++
	}

	if fixed > 0 {
		log.Printf("migrate: corrected stored amount on %d estimate item(s)\n", fixed)
	}
	return nil
}
