package services

// UnitOptions lists the units offered for level-2 items in the import
// template and the item form.
var UnitOptions = []string{
	"m",
	"m2",
	"m3",
	"kg",
	"t",
	"no",
	"item",
	"sum",
	"l",
	"hr",
	"day",
	"week",
	"month",
	"bag",
	"trip",
	"lot",
}

// HeaderAliases maps a normalised import header to its field key.
var HeaderAliases = map[string]string{
	"#":           importIndex,
	"index":       importIndex,
	"no":          importIndex,
	"no.":         importIndex,
	"item no":     importIndex,
	"ref":         importIndex,
	"description": importName,
	"name":        importName,
	"qty":         importQuantity,
	"quantity":    importQuantity,
	"unit":        importUnit,
	"uom":         importUnit,
	"rate":        importUnitCost,
	"unit cost":   importUnitCost,
	"unit_cost":   importUnitCost,
	"status":      importStatus,
}
