package services

import (
	"reflect"
	"testing"
)

func TestFilterTree_ChainScenario(t *testing.T) {
	items := []EstimateItem{
		{ID: "A", Level: LevelStructure, Name: "A"},
		{ID: "B", ParentID: "A", Level: LevelElement, Name: "B"},
		{ID: "C", ParentID: "B", Level: LevelItem, Name: "C", Quantity: 10, UnitCost: 5},
	}
	forest := BuildTree(items, DefaultRates())

	kept := FilterTree(forest, Filter{Search: "C"})
	if got := nodeIDs(kept.Roots); !reflect.DeepEqual(got, []string{"A", "B", "C"}) {
		t.Errorf("search C kept %v", got)
	}

	none := FilterTree(forest, Filter{Search: "Z"})
	if len(none.Roots) != 0 {
		t.Errorf("search Z kept %v", nodeIDs(none.Roots))
	}
}

func TestFilterTree(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   []string
		amount float64
	}{
		{"zero filter keeps all", Filter{}, []string{"s1", "e1", "i1", "i2", "e2", "i3", "s2", "e3", "i4"}, 750},
		{"status all keeps all", Filter{Status: StatusAll}, []string{"s1", "e1", "i1", "i2", "e2", "i3", "s2", "e3", "i4"}, 750},
		{"case insensitive leaf search", Filter{Search: "TRENCH"}, []string{"s1", "e1", "i2"}, 100},
		{"leaf search across structures", Filter{Search: "excavation"}, []string{"s1", "e1", "i1", "i2"}, 150},
		{"element name keeps element", Filter{Search: "concrete"}, []string{"s1", "e2"}, 0},
		{"status only", Filter{Status: StatusApproved}, []string{"s1", "e1", "i2", "s2", "e3", "i4"}, 400},
		{"search and status", Filter{Search: "wall", Status: StatusApproved}, []string{"s2", "e3", "i4"}, 300},
		{"status without leaves", Filter{Status: StatusRejected}, nil, 0},
		{"whitespace search is no filter", Filter{Search: "   "}, []string{"s1", "e1", "i1", "i2", "e2", "i3", "s2", "e3", "i4"}, 750},
	}

	forest := BuildTree(sampleItems(), DefaultRates())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterTree(forest, tt.filter)
			if ids := nodeIDs(got.Roots); !reflect.DeepEqual(ids, tt.want) {
				t.Errorf("kept %v, want %v", ids, tt.want)
			}
			if amt := got.Totals().Amount; amt != tt.amount {
				t.Errorf("visible amount = %v, want %v", amt, tt.amount)
			}
		})
	}
}

func TestFilterTree_DoesNotModifyInput(t *testing.T) {
	forest := BuildTree(sampleItems(), DefaultRates())
	before := nodeIDs(forest.Roots)

	FilterTree(forest, Filter{Search: "block"})

	if after := nodeIDs(forest.Roots); !reflect.DeepEqual(before, after) {
		t.Errorf("input changed: %v -> %v", before, after)
	}
	if forest.Totals().Amount != 750 {
		t.Errorf("input totals changed to %v", forest.Totals().Amount)
	}
	if forest.Roots[1].Index != "2" {
		t.Errorf("input index changed to %q", forest.Roots[1].Index)
	}
}

func TestFilterTree_ReindexesVisibleNodes(t *testing.T) {
	forest := BuildTree(sampleItems(), DefaultRates())
	got := FilterTree(forest, Filter{Search: "block"})

	var idx []string
	Walk(got.Roots, func(n *TreeNode) { idx = append(idx, n.Index) })
	if !reflect.DeepEqual(idx, []string{"1", "1.1", "1.1.1"}) {
		t.Errorf("indexes = %v", idx)
	}
}

func TestFilterTree_Idempotent(t *testing.T) {
	forest := BuildTree(sampleItems(), DefaultRates())
	f := Filter{Search: "ex", Status: StatusDraft}

	once := FilterTree(forest, f)
	twice := FilterTree(once, f)

	if !reflect.DeepEqual(nodeIDs(once.Roots), nodeIDs(twice.Roots)) {
		t.Errorf("second pass changed the result: %v vs %v", nodeIDs(once.Roots), nodeIDs(twice.Roots))
	}
}
