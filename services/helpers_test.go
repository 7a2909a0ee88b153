package services

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// bytesReader wraps a byte slice in a bytes.Reader for use with excelize.OpenReader.
func bytesReader(b []byte) *bytes.Reader {
	return bytes.NewReader(b)
}

var showText = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\) Tj`)

// documentText returns the strings drawn on every page of a PDF, in content
// stream order.
func documentText(b []byte) ([]string, error) {
	model.ConfigPath = "disable"
	ctx, err := api.ReadContext(bytes.NewReader(b), model.NewDefaultConfiguration())
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, err
	}
	unescape := strings.NewReplacer(`\(`, "(", `\)`, ")", `\\`, `\`)
	var runs []string
	for p := 1; p <= ctx.PageCount; p++ {
		r, err := pdfcpu.ExtractPageContent(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", p, err)
		}
		content, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		for _, m := range showText.FindAllSubmatch(content, -1) {
			runs = append(runs, unescape.Replace(string(m[1])))
		}
	}
	return runs, nil
}

// valueAfter returns the run drawn right after the last occurrence of label.
func valueAfter(runs []string, label string) (string, bool) {
	for i := len(runs) - 2; i >= 0; i-- {
		if runs[i] == label {
			return runs[i+1], true
		}
	}
	return "", false
}

// leaf returns a level-2 record under parent.
func leaf(id, parent, name string, order int, qty, cost float64) EstimateItem {
	return EstimateItem{
		ID:       id,
		ParentID: parent,
		Name:     name,
		Level:    LevelItem,
		Order:    order,
		Quantity: qty,
		Unit:     "m3",
		UnitCost: cost,
		Status:   StatusDraft,
	}
}

// branch returns a structure (parent == "") or element record.
func branch(id, parent, name string, order int) EstimateItem {
	level := LevelStructure
	if parent != "" {
		level = LevelElement
	}
	return EstimateItem{ID: id, ParentID: parent, Name: name, Level: level, Order: order}
}

// sampleItems is a small two-structure estimate:
//
//	1 Substructure
//	  1.1 Excavation: 10×5, 4×25
//	  1.2 Concrete: 2×150
//	2 Superstructure
//	  2.1 Walling: 100×3
func sampleItems() []EstimateItem {
	items := []EstimateItem{
		branch("s1", "", "Substructure", 1),
		branch("e1", "s1", "Excavation", 1),
		leaf("i1", "e1", "Bulk excavation", 1, 10, 5),
		leaf("i2", "e1", "Trench excavation", 2, 4, 25),
		branch("e2", "s1", "Concrete", 2),
		leaf("i3", "e2", "Strip footing", 1, 2, 150),
		branch("s2", "", "Superstructure", 2),
		branch("e3", "s2", "Walling", 1),
		leaf("i4", "e3", "Block wall", 1, 100, 3),
	}
	items[3].Status = StatusApproved
	items[8].Status = StatusApproved
	return items
}

func findNode(roots []*TreeNode, id string) *TreeNode {
	var found *TreeNode
	Walk(roots, func(n *TreeNode) {
		if n.Item.ID == id {
			found = n
		}
	})
	return found
}

func nodeIDs(roots []*TreeNode) []string {
	var ids []string
	Walk(roots, func(n *TreeNode) { ids = append(ids, n.Item.ID) })
	return ids
}

func approxEqual(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-6
}
