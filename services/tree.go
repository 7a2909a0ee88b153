package services

import (
	"sort"
)

// TreeNode is an EstimateItem placed in the hierarchy.
//
// The rolled-up breakdown is derived by Rollup and is read through Totals;
// it is never taken from Item.Amount for structures and elements.
type TreeNode struct {
	Item     EstimateItem
	Children []*TreeNode
	Index    string // dotted position among visible siblings, e.g. "2.1.3"

	totals Breakdown
}

// Totals returns the derived amount and category values of the node.
func (n *TreeNode) Totals() Breakdown {
	return n.totals
}

// Amount returns the derived amount of the node.
func (n *TreeNode) Amount() float64 {
	return n.totals.Amount
}

// clone deep-copies the node and its subtree.
func (n *TreeNode) clone() *TreeNode {
	c := &TreeNode{Item: n.Item, Index: n.Index, totals: n.totals}
	if len(n.Children) > 0 {
		c.Children = make([]*TreeNode, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.clone()
		}
	}
	return c
}

// Exclusion reasons reported by the builder.
const (
	ExcludeDuplicateID   = "duplicate id"
	ExcludeParentMissing = "parent not found"
	ExcludeLevelMismatch = "level does not follow parent"
	ExcludeRootLevel     = "record without parent must be level 0"
	ExcludeUnreachable   = "ancestor excluded"
)

// ExcludedItem is a record the builder could not place in the tree.
type ExcludedItem struct {
	ID       string `json:"id"`
	ParentID string `json:"parent_id,omitempty"`
	Reason   string `json:"reason"`
}

// BuildReport describes the outcome of a tree build.
type BuildReport struct {
	Input    int            `json:"input"`
	Placed   int            `json:"placed"`
	Excluded []ExcludedItem `json:"excluded,omitempty"`
}

// Forest is the ordered set of structures of one project.
type Forest struct {
	Roots  []*TreeNode
	Rates  Rates
	Report BuildReport
}

// Clone returns a deep copy, so the copy can be transformed freely.
func (f Forest) Clone() Forest {
	out := Forest{Rates: f.Rates, Report: f.Report}
	if len(f.Roots) > 0 {
		out.Roots = make([]*TreeNode, len(f.Roots))
		for i, r := range f.Roots {
			out.Roots[i] = r.clone()
		}
	}
	return out
}

// Totals returns the sum of the root breakdowns.
func (f Forest) Totals() Breakdown {
	var sum Breakdown
	for _, r := range f.Roots {
		sum = sum.Add(r.totals)
	}
	return sum
}

// Len returns the number of nodes in the forest.
func (f Forest) Len() int {
	n := 0
	Walk(f.Roots, func(*TreeNode) { n++ })
	return n
}

// Walk visits every node in pre-order.
func Walk(nodes []*TreeNode, fn func(*TreeNode)) {
	for _, n := range nodes {
		fn(n)
		Walk(n.Children, fn)
	}
}

// buildNodes turns flat records into a forest of nodes.
//
// First pass indexes every record by id; second pass links each record to
// its parent. Records that cannot be linked are reported and left out. A
// final walk from the roots sorts siblings by order and drops anything that
// is not reachable, guarded by a visited set so malformed links can never
// loop.
func buildNodes(items []EstimateItem) ([]*TreeNode, BuildReport) {
	report := BuildReport{Input: len(items)}
	if len(items) == 0 {
		return nil, report
	}

	exclude := func(it EstimateItem, reason string) {
		report.Excluded = append(report.Excluded, ExcludedItem{ID: it.ID, ParentID: it.ParentID, Reason: reason})
	}

	// nodes[i] is nil for a record whose id was already taken.
	nodes := make([]*TreeNode, len(items))
	byID := make(map[string]*TreeNode, len(items))
	for i, it := range items {
		if _, dup := byID[it.ID]; dup {
			exclude(it, ExcludeDuplicateID)
			continue
		}
		nodes[i] = &TreeNode{Item: it}
		byID[it.ID] = nodes[i]
	}

	var roots []*TreeNode
	dropped := make(map[*TreeNode]bool)
	for i, it := range items {
		node := nodes[i]
		if node == nil {
			continue
		}

		if it.ParentID == "" {
			if it.Level != LevelStructure {
				exclude(it, ExcludeRootLevel)
				dropped[node] = true
				continue
			}
			roots = append(roots, node)
			continue
		}

		parent, ok := byID[it.ParentID]
		if !ok {
			exclude(it, ExcludeParentMissing)
			dropped[node] = true
			continue
		}
		if it.Level != parent.Item.Level+1 || it.Level > LevelItem {
			exclude(it, ExcludeLevelMismatch)
			dropped[node] = true
			continue
		}
		parent.Children = append(parent.Children, node)
	}

	visited := make(map[*TreeNode]bool, len(items))
	roots = settle(roots, visited)

	for i, it := range items {
		node := nodes[i]
		if node == nil || visited[node] || dropped[node] {
			continue
		}
		exclude(it, ExcludeUnreachable)
	}
	report.Placed = len(visited)

	return roots, report
}

// settle sorts siblings by order, then id, and keeps each node at most once.
func settle(nodes []*TreeNode, visited map[*TreeNode]bool) []*TreeNode {
	kept := nodes[:0]
	for _, n := range nodes {
		if visited[n] {
			continue
		}
		visited[n] = true
		kept = append(kept, n)
	}
	sort.Slice(kept, func(i, j int) bool {
		a, b := kept[i].Item, kept[j].Item
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.ID < b.ID
	})
	for _, n := range kept {
		if n.Item.IsLeaf() {
			n.Children = nil
			continue
		}
		n.Children = settle(n.Children, visited)
	}
	return kept
}
