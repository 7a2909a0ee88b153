package services

// Rollup derives the breakdown of every node, children before parents, and
// returns the sum over the given roots.
//
// A leaf's amount is quantity × unit cost and each category is that amount
// times its rate. A structure or element takes the sum of its children for
// the amount and for every category separately, so category totals stay
// consistent with whatever subset of leaves is currently in the tree.
func Rollup(roots []*TreeNode, r Rates) Breakdown {
	var total Breakdown
	for _, n := range roots {
		total = total.Add(rollupNode(n, r))
	}
	return total
}

func rollupNode(n *TreeNode, r Rates) Breakdown {
	if n.Item.IsLeaf() {
		n.totals = CalcLeafBreakdown(CalcLeafAmount(n.Item.Quantity, n.Item.UnitCost), r)
		return n.totals
	}

	parts := make([]Breakdown, 0, len(n.Children))
	for _, child := range n.Children {
		parts = append(parts, rollupNode(child, r))
	}
	n.totals = SumBreakdowns(parts)
	return n.totals
}
