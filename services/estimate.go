package services

// BuildTree reconstructs the forest of one project from its flat records,
// derives every node's breakdown and assigns positional indexes.
//
// Records that cannot be placed are left out and listed in Forest.Report.
func BuildTree(items []EstimateItem, r Rates) Forest {
	roots, report := buildNodes(items)
	Rollup(roots, r)
	AssignIndexes(roots)
	return Forest{Roots: roots, Rates: r, Report: report}
}

// FilterTree returns a new forest holding only the nodes that match f or
// have a matching descendant. The result is rolled up and re-indexed, so
// amounts and indexes describe exactly the visible nodes. The input forest
// is not modified.
func FilterTree(forest Forest, f Filter) Forest {
	if f.IsZero() {
		out := forest.Clone()
		Rollup(out.Roots, out.Rates)
		AssignIndexes(out.Roots)
		return out
	}

	out := Forest{
		Roots:  filterNodes(forest.Roots, newMatcher(f)),
		Rates:  forest.Rates,
		Report: forest.Report,
	}
	Rollup(out.Roots, out.Rates)
	AssignIndexes(out.Roots)
	return out
}
