package services

import "strings"

// Filter is the search/status selection applied to an estimate.
type Filter struct {
	Search string `json:"search,omitempty"`
	Status string `json:"status,omitempty"`
}

// IsZero reports whether the filter keeps everything.
func (f Filter) IsZero() bool {
	return strings.TrimSpace(f.Search) == "" && (f.Status == "" || f.Status == StatusAll)
}

type matcher struct {
	search string // lower-cased, trimmed
	status string // "" matches any
}

func newMatcher(f Filter) matcher {
	m := matcher{search: strings.ToLower(strings.TrimSpace(f.Search))}
	if f.Status != StatusAll {
		m.status = f.Status
	}
	return m
}

func (m matcher) nameMatches(name string) bool {
	return m.search == "" || strings.Contains(strings.ToLower(name), m.search)
}

// leaf matches on name and status.
func (m matcher) leaf(it EstimateItem) bool {
	if !m.nameMatches(it.Name) {
		return false
	}
	return m.status == "" || it.Status == m.status
}

// branch matches on its own name only when a search term is set; status
// never applies to structures and elements.
func (m matcher) branch(it EstimateItem) bool {
	return m.search != "" && m.nameMatches(it.Name)
}

// filterNodes returns filtered copies of nodes. The input is left untouched.
func filterNodes(nodes []*TreeNode, m matcher) []*TreeNode {
	var kept []*TreeNode
	for _, n := range nodes {
		if n.Item.IsLeaf() {
			if m.leaf(n.Item) {
				kept = append(kept, &TreeNode{Item: n.Item})
			}
			continue
		}

		children := filterNodes(n.Children, m)
		if len(children) > 0 || m.branch(n.Item) {
			kept = append(kept, &TreeNode{Item: n.Item, Children: children})
		}
	}
	return kept
}
