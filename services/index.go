package services

import "strconv"

// AssignIndexes labels every node with its 1-based position among its
// siblings, prefixed by the parent's label ("1", "1.2", "1.2.3").
func AssignIndexes(roots []*TreeNode) {
	assignIndexes(roots, "")
}

func assignIndexes(nodes []*TreeNode, prefix string) {
	for i, n := range nodes {
		idx := strconv.Itoa(i + 1)
		if prefix != "" {
			idx = prefix + "." + idx
		}
		n.Index = idx
		assignIndexes(n.Children, idx)
	}
}

// ParseIndex splits a dotted index into its level and parent index.
// It returns ok=false when s is not one to three positive integers joined
// by dots.
func ParseIndex(s string) (level int, parent string, position int, ok bool) {
	if s == "" {
		return 0, "", 0, false
	}
	start := 0
	segments := 0
	for i := 0; i <= len(s); i++ {
		if i < len(s) && s[i] != '.' {
			if s[i] < '0' || s[i] > '9' {
				return 0, "", 0, false
			}
			continue
		}
		n, err := strconv.Atoi(s[start:i])
		if err != nil || n < 1 {
			return 0, "", 0, false
		}
		segments++
		position = n
		if i < len(s) {
			parent = s[:i]
		}
		start = i + 1
	}
	if segments > LevelItem+1 {
		return 0, "", 0, false
	}
	return segments - 1, parent, position, true
}
