// Package tree turns flat checklist rows into a sorted forest and flattens it back
// into the rows a UI renders.
package tree

import (
	"sort"
	"strings"

	"checklist-cli/internal/model"
)

// Build converts a flat list of items into a forest sorted by position at every level.
//
// The input is not modified: every returned node is a fresh copy. Items whose parent is
// missing are placed at the root. Items caught in a parent cycle are unreachable from any
// root; the first of them (in input order) is promoted to a root so nothing is dropped.
func Build(items []model.ChecklistItem) []*model.ChecklistItem {
	nodes := make([]*model.ChecklistItem, len(items))
	byID := make(map[string]*model.ChecklistItem, len(items))
	order := make(map[*model.ChecklistItem]int, len(items))
	for i := range items {
		n := items[i].Clone()
		n.Children = []*model.ChecklistItem{}
		nodes[i] = &n
		order[&n] = i
		// Duplicate ids: first one wins the lookup, the rest still get placed.
		if _, ok := byID[n.ID]; !ok {
			byID[n.ID] = &n
		}
	}

	var roots []*model.ChecklistItem
	for _, n := range nodes {
		pid := strings.TrimSpace(n.ParentKey())
		if pid == "" {
			roots = append(roots, n)
			continue
		}
		p, ok := byID[pid]
		if !ok || p == n {
			roots = append(roots, n)
			continue
		}
		p.Children = append(p.Children, n)
	}

	reached := make(map[*model.ChecklistItem]bool, len(nodes))
	markReached(roots, reached)
	if len(reached) < len(nodes) {
		roots = promoteCycles(nodes, roots, reached)
	}

	sortLevel(roots, order)
	return roots
}

func markReached(level []*model.ChecklistItem, reached map[*model.ChecklistItem]bool) {
	for _, n := range level {
		if reached[n] {
			continue
		}
		reached[n] = true
		markReached(n.Children, reached)
	}
}

func promoteCycles(nodes, roots []*model.ChecklistItem, reached map[*model.ChecklistItem]bool) []*model.ChecklistItem {
	for _, n := range nodes {
		if reached[n] {
			continue
		}
		// Detach n from its parent's children so the cycle is cut at n.
		for _, p := range nodes {
			if reached[p] {
				continue
			}
			for i, ch := range p.Children {
				if ch == n {
					p.Children = append(p.Children[:i:i], p.Children[i+1:]...)
					break
				}
			}
		}
		roots = append(roots, n)
		markReached([]*model.ChecklistItem{n}, reached)
	}
	return roots
}

func sortLevel(level []*model.ChecklistItem, order map[*model.ChecklistItem]int) {
	sort.SliceStable(level, func(i, j int) bool {
		if level[i].Position != level[j].Position {
			return level[i].Position < level[j].Position
		}
		return order[level[i]] < order[level[j]]
	})
	for _, n := range level {
		sortLevel(n.Children, order)
	}
}

// Flatten returns every node in depth-first pre-order.
func Flatten(roots []*model.ChecklistItem) []*model.ChecklistItem {
	var out []*model.ChecklistItem
	var walk func(level []*model.ChecklistItem)
	walk = func(level []*model.ChecklistItem) {
		for _, n := range level {
			out = append(out, n)
			walk(n.Children)
		}
	}
	walk(roots)
	return out
}

func Count(roots []*model.ChecklistItem) int {
	n := 0
	for _, r := range roots {
		n += 1 + Count(r.Children)
	}
	return n
}

// Find returns the node with the given id.
func Find(roots []*model.ChecklistItem, id string) (*model.ChecklistItem, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, false
	}
	for _, n := range roots {
		if n.ID == id {
			return n, true
		}
		if hit, ok := Find(n.Children, id); ok {
			return hit, true
		}
	}
	return nil, false
}

// Siblings returns the sibling group for parentID ("" means the root level), in display order.
// The second result is false when parentID names an item that is not in the forest.
func Siblings(roots []*model.ChecklistItem, parentID string) ([]*model.ChecklistItem, bool) {
	parentID = strings.TrimSpace(parentID)
	if parentID == "" {
		return roots, true
	}
	p, ok := Find(roots, parentID)
	if !ok {
		return nil, false
	}
	return p.Children, true
}

// GroupOf returns the sibling group the node with id is displayed in, which is the root
// level for items with a dangling parent.
func GroupOf(roots []*model.ChecklistItem, id string) ([]*model.ChecklistItem, string, bool) {
	var found []*model.ChecklistItem
	parent := ""
	ok := false
	var walk func(level []*model.ChecklistItem, pid string) bool
	walk = func(level []*model.ChecklistItem, pid string) bool {
		for _, n := range level {
			if n.ID == id {
				found, parent, ok = level, pid, true
				return true
			}
			if walk(n.Children, n.ID) {
				return true
			}
		}
		return false
	}
	walk(roots, "")
	return found, parent, ok
}

// MaxPosition returns the highest position in the group, or -1 for an empty group.
func MaxPosition(group []*model.ChecklistItem) int {
	max := -1
	for _, n := range group {
		if n.Position > max {
			max = n.Position
		}
	}
	return max
}

// Descendants returns every node below n, deepest first.
func Descendants(n *model.ChecklistItem) []*model.ChecklistItem {
	if n == nil {
		return nil
	}
	var out []*model.ChecklistItem
	for _, ch := range n.Children {
		out = append(out, Descendants(ch)...)
		out = append(out, ch)
	}
	return out
}

// Dangling returns the ids of items whose parent is not among items. Build places them at
// the root; callers only need this for reporting.
func Dangling(items []model.ChecklistItem) []string {
	known := make(map[string]bool, len(items))
	for _, it := range items {
		known[it.ID] = true
	}
	var out []string
	for _, it := range items {
		if pid := strings.TrimSpace(it.ParentKey()); pid != "" && !known[pid] {
			out = append(out, it.ID)
		}
	}
	return out
}
