package tree

import (
	"sort"
	"strings"

	"checklist-cli/internal/model"
)

// ExpandState tracks which nodes are collapsed. Nodes are expanded by default, so a
// freshly rebuilt forest keeps its view state as long as ids survive.
type ExpandState struct {
	collapsed map[string]bool
}

func NewExpandState(collapsedIDs ...string) *ExpandState {
	st := &ExpandState{collapsed: map[string]bool{}}
	for _, id := range collapsedIDs {
		if id = strings.TrimSpace(id); id != "" {
			st.collapsed[id] = true
		}
	}
	return st
}

func (s *ExpandState) IsCollapsed(id string) bool {
	if s == nil {
		return false
	}
	return s.collapsed[id]
}

func (s *ExpandState) Collapse(id string) { s.set(id, true) }
func (s *ExpandState) Expand(id string)   { s.set(id, false) }

// Toggle flips id and reports whether it is now collapsed.
func (s *ExpandState) Toggle(id string) bool {
	next := !s.IsCollapsed(id)
	s.set(id, next)
	return next
}

func (s *ExpandState) ExpandAll() {
	s.collapsed = map[string]bool{}
}

// CollapseAll collapses every node that has children.
func (s *ExpandState) CollapseAll(roots []*model.ChecklistItem) {
	for _, n := range Flatten(roots) {
		if len(n.Children) > 0 {
			s.set(n.ID, true)
		}
	}
}

// Prune forgets ids that are no longer in the forest.
func (s *ExpandState) Prune(roots []*model.ChecklistItem) {
	if s == nil {
		return
	}
	present := map[string]bool{}
	for _, n := range Flatten(roots) {
		present[n.ID] = true
	}
	for id := range s.collapsed {
		if !present[id] {
			delete(s.collapsed, id)
		}
	}
}

// IDs returns the collapsed ids, sorted.
func (s *ExpandState) IDs() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.collapsed))
	for id, c := range s.collapsed {
		if c {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func (s *ExpandState) set(id string, collapsed bool) {
	id = strings.TrimSpace(id)
	if s == nil || id == "" {
		return
	}
	if s.collapsed == nil {
		s.collapsed = map[string]bool{}
	}
	if collapsed {
		s.collapsed[id] = true
		return
	}
	delete(s.collapsed, id)
}

// Row is one rendered line of the checklist.
type Row struct {
	Item        *model.ChecklistItem
	Depth       int
	HasChildren bool
	Collapsed   bool

	// Done/Total count direct children only.
	Done  int
	Total int
}

// Visible flattens the forest into rows, skipping the subtrees of collapsed nodes.
func Visible(roots []*model.ChecklistItem, st *ExpandState) []Row {
	var out []Row
	var walk func(level []*model.ChecklistItem, depth int)
	walk = func(level []*model.ChecklistItem, depth int) {
		for _, n := range level {
			done := 0
			for _, ch := range n.Children {
				if ch.IsCompleted {
					done++
				}
			}
			collapsed := len(n.Children) > 0 && st.IsCollapsed(n.ID)
			out = append(out, Row{
				Item:        n,
				Depth:       depth,
				HasChildren: len(n.Children) > 0,
				Collapsed:   collapsed,
				Done:        done,
				Total:       len(n.Children),
			})
			if collapsed {
				continue
			}
			walk(n.Children, depth+1)
		}
	}
	walk(roots, 0)
	return out
}
