package tree

import (
	"reflect"
	"strings"
	"testing"

	"checklist-cli/internal/model"
)

func strPtr(s string) *string { return &s }

func ids(level []*model.ChecklistItem) string {
	out := make([]string, 0, len(level))
	for _, n := range level {
		out = append(out, n.ID)
	}
	return strings.Join(out, ",")
}

func TestBuild_RootsAndChildren(t *testing.T) {
	items := []model.ChecklistItem{
		{ID: "1", Position: 0},
		{ID: "2", Position: 1},
		{ID: "3", ParentID: strPtr("1"), Position: 0},
	}
	roots := Build(items)
	if got := ids(roots); got != "1,2" {
		t.Fatalf("expected roots 1,2; got %s", got)
	}
	if got := ids(roots[0].Children); got != "3" {
		t.Fatalf("expected 1.children=3; got %s", got)
	}
	if len(roots[1].Children) != 0 {
		t.Fatalf("expected 2 to have no children; got %s", ids(roots[1].Children))
	}
}

func TestBuild_SortsEveryLevelByPosition(t *testing.T) {
	items := []model.ChecklistItem{
		{ID: "c", ParentID: strPtr("p"), Position: 7},
		{ID: "r2", Position: 5},
		{ID: "a", ParentID: strPtr("p"), Position: 1},
		{ID: "p", Position: 2},
		{ID: "b", ParentID: strPtr("p"), Position: 3},
		{ID: "deep2", ParentID: strPtr("a"), Position: 9},
		{ID: "deep1", ParentID: strPtr("a"), Position: 0},
	}
	roots := Build(items)
	if got := ids(roots); got != "p,r2" {
		t.Fatalf("roots: got %s", got)
	}
	if got := ids(roots[0].Children); got != "a,b,c" {
		t.Fatalf("children of p: got %s", got)
	}
	if got := ids(roots[0].Children[0].Children); got != "deep1,deep2" {
		t.Fatalf("children of a: got %s", got)
	}
}

func TestBuild_EqualPositionsKeepInputOrder(t *testing.T) {
	items := []model.ChecklistItem{
		{ID: "x", Position: 1},
		{ID: "y", Position: 0},
		{ID: "z", Position: 1},
		{ID: "w", Position: 1},
	}
	if got := ids(Build(items)); got != "y,x,z,w" {
		t.Fatalf("expected stable tie-break y,x,z,w; got %s", got)
	}
}

func TestBuild_DanglingParentBecomesRoot(t *testing.T) {
	items := []model.ChecklistItem{
		{ID: "a", Position: 1},
		{ID: "orphan", ParentID: strPtr("gone"), Position: 0},
	}
	roots := Build(items)
	if got := ids(roots); got != "orphan,a" {
		t.Fatalf("expected orphan placed at root; got %s", got)
	}
	if d := Dangling(items); len(d) != 1 || d[0] != "orphan" {
		t.Fatalf("expected orphan reported as dangling; got %v", d)
	}
}

func TestBuild_PreservesCount(t *testing.T) {
	tests := []struct {
		name  string
		items []model.ChecklistItem
	}{
		{name: "empty"},
		{name: "flat", items: []model.ChecklistItem{{ID: "a"}, {ID: "b"}, {ID: "c"}}},
		{
			name: "chain",
			items: []model.ChecklistItem{
				{ID: "a"},
				{ID: "b", ParentID: strPtr("a")},
				{ID: "c", ParentID: strPtr("b")},
				{ID: "d", ParentID: strPtr("c")},
			},
		},
		{
			name: "dangling and blank parents",
			items: []model.ChecklistItem{
				{ID: "a", ParentID: strPtr("")},
				{ID: "b", ParentID: strPtr("nope")},
				{ID: "c", ParentID: strPtr("b")},
			},
		},
		{
			name: "cycle",
			items: []model.ChecklistItem{
				{ID: "a", ParentID: strPtr("b")},
				{ID: "b", ParentID: strPtr("a")},
				{ID: "r"},
			},
		},
		{
			name:  "self parent",
			items: []model.ChecklistItem{{ID: "a", ParentID: strPtr("a")}},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			roots := Build(tt.items)
			if got := Count(roots); got != len(tt.items) {
				t.Fatalf("Count: got %d want %d", got, len(tt.items))
			}
			if got := len(Flatten(roots)); got != len(tt.items) {
				t.Fatalf("Flatten: got %d want %d", got, len(tt.items))
			}
		})
	}
}

func TestBuild_CycleIsCutAtFirstItem(t *testing.T) {
	items := []model.ChecklistItem{
		{ID: "a", ParentID: strPtr("b")},
		{ID: "b", ParentID: strPtr("a")},
	}
	roots := Build(items)
	if got := ids(roots); got != "a" {
		t.Fatalf("expected a promoted to root; got %s", got)
	}
	if got := ids(roots[0].Children); got != "b" {
		t.Fatalf("expected b under a; got %s", got)
	}
}

func TestBuild_IsIdempotentAndDoesNotMutateInput(t *testing.T) {
	items := []model.ChecklistItem{
		{ID: "1", Position: 1, Text: "one"},
		{ID: "2", Position: 0, Text: "two"},
		{ID: "3", ParentID: strPtr("1"), Position: 0, Text: "three"},
	}
	before := append([]model.ChecklistItem(nil), items...)

	a := Build(items)
	b := Build(items)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("expected identical forests")
	}
	if !reflect.DeepEqual(items, before) {
		t.Fatalf("input was mutated")
	}
	a[0].Text = "changed"
	if b[0].Text == "changed" {
		t.Fatalf("forests share nodes")
	}
}

func TestSiblingsAndGroupOf(t *testing.T) {
	items := []model.ChecklistItem{
		{ID: "p", Position: 0},
		{ID: "c1", ParentID: strPtr("p"), Position: 0},
		{ID: "c2", ParentID: strPtr("p"), Position: 4},
		{ID: "orphan", ParentID: strPtr("missing"), Position: 1},
	}
	roots := Build(items)

	sibs, ok := Siblings(roots, "p")
	if !ok || ids(sibs) != "c1,c2" {
		t.Fatalf("Siblings(p): ok=%v got %s", ok, ids(sibs))
	}
	if _, ok := Siblings(roots, "missing"); ok {
		t.Fatalf("expected Siblings of unknown parent to fail")
	}
	if got := MaxPosition(sibs); got != 4 {
		t.Fatalf("MaxPosition: got %d", got)
	}
	if got := MaxPosition(nil); got != -1 {
		t.Fatalf("MaxPosition(empty): got %d", got)
	}

	group, parent, ok := GroupOf(roots, "orphan")
	if !ok || parent != "" || ids(group) != "p,orphan" {
		t.Fatalf("GroupOf(orphan): ok=%v parent=%q group=%s", ok, parent, ids(group))
	}
	group, parent, ok = GroupOf(roots, "c2")
	if !ok || parent != "p" || ids(group) != "c1,c2" {
		t.Fatalf("GroupOf(c2): ok=%v parent=%q group=%s", ok, parent, ids(group))
	}
}

func TestDescendants_DeepestFirst(t *testing.T) {
	items := []model.ChecklistItem{
		{ID: "a"},
		{ID: "b", ParentID: strPtr("a"), Position: 0},
		{ID: "c", ParentID: strPtr("b")},
		{ID: "d", ParentID: strPtr("a"), Position: 1},
	}
	roots := Build(items)
	if got := ids(Descendants(roots[0])); got != "c,b,d" {
		t.Fatalf("got %s", got)
	}
}
