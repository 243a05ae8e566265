package tree

import (
	"strings"
	"testing"

	"checklist-cli/internal/model"
)

func rowIDs(rows []Row) string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, strings.Repeat(">", r.Depth)+r.Item.ID)
	}
	return strings.Join(out, " ")
}

func sampleForest() []*model.ChecklistItem {
	return Build([]model.ChecklistItem{
		{ID: "a", Position: 0},
		{ID: "a1", ParentID: strPtr("a"), Position: 0, IsCompleted: true},
		{ID: "a2", ParentID: strPtr("a"), Position: 1},
		{ID: "a2x", ParentID: strPtr("a2"), Position: 0},
		{ID: "b", Position: 1},
	})
}

func TestVisible_ExpandedByDefault(t *testing.T) {
	rows := Visible(sampleForest(), NewExpandState())
	if got := rowIDs(rows); got != "a >a1 >a2 >>a2x b" {
		t.Fatalf("got %q", got)
	}
	if !rows[0].HasChildren || rows[0].Done != 1 || rows[0].Total != 2 {
		t.Fatalf("unexpected progress for a: %+v", rows[0])
	}
	if rows[4].HasChildren || rows[4].Total != 0 {
		t.Fatalf("unexpected row for b: %+v", rows[4])
	}
}

func TestVisible_CollapsedSubtreeHidden(t *testing.T) {
	roots := sampleForest()
	st := NewExpandState()
	if !st.Toggle("a2") {
		t.Fatalf("expected a2 collapsed after toggle")
	}
	if got := rowIDs(Visible(roots, st)); got != "a >a1 >a2 b" {
		t.Fatalf("got %q", got)
	}

	st.Collapse("a")
	rows := Visible(roots, st)
	if got := rowIDs(rows); got != "a b" {
		t.Fatalf("got %q", got)
	}
	if !rows[0].Collapsed {
		t.Fatalf("expected a marked collapsed")
	}

	st.ExpandAll()
	if got := rowIDs(Visible(roots, st)); got != "a >a1 >a2 >>a2x b" {
		t.Fatalf("after ExpandAll got %q", got)
	}
}

func TestExpandState_LeafNeverRendersCollapsed(t *testing.T) {
	st := NewExpandState("b")
	rows := Visible(sampleForest(), st)
	if rows[len(rows)-1].Collapsed {
		t.Fatalf("leaf b must not render as collapsed")
	}
}

func TestExpandState_CollapseAllAndPrune(t *testing.T) {
	roots := sampleForest()
	st := NewExpandState("gone")
	st.CollapseAll(roots)
	if got := strings.Join(st.IDs(), ","); got != "a,a2,gone" {
		t.Fatalf("IDs after CollapseAll: %q", got)
	}
	st.Prune(roots)
	if got := strings.Join(st.IDs(), ","); got != "a,a2" {
		t.Fatalf("IDs after Prune: %q", got)
	}
	if got := rowIDs(Visible(roots, st)); got != "a b" {
		t.Fatalf("got %q", got)
	}
}
