package tui

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"checklist-cli/internal/checklist"
	"checklist-cli/internal/model"
	"checklist-cli/internal/store"
	"checklist-cli/internal/tree"
	"checklist-cli/internal/uistate"

	tea "github.com/charmbracelet/bubbletea"
)

type fixture struct {
	st   *store.SQLStore
	mgr  *checklist.Manager
	ui   uistate.Store
	task model.Task
}

// newFixture seeds: Alpha (Alpha one [done], Alpha two), Beta.
func newFixture(t *testing.T, collapsed ...string) (appModel, fixture) {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	st, err := store.OpenDir(ctx, dir)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	task, err := st.CreateTask(ctx, "Launch site")
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	a := "chk-a"
	seed := []model.ChecklistItem{
		{ID: "chk-a", TaskID: task.ID, Text: "Alpha", Position: 0},
		{ID: "chk-b", TaskID: task.ID, Text: "Beta", Position: 1},
		{ID: "chk-a1", TaskID: task.ID, ParentID: &a, Text: "Alpha one", Position: 0, IsCompleted: true},
		{ID: "chk-a2", TaskID: task.ID, ParentID: &a, Text: "Alpha two", Position: 1},
	}
	if _, err := st.InsertBatch(ctx, seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	mgr := checklist.New(st, task.ID, checklist.Options{})
	if err := mgr.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	ui := uistate.NewFileStore(dir)
	m := newModel(ctx, Options{Manager: mgr, Task: task, UI: ui, Collapsed: collapsed})
	return m, fixture{st: st, mgr: mgr, ui: ui, task: task}
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func press(t *testing.T, m appModel, msg tea.Msg) (appModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	am, ok := next.(appModel)
	if !ok {
		t.Fatalf("unexpected model type %T", next)
	}
	return am, cmd
}

// settle runs an operation command (alone or inside a batch) and feeds its result back
// into the model. Other commands of a batch run for their side effects only.
func settle(t *testing.T, m appModel, cmd tea.Cmd) appModel {
	t.Helper()
	if cmd == nil {
		t.Fatalf("expected an operation command")
	}
	msgs := []tea.Msg{cmd()}
	if batch, ok := msgs[0].(tea.BatchMsg); ok {
		msgs = msgs[:0]
		for _, c := range batch {
			if c != nil {
				msgs = append(msgs, c())
			}
		}
	}
	for _, msg := range msgs {
		if done, ok := msg.(opDoneMsg); ok {
			m, _ = press(t, m, done)
			return m
		}
	}
	t.Fatalf("expected opDoneMsg among %#v", msgs)
	return m
}

func visibleIDs(m appModel) []string {
	out := make([]string, 0, len(m.rows))
	for _, r := range m.rows {
		out = append(out, r.Item.ID)
	}
	return out
}

func cursorID(m appModel) string {
	it, ok := m.selected()
	if !ok {
		return ""
	}
	return it.ID
}

func TestView_RendersForestWithCounts(t *testing.T) {
	m, _ := newFixture(t)
	m, _ = press(t, m, tea.WindowSizeMsg{Width: 80, Height: 30})

	out := m.View()
	for _, want := range []string{"Launch site", "1 of 4 done", "[ ] Alpha", "1/2", "[x] Alpha one", "[ ] Beta"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in view:\n%s", want, out)
		}
	}
}

func TestView_EmptyChecklistShowsHint(t *testing.T) {
	ctx := context.Background()
	st, err := store.OpenDir(ctx, t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	task, err := st.CreateTask(ctx, "Empty")
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	mgr := checklist.New(st, task.ID, checklist.Options{})
	if err := mgr.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	m := newModel(ctx, Options{Manager: mgr, Task: task})
	if out := m.View(); !strings.Contains(out, "No items yet") {
		t.Fatalf("expected empty hint, got:\n%s", out)
	}
}

func TestNavigation_CursorStaysInBounds(t *testing.T) {
	m, _ := newFixture(t)
	if got := cursorID(m); got != "chk-a" {
		t.Fatalf("expected cursor on first row, got %q", got)
	}
	m, _ = press(t, m, runeKey('k'))
	if got := cursorID(m); got != "chk-a" {
		t.Fatalf("expected cursor clamped at top, got %q", got)
	}
	for i := 0; i < 10; i++ {
		m, _ = press(t, m, runeKey('j'))
	}
	if got := cursorID(m); got != "chk-b" {
		t.Fatalf("expected cursor clamped at bottom, got %q", got)
	}
}

func TestFold_PersistsCollapsedState(t *testing.T) {
	m, fx := newFixture(t)

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if got, want := visibleIDs(m), []string{"chk-a", "chk-b"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("rows after collapse = %v, want %v", got, want)
	}
	if cmd == nil {
		t.Fatalf("expected a save command")
	}
	_ = cmd()
	ids, err := fx.ui.Collapsed(context.Background(), fx.task.ID)
	if err != nil {
		t.Fatalf("collapsed: %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"chk-a"}) {
		t.Fatalf("persisted collapsed = %v", ids)
	}

	m, _ = press(t, m, runeKey('l'))
	if got := len(m.rows); got != 4 {
		t.Fatalf("expected 4 rows after expand, got %d", got)
	}
}

func TestFold_RestoresCollapsedIDs(t *testing.T) {
	m, _ := newFixture(t, "chk-a")
	if got, want := visibleIDs(m), []string{"chk-a", "chk-b"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("rows = %v, want %v", got, want)
	}
	if !strings.Contains(m.View(), "▸") {
		t.Fatalf("expected collapsed glyph in view")
	}
}

func TestCollapseKey_OnLeafJumpsToParent(t *testing.T) {
	m, _ := newFixture(t)
	m, _ = press(t, m, runeKey('j'))
	m, _ = press(t, m, runeKey('j'))
	if got := cursorID(m); got != "chk-a2" {
		t.Fatalf("expected cursor on chk-a2, got %q", got)
	}
	m, _ = press(t, m, runeKey('h'))
	if got := cursorID(m); got != "chk-a" {
		t.Fatalf("expected cursor on parent, got %q", got)
	}
}

func TestExpandCollapseAll(t *testing.T) {
	m, _ := newFixture(t)
	m, _ = press(t, m, runeKey('C'))
	if got := len(m.rows); got != 2 {
		t.Fatalf("expected 2 rows after collapse all, got %d", got)
	}
	m, _ = press(t, m, runeKey('E'))
	if got := len(m.rows); got != 4 {
		t.Fatalf("expected 4 rows after expand all, got %d", got)
	}
}

func TestToggle_SpaceFlipsCompletion(t *testing.T) {
	m, fx := newFixture(t)
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	m = settle(t, m, cmd)

	it, ok := fx.mgr.Item("chk-a")
	if !ok || !it.IsCompleted {
		t.Fatalf("expected chk-a completed, got %+v", it)
	}
	if got := cursorID(m); got != "chk-a" {
		t.Fatalf("expected cursor to stay on chk-a, got %q", got)
	}
	rows, err := fx.st.List(context.Background(), fx.task.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, r := range rows {
		if r.ID == "chk-a" && !r.IsCompleted {
			t.Fatalf("expected stored row completed")
		}
	}
}

func TestAdd_SubItemLandsUnderParent(t *testing.T) {
	m, fx := newFixture(t)
	m, _ = press(t, m, runeKey('A'))
	if m.mode != modeAdd || m.addParent != "chk-a" {
		t.Fatalf("expected add mode for chk-a, got mode=%v parent=%q", m.mode, m.addParent)
	}
	if !strings.Contains(m.View(), "Add sub-item to Alpha") {
		t.Fatalf("expected sub-item prompt in view")
	}
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("Alpha three")})
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = settle(t, m, cmd)

	if m.mode != modeList {
		t.Fatalf("expected list mode after submit")
	}
	a, ok := tree.Find(fx.mgr.Roots(), "chk-a")
	if !ok || len(a.Children) != 3 {
		t.Fatalf("expected 3 children under chk-a, got %+v", a)
	}
	added := a.Children[2]
	if added.Text != "Alpha three" || added.Position != 2 {
		t.Fatalf("unexpected new child: %+v", added)
	}
	if got := cursorID(m); got != added.ID {
		t.Fatalf("expected cursor on new item %q, got %q", added.ID, got)
	}
}

func TestAdd_SubItemUnderCollapsedParentPersistsExpansion(t *testing.T) {
	m, fx := newFixture(t, "chk-a")
	if err := fx.ui.SetCollapsed(context.Background(), fx.task.ID, []string{"chk-a"}); err != nil {
		t.Fatalf("seed collapsed: %v", err)
	}

	m, _ = press(t, m, runeKey('A'))
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("Alpha three")})
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = settle(t, m, cmd)

	if m.expand.IsCollapsed("chk-a") {
		t.Fatalf("expected parent expanded after adding a sub-item")
	}
	if got := len(m.rows); got != 5 {
		t.Fatalf("expected 5 visible rows, got %d", got)
	}
	ids, err := fx.ui.Collapsed(context.Background(), fx.task.ID)
	if err != nil {
		t.Fatalf("collapsed: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected expansion persisted, still collapsed: %v", ids)
	}
}

func TestAdd_EmptyTextKeepsPrompt(t *testing.T) {
	m, fx := newFixture(t)
	m, _ = press(t, m, runeKey('a'))
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatalf("expected notice tick")
	}
	if m.mode != modeAdd {
		t.Fatalf("expected to stay in add mode")
	}
	if !m.noticeErr || m.notice != "Text must not be empty" {
		t.Fatalf("unexpected notice %q (err=%v)", m.notice, m.noticeErr)
	}
	if got := fx.mgr.Len(); got != 4 {
		t.Fatalf("expected no new item, got %d items", got)
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.mode != modeList {
		t.Fatalf("expected esc to leave add mode")
	}
}

func TestImport_AppendsRootsAndShowsNotice(t *testing.T) {
	m, fx := newFixture(t)
	m, _ = press(t, m, runeKey('i'))
	if m.mode != modeImport {
		t.Fatalf("expected import mode")
	}
	m.importArea.SetValue("Gamma\n\n  \nDelta")
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	m = settle(t, m, cmd)

	if m.notice != "Imported 2 items" || m.noticeErr {
		t.Fatalf("unexpected notice %q (err=%v)", m.notice, m.noticeErr)
	}
	roots := fx.mgr.Roots()
	var texts []string
	for _, r := range roots {
		texts = append(texts, r.Text)
	}
	if want := []string{"Alpha", "Beta", "Gamma", "Delta"}; !reflect.DeepEqual(texts, want) {
		t.Fatalf("roots = %v, want %v", texts, want)
	}
	if roots[2].Position != 2 || roots[3].Position != 3 {
		t.Fatalf("unexpected import positions: %d, %d", roots[2].Position, roots[3].Position)
	}
}

func TestDelete_MovesCursorToNextRow(t *testing.T) {
	m, fx := newFixture(t)
	m, _ = press(t, m, runeKey('j'))
	m, cmd := press(t, m, runeKey('d'))
	m = settle(t, m, cmd)

	if _, ok := fx.mgr.Item("chk-a1"); ok {
		t.Fatalf("expected chk-a1 deleted")
	}
	if got := cursorID(m); got != "chk-a2" {
		t.Fatalf("expected cursor on chk-a2, got %q", got)
	}
}

func TestPickAndDrop_ReordersSiblings(t *testing.T) {
	m, fx := newFixture(t)
	for i := 0; i < 3; i++ {
		m, _ = press(t, m, runeKey('j'))
	}
	m, _ = press(t, m, runeKey('m'))
	if fx.mgr.State() != checklist.Dragging {
		t.Fatalf("expected dragging, got %v", fx.mgr.State())
	}
	if !strings.Contains(m.View(), "Moving Beta") {
		t.Fatalf("expected drag status in view")
	}
	for i := 0; i < 3; i++ {
		m, _ = press(t, m, runeKey('k'))
	}
	m, cmd := press(t, m, runeKey('m'))
	m = settle(t, m, cmd)

	if fx.mgr.State() != checklist.Idle {
		t.Fatalf("expected idle after drop, got %v", fx.mgr.State())
	}
	roots := fx.mgr.Roots()
	if roots[0].ID != "chk-b" || roots[1].ID != "chk-a" {
		t.Fatalf("unexpected root order %s, %s", roots[0].ID, roots[1].ID)
	}
	if got := cursorID(m); got != "chk-b" {
		t.Fatalf("expected cursor to follow moved item, got %q", got)
	}
}

func TestPickAndDrop_CrossParentShowsError(t *testing.T) {
	m, fx := newFixture(t)
	m, _ = press(t, m, runeKey('j'))
	m, _ = press(t, m, runeKey('m'))
	m, _ = press(t, m, runeKey('j'))
	m, _ = press(t, m, runeKey('j'))
	m, cmd := press(t, m, runeKey('m'))
	m = settle(t, m, cmd)

	if !m.noticeErr || !strings.Contains(m.notice, "same parent") {
		t.Fatalf("unexpected notice %q", m.notice)
	}
	a, _ := tree.Find(fx.mgr.Roots(), "chk-a")
	if a.Children[0].ID != "chk-a1" {
		t.Fatalf("expected children unchanged")
	}
}

func TestEsc_CancelsDrag(t *testing.T) {
	m, fx := newFixture(t)
	m, _ = press(t, m, runeKey('m'))
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if fx.mgr.State() != checklist.Idle {
		t.Fatalf("expected idle after esc, got %v", fx.mgr.State())
	}
	_ = m
}

func TestMoveKeys_StepWithinGroup(t *testing.T) {
	m, fx := newFixture(t)
	m, _ = press(t, m, runeKey('j'))
	m, cmd := press(t, m, runeKey('J'))
	m = settle(t, m, cmd)

	a, _ := tree.Find(fx.mgr.Roots(), "chk-a")
	if a.Children[0].ID != "chk-a2" || a.Children[1].ID != "chk-a1" {
		t.Fatalf("unexpected child order %s, %s", a.Children[0].ID, a.Children[1].ID)
	}
	if got := cursorID(m); got != "chk-a1" {
		t.Fatalf("expected cursor on moved item, got %q", got)
	}
}

func TestNotice_ClearsOnlyForLatestTick(t *testing.T) {
	m, _ := newFixture(t)
	_ = m.setNotice("first", false)
	_ = m.setNotice("second", false)

	m, _ = press(t, m, clearNoticeMsg{seq: 1})
	if m.notice != "second" {
		t.Fatalf("stale tick cleared notice")
	}
	m, _ = press(t, m, clearNoticeMsg{seq: 2})
	if m.notice != "" {
		t.Fatalf("expected notice cleared, got %q", m.notice)
	}
}

func TestQuit(t *testing.T) {
	m, _ := newFixture(t)
	_, cmd := press(t, m, runeKey('q'))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func TestTruncateToWidth(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		w    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"too long here", 8, "too lon…"},
		{"abc", 1, "a"},
		{"abc", 0, ""},
	}
	for _, tc := range cases {
		if got := truncateToWidth(tc.in, tc.w); got != tc.want {
			t.Fatalf("truncateToWidth(%q, %d) = %q, want %q", tc.in, tc.w, got, tc.want)
		}
	}
}
