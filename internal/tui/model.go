package tui

import (
	"context"
	"strings"
	"sync"
	"time"

	"checklist-cli/internal/checklist"
	"checklist-cli/internal/logging"
	"checklist-cli/internal/model"
	"checklist-cli/internal/tree"
	"checklist-cli/internal/uistate"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
)

const noticeTTL = 4 * time.Second

type mode int

const (
	modeList mode = iota
	modeAdd
	modeImport
)

// opDoneMsg reports a finished store operation. focusID is where the cursor should land.
type opDoneMsg struct {
	op      string
	err     error
	focusID string
	drop    *checklist.DropResult
}

type clearNoticeMsg struct{ seq int }

// noticeBox collects manager notices until the next opDoneMsg is handled.
type noticeBox struct {
	mu    sync.Mutex
	items []checklist.Notice
}

func (b *noticeBox) push(n checklist.Notice) {
	b.mu.Lock()
	b.items = append(b.items, n)
	b.mu.Unlock()
}

func (b *noticeBox) drain() []checklist.Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.items
	b.items = nil
	return out
}

type appModel struct {
	ctx  context.Context
	mgr  *checklist.Manager
	task model.Task
	ui   uistate.Store
	log  *log.Logger

	expand *tree.ExpandState
	rows   []tree.Row
	cursor int

	width  int
	height int

	mode       mode
	addParent  string
	input      textinput.Model
	importArea textarea.Model

	keys   keyMap
	help   help.Model
	styles styles

	pending   int
	notice    string
	noticeErr bool
	noticeSeq int
	notices   *noticeBox
}

func newModel(ctx context.Context, opts Options) appModel {
	lg := opts.Logger
	if lg == nil {
		lg = logging.Discard()
	}

	in := textinput.New()
	in.Placeholder = "Item text"
	in.CharLimit = 500
	in.Width = 60

	ta := textarea.New()
	ta.Placeholder = "One item per line"
	ta.ShowLineNumbers = false
	ta.SetWidth(60)
	ta.SetHeight(8)

	box := &noticeBox{}
	opts.Manager.OnNotice(box.push)

	m := appModel{
		ctx:        ctx,
		mgr:        opts.Manager,
		task:       opts.Task,
		ui:         opts.UI,
		log:        lg,
		expand:     tree.NewExpandState(opts.Collapsed...),
		input:      in,
		importArea: ta,
		keys:       defaultKeyMap(),
		help:       help.New(),
		styles:     newStyles(),
		notices:    box,
	}
	m.rebuild("")
	return m
}

func (m appModel) Init() tea.Cmd { return nil }

// rebuild re-reads the manager's forest and keeps the cursor on focusID when it is visible.
func (m *appModel) rebuild(focusID string) {
	if focusID == "" {
		if it, ok := m.selected(); ok {
			focusID = it.ID
		}
	}
	roots := m.mgr.Roots()
	m.rows = tree.Visible(roots, m.expand)
	if focusID != "" {
		for i, r := range m.rows {
			if r.Item.ID == focusID {
				m.cursor = i
				return
			}
		}
	}
	m.clampCursor()
}

func (m *appModel) clampCursor() {
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m appModel) selected() (*model.ChecklistItem, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil, false
	}
	return m.rows[m.cursor].Item, true
}

func (m *appModel) setNotice(text string, isErr bool) tea.Cmd {
	m.noticeSeq++
	m.notice = text
	m.noticeErr = isErr
	seq := m.noticeSeq
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg { return clearNoticeMsg{seq: seq} })
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		if msg.Width > 8 {
			m.input.Width = msg.Width - 8
			m.importArea.SetWidth(msg.Width - 6)
		}
		return m, nil

	case clearNoticeMsg:
		if msg.seq == m.noticeSeq {
			m.notice = ""
			m.noticeErr = false
		}
		return m, nil

	case opDoneMsg:
		return m.handleOpDone(msg)

	case tea.KeyMsg:
		switch m.mode {
		case modeAdd:
			return m.updateAdd(msg)
		case modeImport:
			return m.updateImport(msg)
		default:
			return m.updateList(msg)
		}
	}

	switch m.mode {
	case modeAdd:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	case modeImport:
		var cmd tea.Cmd
		m.importArea, cmd = m.importArea.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m appModel) handleOpDone(msg opDoneMsg) (tea.Model, tea.Cmd) {
	if m.pending > 0 {
		m.pending--
	}
	m.expand.Prune(m.mgr.Roots())
	m.rebuild(msg.focusID)

	if msg.err != nil {
		m.log.Debug("operation failed", "op", msg.op, "err", msg.err)
		return m, m.setNotice(checklist.UserMessage(msg.err), true)
	}
	if msg.drop != nil && msg.drop.Outcome == checklist.OutcomeCrossParent {
		return m, m.setNotice("Items can only be reordered within the same parent", true)
	}
	var last *checklist.Notice
	for _, n := range m.notices.drain() {
		last = &n
	}
	if last != nil {
		return m, m.setNotice(last.Text, last.Kind == checklist.NoticeError)
	}
	return m, nil
}

func (m appModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Fold):
		if m.cursor < len(m.rows) && m.rows[m.cursor].HasChildren {
			m.expand.Toggle(m.rows[m.cursor].Item.ID)
			m.rebuild("")
			return m, m.saveCollapsed()
		}
		return m, nil

	case key.Matches(msg, m.keys.Expand):
		if m.cursor < len(m.rows) && m.rows[m.cursor].Collapsed {
			m.expand.Expand(m.rows[m.cursor].Item.ID)
			m.rebuild("")
			return m, m.saveCollapsed()
		}
		return m, nil

	case key.Matches(msg, m.keys.Collapse):
		if m.cursor >= len(m.rows) {
			return m, nil
		}
		row := m.rows[m.cursor]
		if row.HasChildren && !row.Collapsed {
			m.expand.Collapse(row.Item.ID)
			m.rebuild("")
			return m, m.saveCollapsed()
		}
		// On a leaf or collapsed node, jump to the parent row.
		if pid := row.Item.ParentKey(); pid != "" {
			m.rebuild(pid)
		}
		return m, nil

	case key.Matches(msg, m.keys.ExpandAll):
		m.expand.ExpandAll()
		m.rebuild("")
		return m, m.saveCollapsed()

	case key.Matches(msg, m.keys.CollapseAll):
		m.expand.CollapseAll(m.mgr.Roots())
		m.rebuild("")
		return m, m.saveCollapsed()

	case key.Matches(msg, m.keys.Toggle):
		it, ok := m.selected()
		if !ok {
			return m, nil
		}
		id, done := it.ID, !it.IsCompleted
		m.pending++
		return m, m.run("toggle", id, func(ctx context.Context) error {
			return m.mgr.ToggleItem(ctx, id, done)
		})

	case key.Matches(msg, m.keys.Add):
		return m.startAdd("")

	case key.Matches(msg, m.keys.AddChild):
		it, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m.startAdd(it.ID)

	case key.Matches(msg, m.keys.Delete):
		it, ok := m.selected()
		if !ok {
			return m, nil
		}
		id := it.ID
		focus := ""
		if m.cursor+1 < len(m.rows) {
			focus = m.rows[m.cursor+1].Item.ID
		} else if m.cursor > 0 {
			focus = m.rows[m.cursor-1].Item.ID
		}
		m.pending++
		return m, m.run("delete", focus, func(ctx context.Context) error {
			return m.mgr.DeleteItem(ctx, id)
		})

	case key.Matches(msg, m.keys.Import):
		m.mode = modeImport
		m.importArea.Reset()
		return m, m.importArea.Focus()

	case key.Matches(msg, m.keys.Pick):
		it, ok := m.selected()
		if !ok {
			return m, nil
		}
		if m.mgr.State() == checklist.Dragging {
			dragged, _ := m.mgr.Dragged()
			over := it.ID
			m.pending++
			return m, m.drop(dragged.ID, func(ctx context.Context) (checklist.DropResult, error) {
				return m.mgr.DragEnd(ctx, over)
			})
		}
		if err := m.mgr.DragStart(it.ID); err != nil {
			return m, m.setNotice(checklist.UserMessage(err), true)
		}
		return m, nil

	case key.Matches(msg, m.keys.Cancel):
		if m.mgr.State() == checklist.Dragging {
			m.mgr.DragCancel()
		}
		return m, nil

	case key.Matches(msg, m.keys.MoveUp), key.Matches(msg, m.keys.MoveDown):
		it, ok := m.selected()
		if !ok {
			return m, nil
		}
		delta := 1
		if key.Matches(msg, m.keys.MoveUp) {
			delta = -1
		}
		id := it.ID
		m.pending++
		return m, m.drop(id, func(ctx context.Context) (checklist.DropResult, error) {
			return m.mgr.MoveBy(ctx, id, delta)
		})

	case key.Matches(msg, m.keys.Refresh):
		m.pending++
		return m, m.run("refresh", "", m.mgr.Refresh)
	}
	return m, nil
}

func (m appModel) startAdd(parentID string) (tea.Model, tea.Cmd) {
	m.mode = modeAdd
	m.addParent = parentID
	m.input.SetValue("")
	if parentID != "" {
		m.input.Placeholder = "Sub-item text"
	} else {
		m.input.Placeholder = "Item text"
	}
	return m, m.input.Focus()
}

func (m appModel) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeList
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, m.setNotice(checklist.UserMessage(checklist.ValidationError{Field: "text", Reason: "must not be empty"}), true)
		}
		parent := m.addParent
		m.mode = modeList
		m.input.Blur()
		m.pending++
		add := func() tea.Msg {
			it, err := m.mgr.AddItem(m.ctx, text, parent)
			return opDoneMsg{op: "add", err: err, focusID: it.ID}
		}
		if parent != "" && m.expand.IsCollapsed(parent) {
			// Make the new sub-item visible, and keep it so on the next launch.
			m.expand.Expand(parent)
			return m, tea.Batch(add, m.saveCollapsed())
		}
		return m, add
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m appModel) updateImport(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeList
		m.importArea.Blur()
		return m, nil
	case tea.KeyCtrlS:
		lines := strings.Split(m.importArea.Value(), "\n")
		m.mode = modeList
		m.importArea.Blur()
		m.pending++
		return m, m.run("import", "", func(ctx context.Context) error {
			_, err := m.mgr.BulkImport(ctx, lines)
			return err
		})
	}
	var cmd tea.Cmd
	m.importArea, cmd = m.importArea.Update(msg)
	return m, cmd
}

func (m appModel) run(op, focusID string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: op, err: fn(ctx), focusID: focusID}
	}
}

func (m appModel) drop(focusID string, fn func(context.Context) (checklist.DropResult, error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		res, err := fn(ctx)
		return opDoneMsg{op: "reorder", err: err, focusID: focusID, drop: &res}
	}
}

// saveCollapsed persists the fold state; failures only get logged.
func (m appModel) saveCollapsed() tea.Cmd {
	if m.ui == nil {
		return nil
	}
	ctx, ui, lg := m.ctx, m.ui, m.log
	taskID, ids := m.task.ID, m.expand.IDs()
	return func() tea.Msg {
		if err := ui.SetCollapsed(ctx, taskID, ids); err != nil {
			lg.Warn("save collapsed state", "task", taskID, "err", err)
		}
		return nil
	}
}
