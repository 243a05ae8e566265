// Package checklist keeps an in-memory checklist forest consistent with an ordered item
// store: adds, toggles, deletes, bulk imports and drag-and-drop reordering.
package checklist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"checklist-cli/internal/logging"
	"checklist-cli/internal/model"
	"checklist-cli/internal/store"
	"checklist-cli/internal/tree"

	"github.com/charmbracelet/log"
)

const (
	DefaultImportBatchSize  = 50
	DefaultReorderBatchSize = 10
	DefaultActor            = "local"
)

type DeletePolicy string

const (
	// DeleteCascade removes the item and its whole subtree.
	DeleteCascade DeletePolicy = "cascade"
	// DeletePromote moves the item's children to the root level before removing it.
	DeletePromote DeletePolicy = "promote"
)

func ParseDeletePolicy(s string) (DeletePolicy, error) {
	switch DeletePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", DeleteCascade:
		return DeleteCascade, nil
	case DeletePromote:
		return DeletePromote, nil
	default:
		return "", ValidationError{Field: "delete policy", Reason: fmt.Sprintf("unknown policy %q", s)}
	}
}

type NoticeKind int

const (
	NoticeSuccess NoticeKind = iota
	NoticeError
)

// Notice is a transient message for the UI (e.g. "Imported 3 items").
type Notice struct {
	Kind NoticeKind
	Text string
}

type Options struct {
	ImportBatchSize  int
	ReorderBatchSize int
	DeletePolicy     DeletePolicy
	// Actor is recorded on events when the store keeps an event log.
	Actor  string
	Logger *log.Logger
	Notify func(Notice)
}

func (o Options) withDefaults() Options {
	if o.ImportBatchSize <= 0 {
		o.ImportBatchSize = DefaultImportBatchSize
	}
	if o.ReorderBatchSize <= 0 {
		o.ReorderBatchSize = DefaultReorderBatchSize
	}
	if o.DeletePolicy == "" {
		o.DeletePolicy = DeleteCascade
	}
	if strings.TrimSpace(o.Actor) == "" {
		o.Actor = DefaultActor
	}
	if o.Logger == nil {
		o.Logger = logging.Discard()
	}
	return o
}

// Manager owns the checklist of one task.
//
// Operations that touch the store are serialized by op. State reads take mu only, so a
// UI can render the optimistic toggle while the write is still in flight.
type Manager struct {
	st     store.ItemStore
	events store.EventLog
	taskID string
	opts   Options
	log    *log.Logger

	op sync.Mutex

	mu    sync.RWMutex
	items []model.ChecklistItem
	roots []*model.ChecklistItem
	drag  dragState
}

// New returns a Manager for taskID. When st also implements store.EventLog, every
// successful mutation is appended to it.
func New(st store.ItemStore, taskID string, opts Options) *Manager {
	opts = opts.withDefaults()
	m := &Manager{
		st:     st,
		taskID: strings.TrimSpace(taskID),
		opts:   opts,
		log:    opts.Logger.With("task", strings.TrimSpace(taskID)),
	}
	if ev, ok := st.(store.EventLog); ok {
		m.events = ev
	}
	return m
}

func (m *Manager) TaskID() string { return m.taskID }

func (m *Manager) Options() Options { return m.opts }

// Load fetches the checklist and builds the forest.
func (m *Manager) Load(ctx context.Context) error {
	return m.Refresh(ctx)
}

// Refresh refetches every row and rebuilds the forest from scratch.
func (m *Manager) Refresh(ctx context.Context) error {
	m.op.Lock()
	defer m.op.Unlock()
	return m.refreshLocked(ctx)
}

func (m *Manager) refreshLocked(ctx context.Context) error {
	items, err := m.st.List(ctx, m.taskID)
	if err != nil {
		m.log.Warn("list failed", "err", err)
		return PersistenceError{Op: "refresh", Err: err}
	}
	if dangling := tree.Dangling(items); len(dangling) > 0 {
		m.log.Warn("dangling parent references placed at root", "items", dangling)
	}
	m.setItems(items)
	return nil
}

func (m *Manager) setItems(items []model.ChecklistItem) {
	roots := tree.Build(items)
	m.mu.Lock()
	m.items = items
	m.roots = roots
	m.mu.Unlock()
}

// Roots returns a snapshot of the forest. Callers may keep and modify it freely.
func (m *Manager) Roots() []*model.ChecklistItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return tree.Build(m.items)
}

// Flat returns every item in display order (depth-first, pre-order).
func (m *Manager) Flat() []model.ChecklistItem {
	nodes := tree.Flatten(m.Roots())
	out := make([]model.ChecklistItem, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Clone())
	}
	return out
}

func (m *Manager) Item(id string) (model.ChecklistItem, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := tree.Find(m.roots, id)
	if !ok {
		return model.ChecklistItem{}, false
	}
	return n.Clone(), true
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// AddItem appends a new item after the last sibling under parentID ("" for the root level).
func (m *Manager) AddItem(ctx context.Context, text, parentID string) (model.ChecklistItem, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.ChecklistItem{}, ValidationError{Field: "text", Reason: "must not be empty"}
	}
	parentID = strings.TrimSpace(parentID)

	m.op.Lock()
	defer m.op.Unlock()

	m.mu.RLock()
	group, ok := tree.Siblings(m.roots, parentID)
	pos := tree.MaxPosition(group) + 1
	m.mu.RUnlock()
	if !ok {
		return model.ChecklistItem{}, NotFoundError{Kind: "item", ID: parentID}
	}

	it := model.ChecklistItem{TaskID: m.taskID, Text: text, Position: pos}
	if parentID != "" {
		it.ParentID = &parentID
	}
	created, err := m.st.Insert(ctx, it)
	if err != nil {
		m.log.Warn("add failed", "parent", parentID, "err", err)
		return model.ChecklistItem{}, PersistenceError{Op: "add", Err: err}
	}
	m.appendEvent(ctx, "item.create", created.ID, map[string]any{
		"text":     created.Text,
		"parentId": parentID,
		"position": created.Position,
	})
	if err := m.refreshLocked(ctx); err != nil {
		// The row is committed; mirror it locally until the next successful refresh.
		m.log.Warn("refresh after add failed, keeping inserted row", "item", created.ID, "err", err)
		m.mu.RLock()
		items := make([]model.ChecklistItem, len(m.items), len(m.items)+1)
		copy(items, m.items)
		m.mu.RUnlock()
		m.setItems(append(items, created.Clone()))
	}
	return created, nil
}

// ToggleItem sets the completion flag. The in-memory item is patched first and restored
// if the store rejects the write.
func (m *Manager) ToggleItem(ctx context.Context, id string, completed bool) error {
	id = strings.TrimSpace(id)

	m.op.Lock()
	defer m.op.Unlock()

	prev, ok := m.patchCompleted(id, completed)
	if !ok {
		return NotFoundError{Kind: "item", ID: id}
	}
	if prev == completed {
		return nil
	}
	if err := m.st.Update(ctx, id, model.ItemPatch{Completed: &completed}); err != nil {
		m.patchCompleted(id, prev)
		m.log.Warn("toggle failed, rolled back", "item", id, "err", err)
		return PersistenceError{Op: "toggle", ID: id, Err: err}
	}
	m.appendEvent(ctx, "item.toggle", id, map[string]any{"isCompleted": completed})
	return nil
}

// patchCompleted sets the flag locally and returns the previous value.
func (m *Manager) patchCompleted(id string, completed bool) (bool, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID != id {
			continue
		}
		prev := m.items[i].IsCompleted
		if prev != completed {
			items := make([]model.ChecklistItem, len(m.items))
			copy(items, m.items)
			items[i].IsCompleted = completed
			m.items = items
			m.roots = tree.Build(items)
		}
		return prev, true
	}
	return false, false
}

// DeleteItem removes the item according to the configured DeletePolicy, then rebuilds.
func (m *Manager) DeleteItem(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)

	m.op.Lock()
	defer m.op.Unlock()

	m.mu.RLock()
	node, ok := tree.Find(m.roots, id)
	var maxRoot int
	if ok {
		maxRoot = tree.MaxPosition(m.roots)
	}
	m.mu.RUnlock()
	if !ok {
		return NotFoundError{Kind: "item", ID: id}
	}

	removed := 1
	switch m.opts.DeletePolicy {
	case DeletePromote:
		pos := maxRoot + 1
		for _, ch := range node.Children {
			p := pos
			if err := m.st.Update(ctx, ch.ID, model.ItemPatch{Detach: true, Position: &p}); err != nil && !errors.Is(err, store.ErrNotFound) {
				return m.failDelete(ctx, ch.ID, err)
			}
			pos++
		}
	default:
		for _, d := range tree.Descendants(node) {
			if err := m.st.Delete(ctx, d.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
				return m.failDelete(ctx, d.ID, err)
			}
			removed++
		}
	}
	if err := m.st.Delete(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
		return m.failDelete(ctx, id, err)
	}

	m.appendEvent(ctx, "item.delete", id, map[string]any{
		"policy":  string(m.opts.DeletePolicy),
		"removed": removed,
	})
	return m.refreshLocked(ctx)
}

// failDelete refetches so the view mirrors whatever part of the delete was committed.
func (m *Manager) failDelete(ctx context.Context, id string, err error) error {
	m.log.Warn("delete failed", "item", id, "err", err)
	if rerr := m.refreshLocked(ctx); rerr != nil {
		m.log.Warn("refresh after failed delete", "err", rerr)
	}
	return PersistenceError{Op: "delete", ID: id, Err: err}
}

// BulkImport appends one root item per non-blank line after the last root, writing in
// chunks of ImportBatchSize. It returns the number of items committed.
func (m *Manager) BulkImport(ctx context.Context, texts []string) (int, error) {
	var clean []string
	for _, t := range texts {
		if t = strings.TrimSpace(t); t != "" {
			clean = append(clean, t)
		}
	}
	if len(clean) == 0 {
		return 0, nil
	}

	m.op.Lock()
	defer m.op.Unlock()

	m.mu.RLock()
	start := tree.MaxPosition(m.roots) + 1
	m.mu.RUnlock()

	items := make([]model.ChecklistItem, len(clean))
	for i, t := range clean {
		items[i] = model.ChecklistItem{TaskID: m.taskID, Text: t, Position: start + i}
	}

	committed := 0
	size := m.opts.ImportBatchSize
	for lo := 0; lo < len(items); lo += size {
		hi := min(lo+size, len(items))
		if _, err := m.st.InsertBatch(ctx, items[lo:hi]); err != nil {
			m.log.Warn("import batch failed", "from", lo, "to", hi, "committed", committed, "err", err)
			if rerr := m.refreshLocked(ctx); rerr != nil {
				m.log.Warn("refresh after failed import", "err", rerr)
			}
			return committed, PersistenceError{
				Op:  "import",
				Err: fmt.Errorf("%d of %d items saved: %w", committed, len(items), err),
			}
		}
		committed = hi
		m.log.Debug("import batch saved", "from", lo, "to", hi)
	}

	m.appendEvent(ctx, "item.import", m.taskID, map[string]any{"count": committed, "startPosition": start})
	if err := m.refreshLocked(ctx); err != nil {
		return committed, err
	}
	m.notify(Notice{Kind: NoticeSuccess, Text: fmt.Sprintf("Imported %d items", committed)})
	return committed, nil
}

// OnNotice replaces the notice callback.
func (m *Manager) OnNotice(fn func(Notice)) {
	m.op.Lock()
	defer m.op.Unlock()
	m.opts.Notify = fn
}

func (m *Manager) notify(n Notice) {
	if m.opts.Notify != nil {
		m.opts.Notify(n)
	}
}

// appendEvent is best-effort: the mutation already committed.
func (m *Manager) appendEvent(ctx context.Context, typ, entityID string, payload any) {
	if m.events == nil {
		return
	}
	if err := m.events.AppendEvent(ctx, m.taskID, m.opts.Actor, typ, entityID, payload); err != nil {
		m.log.Warn("append event failed", "type", typ, "entity", entityID, "err", err)
	}
}
