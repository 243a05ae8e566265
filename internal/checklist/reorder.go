package checklist

import (
	"context"
	"strings"

	"checklist-cli/internal/model"
	"checklist-cli/internal/tree"

	"golang.org/x/sync/errgroup"
)

type DragState int

const (
	Idle DragState = iota
	Dragging
	Reordering
)

func (s DragState) String() string {
	switch s {
	case Dragging:
		return "dragging"
	case Reordering:
		return "reordering"
	default:
		return "idle"
	}
}

type Outcome int

const (
	// OutcomeIgnored: no drag was in progress.
	OutcomeIgnored Outcome = iota
	// OutcomeNoop: dropped on nothing, on itself, or on an unknown item.
	OutcomeNoop
	// OutcomeCrossParent: source and target live under different parents. Nothing moved.
	OutcomeCrossParent
	OutcomeReordered
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoop:
		return "noop"
	case OutcomeCrossParent:
		return "cross-parent"
	case OutcomeReordered:
		return "reordered"
	default:
		return "ignored"
	}
}

type DropResult struct {
	Outcome Outcome
	// Order is the sibling group's ids after the move (OutcomeReordered only).
	Order []string
	// Written is how many position updates were sent to the store.
	Written int
}

type dragState struct {
	state    DragState
	activeID string
	snapshot model.ChecklistItem
}

// Move is one position change in a reorder plan.
type Move struct {
	ID   string
	From int
	To   int
}

type Plan struct {
	Order     []string
	Positions map[string]int
	// Changed lists only the rows whose stored position differs from the new one.
	Changed []Move
}

// PlanReorder moves srcID to overID's index within siblings (array-move) and assigns
// dense positions 0..n-1 in the new order. ok is false when either id is not a sibling
// or both are the same item.
func PlanReorder(siblings []*model.ChecklistItem, srcID, overID string) (Plan, bool) {
	from, to := -1, -1
	for i, n := range siblings {
		switch n.ID {
		case srcID:
			from = i
		case overID:
			to = i
		}
	}
	if from < 0 || to < 0 || srcID == overID {
		return Plan{}, false
	}

	moved := make([]*model.ChecklistItem, 0, len(siblings))
	moved = append(moved, siblings[:from]...)
	moved = append(moved, siblings[from+1:]...)
	moved = append(moved[:to], append([]*model.ChecklistItem{siblings[from]}, moved[to:]...)...)

	p := Plan{
		Order:     make([]string, len(moved)),
		Positions: make(map[string]int, len(moved)),
	}
	for i, n := range moved {
		p.Order[i] = n.ID
		p.Positions[n.ID] = i
		if n.Position != i {
			p.Changed = append(p.Changed, Move{ID: n.ID, From: n.Position, To: i})
		}
	}
	return p, true
}

func (m *Manager) State() DragState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.drag.state
}

// Dragged returns the snapshot taken at drag start, for overlay rendering.
func (m *Manager) Dragged() (model.ChecklistItem, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.drag.state != Dragging {
		return model.ChecklistItem{}, false
	}
	return m.drag.snapshot, true
}

// DragStart picks up id. Starting a new drag while dragging replaces the active item.
func (m *Manager) DragStart(id string) error {
	id = strings.TrimSpace(id)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.drag.state == Reordering {
		return ErrReorderInProgress
	}
	n, ok := tree.Find(m.roots, id)
	if !ok {
		return NotFoundError{Kind: "item", ID: id}
	}
	m.drag = dragState{state: Dragging, activeID: id, snapshot: n.Clone()}
	return nil
}

func (m *Manager) DragCancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.drag.state == Dragging {
		m.drag = dragState{}
	}
}

// DragEnd drops the active item on overID. Only drops inside the same sibling group are
// persisted; the forest is always rebuilt from the store after a persisted drop.
func (m *Manager) DragEnd(ctx context.Context, overID string) (DropResult, error) {
	overID = strings.TrimSpace(overID)

	m.op.Lock()
	defer m.op.Unlock()

	m.mu.Lock()
	if m.drag.state != Dragging {
		m.mu.Unlock()
		return DropResult{Outcome: OutcomeIgnored}, nil
	}
	srcID := m.drag.activeID
	if overID == "" || overID == srcID {
		m.drag = dragState{}
		m.mu.Unlock()
		return DropResult{Outcome: OutcomeNoop}, nil
	}
	group, srcParent, okSrc := tree.GroupOf(m.roots, srcID)
	_, overParent, okOver := tree.GroupOf(m.roots, overID)
	if !okSrc || !okOver {
		m.drag = dragState{}
		m.mu.Unlock()
		return DropResult{Outcome: OutcomeNoop}, nil
	}
	if srcParent != overParent {
		m.drag = dragState{}
		m.mu.Unlock()
		m.log.Debug("cross-parent drop rejected", "item", srcID, "over", overID)
		return DropResult{Outcome: OutcomeCrossParent}, nil
	}
	plan, ok := PlanReorder(group, srcID, overID)
	if !ok {
		m.drag = dragState{}
		m.mu.Unlock()
		return DropResult{Outcome: OutcomeNoop}, nil
	}
	m.drag.state = Reordering
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.drag = dragState{}
		m.mu.Unlock()
	}()

	res := DropResult{Outcome: OutcomeReordered, Order: plan.Order}
	written, err := m.persistMoves(ctx, plan.Changed)
	res.Written = written
	if err != nil {
		m.log.Warn("reorder failed", "item", srcID, "written", written, "of", len(plan.Changed), "err", err)
		if rerr := m.refreshLocked(ctx); rerr != nil {
			m.log.Warn("refresh after failed reorder", "err", rerr)
		}
		return res, PersistenceError{Op: "reorder", ID: srcID, Err: err}
	}
	m.appendEvent(ctx, "item.reorder", srcID, map[string]any{"over": overID, "order": plan.Order})
	if err := m.refreshLocked(ctx); err != nil {
		return res, err
	}
	return res, nil
}

// persistMoves writes position updates ReorderBatchSize at a time. Writes inside a batch
// run concurrently; the next batch starts only after the whole batch finished. It
// returns the number of writes in fully successful batches.
func (m *Manager) persistMoves(ctx context.Context, moves []Move) (int, error) {
	size := m.opts.ReorderBatchSize
	written := 0
	for lo := 0; lo < len(moves); lo += size {
		hi := min(lo+size, len(moves))
		var g errgroup.Group
		for _, mv := range moves[lo:hi] {
			g.Go(func() error {
				pos := mv.To
				return m.st.Update(ctx, mv.ID, model.ItemPatch{Position: &pos})
			})
		}
		if err := g.Wait(); err != nil {
			return written, err
		}
		written = hi
		m.log.Debug("reorder batch saved", "from", lo, "to", hi)
	}
	return written, nil
}

// MoveBy moves id delta slots within its sibling group (negative is up), clamped to the
// group bounds. It runs the same pick-up/drop gesture as a drag.
func (m *Manager) MoveBy(ctx context.Context, id string, delta int) (DropResult, error) {
	id = strings.TrimSpace(id)
	m.mu.RLock()
	group, _, ok := tree.GroupOf(m.roots, id)
	target := ""
	if ok {
		idx := 0
		for i, n := range group {
			if n.ID == id {
				idx = i
			}
		}
		j := max(0, min(len(group)-1, idx+delta))
		if j != idx {
			target = group[j].ID
		}
	}
	m.mu.RUnlock()
	if !ok {
		return DropResult{}, NotFoundError{Kind: "item", ID: id}
	}
	if target == "" {
		return DropResult{Outcome: OutcomeNoop}, nil
	}
	if err := m.DragStart(id); err != nil {
		return DropResult{}, err
	}
	return m.DragEnd(ctx, target)
}
