package checklist

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"checklist-cli/internal/model"
	"checklist-cli/internal/store"
)

var errBoom = errors.New("boom")

// memStore is an in-memory ItemStore that records calls and can fail on demand.
type memStore struct {
	mu     sync.Mutex
	rows   map[string]model.ChecklistItem
	order  []string
	nextID int

	calls []string

	failInsert      bool
	failList        bool
	failUpdateFor   map[string]bool
	failDeleteFor   map[string]bool
	failBatchNumber int // 1-based InsertBatch call to fail; 0 disables
	batchCalls      int
	batchSizes      []int

	updateDelay time.Duration
	inFlight    int
	maxInFlight int
}

func newMemStore(items ...model.ChecklistItem) *memStore {
	s := &memStore{
		rows:          map[string]model.ChecklistItem{},
		failUpdateFor: map[string]bool{},
		failDeleteFor: map[string]bool{},
	}
	for _, it := range items {
		if it.TaskID == "" {
			it.TaskID = "task-1"
		}
		s.rows[it.ID] = it.Clone()
		s.order = append(s.order, it.ID)
	}
	return s
}

func (s *memStore) record(call string) {
	s.calls = append(s.calls, call)
}

func (s *memStore) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *memStore) List(_ context.Context, taskID string) ([]model.ChecklistItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("list")
	if s.failList {
		return nil, errBoom
	}
	out := []model.ChecklistItem{}
	for _, id := range s.order {
		if it, ok := s.rows[id]; ok && it.TaskID == taskID {
			out = append(out, it.Clone())
		}
	}
	return out, nil
}

func (s *memStore) insertLocked(it model.ChecklistItem) model.ChecklistItem {
	if it.ID == "" {
		s.nextID++
		it.ID = fmt.Sprintf("chk-%03d", s.nextID)
	}
	it = it.Clone()
	s.rows[it.ID] = it
	s.order = append(s.order, it.ID)
	return it
}

func (s *memStore) Insert(_ context.Context, it model.ChecklistItem) (model.ChecklistItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("insert")
	if s.failInsert {
		return model.ChecklistItem{}, errBoom
	}
	return s.insertLocked(it), nil
}

func (s *memStore) InsertBatch(_ context.Context, items []model.ChecklistItem) ([]model.ChecklistItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("insertBatch")
	s.batchCalls++
	s.batchSizes = append(s.batchSizes, len(items))
	if s.failBatchNumber == s.batchCalls {
		return nil, errBoom
	}
	out := make([]model.ChecklistItem, 0, len(items))
	for _, it := range items {
		out = append(out, s.insertLocked(it))
	}
	return out, nil
}

func (s *memStore) Update(_ context.Context, id string, patch model.ItemPatch) error {
	s.mu.Lock()
	s.record("update:" + id)
	s.inFlight++
	if s.inFlight > s.maxInFlight {
		s.maxInFlight = s.inFlight
	}
	delay := s.updateDelay
	s.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight--
	if s.failUpdateFor[id] {
		return errBoom
	}
	it, ok := s.rows[id]
	if !ok {
		return fmt.Errorf("update %s: %w", id, store.ErrNotFound)
	}
	if patch.Completed != nil {
		it.IsCompleted = *patch.Completed
	}
	if patch.Position != nil {
		it.Position = *patch.Position
	}
	if patch.Text != nil {
		it.Text = *patch.Text
	}
	if patch.Detach {
		it.ParentID = nil
	}
	s.rows[id] = it
	return nil
}

func (s *memStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("delete:" + id)
	if s.failDeleteFor[id] {
		return errBoom
	}
	if _, ok := s.rows[id]; !ok {
		return fmt.Errorf("delete %s: %w", id, store.ErrNotFound)
	}
	delete(s.rows, id)
	return nil
}

// positions returns id -> position for every stored row.
func (s *memStore) positions() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]int{}
	for id, it := range s.rows {
		out[id] = it.Position
	}
	return out
}

func (s *memStore) row(id string) (model.ChecklistItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.rows[id]
	return it, ok
}

func (s *memStore) ids() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.rows))
	for id := range s.rows {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s *memStore) resetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}
