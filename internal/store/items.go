package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"checklist-cli/internal/model"
)

const itemColumns = `id, task_id, parent_id, position, text, is_completed, created_at_unixms, updated_at_unixms`

func (s *SQLStore) List(ctx context.Context, taskID string) ([]model.ChecklistItem, error) {
	taskID = strings.TrimSpace(taskID)
	rows, err := s.query(ctx, `SELECT `+itemColumns+` FROM checklist_items WHERE task_id = ? ORDER BY created_at_unixms, id`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	out := []model.ChecklistItem{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return out, nil
}

func scanItem(rows *sql.Rows) (model.ChecklistItem, error) {
	var (
		it        model.ChecklistItem
		parent    string
		completed int
		createdMs int64
		updatedMs int64
	)
	if err := rows.Scan(&it.ID, &it.TaskID, &parent, &it.Position, &it.Text, &completed, &createdMs, &updatedMs); err != nil {
		return model.ChecklistItem{}, err
	}
	if parent = strings.TrimSpace(parent); parent != "" {
		it.ParentID = &parent
	}
	it.IsCompleted = completed != 0
	it.CreatedAt = fromUnixMs(createdMs)
	it.UpdatedAt = fromUnixMs(updatedMs)
	return it, nil
}

// prepareInsert fills in id and timestamps and validates the row.
func (s *SQLStore) prepareInsert(it model.ChecklistItem) (model.ChecklistItem, error) {
	it = it.Clone()
	it.TaskID = strings.TrimSpace(it.TaskID)
	if it.TaskID == "" {
		return model.ChecklistItem{}, errors.New("missing task id")
	}
	if it.Position < 0 {
		return model.ChecklistItem{}, fmt.Errorf("invalid position %d", it.Position)
	}
	if strings.TrimSpace(it.ID) == "" {
		id, err := NewID("chk")
		if err != nil {
			return model.ChecklistItem{}, err
		}
		it.ID = id
	}
	now := s.now()
	if it.CreatedAt.IsZero() {
		it.CreatedAt = now
	}
	it.UpdatedAt = now
	return it, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLStore) insertRow(ctx context.Context, x execer, it model.ChecklistItem) error {
	_, err := x.ExecContext(ctx, s.dialect.rebind(`INSERT INTO checklist_items(`+itemColumns+`) VALUES(?, ?, ?, ?, ?, ?, ?, ?)`),
		it.ID, it.TaskID, strings.TrimSpace(it.ParentKey()), it.Position, it.Text, boolToInt(it.IsCompleted),
		it.CreatedAt.UnixMilli(), it.UpdatedAt.UnixMilli(),
	)
	return err
}

func (s *SQLStore) Insert(ctx context.Context, item model.ChecklistItem) (model.ChecklistItem, error) {
	it, err := s.prepareInsert(item)
	if err != nil {
		return model.ChecklistItem{}, fmt.Errorf("insert item: %w", err)
	}
	if err := s.insertRow(ctx, s.db, it); err != nil {
		return model.ChecklistItem{}, fmt.Errorf("insert item %s: %w", it.ID, err)
	}
	return it, nil
}

func (s *SQLStore) InsertBatch(ctx context.Context, items []model.ChecklistItem) ([]model.ChecklistItem, error) {
	if len(items) == 0 {
		return []model.ChecklistItem{}, nil
	}
	prepared := make([]model.ChecklistItem, 0, len(items))
	for _, item := range items {
		it, err := s.prepareInsert(item)
		if err != nil {
			return nil, fmt.Errorf("insert batch: %w", err)
		}
		prepared = append(prepared, it)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("insert batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, it := range prepared {
		if err := s.insertRow(ctx, tx, it); err != nil {
			return nil, fmt.Errorf("insert batch item %s: %w", it.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("insert batch: %w", err)
	}
	return prepared, nil
}

func (s *SQLStore) Update(ctx context.Context, id string, patch model.ItemPatch) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("update item: %w", ErrNotFound)
	}

	var sets []string
	var args []any
	if patch.Completed != nil {
		sets = append(sets, "is_completed = ?")
		args = append(args, boolToInt(*patch.Completed))
	}
	if patch.Position != nil {
		if *patch.Position < 0 {
			return fmt.Errorf("update item %s: invalid position %d", id, *patch.Position)
		}
		sets = append(sets, "position = ?")
		args = append(args, *patch.Position)
	}
	if patch.Text != nil {
		sets = append(sets, "text = ?")
		args = append(args, *patch.Text)
	}
	if patch.Detach {
		sets = append(sets, "parent_id = ?")
		args = append(args, "")
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at_unixms = ?")
	args = append(args, s.now().UnixMilli(), id)

	res, err := s.exec(ctx, `UPDATE checklist_items SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update item %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update item %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	res, err := s.exec(ctx, `DELETE FROM checklist_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete item %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete item %s: %w", id, ErrNotFound)
	}
	return nil
}
