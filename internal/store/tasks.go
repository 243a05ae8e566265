package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"checklist-cli/internal/model"
)

func (s *SQLStore) CreateTask(ctx context.Context, title string) (model.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Task{}, errors.New("create task: empty title")
	}
	id, err := NewID("task")
	if err != nil {
		return model.Task{}, err
	}
	t := model.Task{ID: id, Title: title, CreatedAt: s.now()}
	if _, err := s.exec(ctx, `INSERT INTO tasks(id, title, created_at_unixms) VALUES(?, ?, ?)`, t.ID, t.Title, t.CreatedAt.UnixMilli()); err != nil {
		return model.Task{}, fmt.Errorf("create task: %w", err)
	}
	return t, nil
}

func (s *SQLStore) GetTask(ctx context.Context, id string) (model.Task, error) {
	id = strings.TrimSpace(id)
	var t model.Task
	var ms int64
	err := s.queryRow(ctx, `SELECT id, title, created_at_unixms FROM tasks WHERE id = ?`, id).Scan(&t.ID, &t.Title, &ms)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Task{}, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Task{}, fmt.Errorf("get task %s: %w", id, err)
	}
	t.CreatedAt = fromUnixMs(ms)
	return t, nil
}

func (s *SQLStore) ListTasks(ctx context.Context) ([]model.Task, error) {
	rows, err := s.query(ctx, `SELECT id, title, created_at_unixms FROM tasks ORDER BY created_at_unixms, id`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	out := []model.Task{}
	for rows.Next() {
		var t model.Task
		var ms int64
		if err := rows.Scan(&t.ID, &t.Title, &ms); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		t.CreatedAt = fromUnixMs(ms)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return out, nil
}
