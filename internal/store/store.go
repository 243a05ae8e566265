package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"checklist-cli/internal/model"
)

const (
	workspaceDirName = ".checklist"
	sqliteFileName   = "checklist.sqlite"
)

// ErrNotFound is returned (wrapped) when a row addressed by id does not exist.
var ErrNotFound = errors.New("not found")

// ItemStore is the ordered item store behind a checklist.
type ItemStore interface {
	// List returns every item of the task's checklist in store order (not display order).
	List(ctx context.Context, taskID string) ([]model.ChecklistItem, error)
	Insert(ctx context.Context, item model.ChecklistItem) (model.ChecklistItem, error)
	// InsertBatch inserts all items or none.
	InsertBatch(ctx context.Context, items []model.ChecklistItem) ([]model.ChecklistItem, error)
	Update(ctx context.Context, id string, patch model.ItemPatch) error
	// Delete removes a single row. Children are not touched.
	Delete(ctx context.Context, id string) error
}

type TaskStore interface {
	CreateTask(ctx context.Context, title string) (model.Task, error)
	GetTask(ctx context.Context, id string) (model.Task, error)
	ListTasks(ctx context.Context) ([]model.Task, error)
}

type EventLog interface {
	AppendEvent(ctx context.Context, taskID, actorID, typ, entityID string, payload any) error
	ReadEvents(ctx context.Context, taskID string, limit int) ([]model.Event, error)
}

func DiscoverDir(start string) (string, bool) {
	dir := start
	for {
		candidate := filepath.Join(dir, workspaceDirName)
		if st, err := os.Stat(candidate); err == nil && st.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// DefaultDir returns the nearest .checklist directory above the working directory,
// or ./.checklist when there is none.
func DefaultDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if found, ok := DiscoverDir(cwd); ok {
		return found, nil
	}
	return filepath.Join(cwd, workspaceDirName), nil
}

// SQLitePath is the default database location inside a workspace dir.
func SQLitePath(dir string) string {
	return filepath.Join(dir, sqliteFileName)
}
