// Package uistate persists small view state: the current task and which items are
// collapsed. Callers treat it as best effort and tolerate missing or invalid data.
package uistate

import (
	"context"
	"strings"
)

type Store interface {
	CurrentTask(ctx context.Context) (string, error)
	SetCurrentTask(ctx context.Context, taskID string) error
	Collapsed(ctx context.Context, taskID string) ([]string, error)
	SetCollapsed(ctx context.Context, taskID string, ids []string) error
	Close() error
}

// Open returns a RedisStore when redisURL is set and a FileStore in dir otherwise.
func Open(dir, redisURL string) (Store, error) {
	if u := strings.TrimSpace(redisURL); u != "" {
		return NewRedisStore(u)
	}
	return NewFileStore(dir), nil
}

func normalizeIDs(ids []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
