package uistate

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"checklist-cli/internal/fsutil"
)

const fileName = "ui_state.json"

type fileState struct {
	Version       int                 `json:"version"`
	CurrentTaskID string              `json:"currentTaskId,omitempty"`
	Collapsed     map[string][]string `json:"collapsed,omitempty"`
}

// FileStore keeps UI state in a JSON file inside the workspace dir.
type FileStore struct {
	Dir string
	mu  sync.Mutex
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

func (s *FileStore) path() string {
	return filepath.Join(s.Dir, fileName)
}

func (s *FileStore) load() (*fileState, error) {
	if strings.TrimSpace(s.Dir) == "" {
		return &fileState{Version: 1}, nil
	}
	b, err := os.ReadFile(s.path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &fileState{Version: 1}, nil
		}
		return nil, err
	}
	var st fileState
	if err := json.Unmarshal(b, &st); err != nil {
		// Corrupt state is treated as missing.
		return &fileState{Version: 1}, nil
	}
	if st.Version == 0 {
		st.Version = 1
	}
	return &st, nil
}

func (s *FileStore) save(st *fileState) error {
	if strings.TrimSpace(s.Dir) == "" {
		return nil
	}
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return fsutil.AtomicWriteFile(s.path(), b, 0o644)
}

func (s *FileStore) CurrentTask(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.load()
	if err != nil {
		return "", err
	}
	return st.CurrentTaskID, nil
}

func (s *FileStore) SetCurrentTask(_ context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.load()
	if err != nil {
		return err
	}
	st.CurrentTaskID = strings.TrimSpace(taskID)
	return s.save(st)
}

func (s *FileStore) Collapsed(_ context.Context, taskID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.load()
	if err != nil {
		return nil, err
	}
	out := normalizeIDs(st.Collapsed[strings.TrimSpace(taskID)])
	sort.Strings(out)
	return out, nil
}

func (s *FileStore) SetCollapsed(_ context.Context, taskID string, ids []string) error {
	taskID = strings.TrimSpace(taskID)
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.load()
	if err != nil {
		return err
	}
	ids = normalizeIDs(ids)
	if len(ids) == 0 {
		delete(st.Collapsed, taskID)
	} else {
		if st.Collapsed == nil {
			st.Collapsed = map[string][]string{}
		}
		sort.Strings(ids)
		st.Collapsed[taskID] = ids
	}
	return s.save(st)
}

func (s *FileStore) Close() error { return nil }
