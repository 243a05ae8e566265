package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"checklist-cli/internal/config"
	"checklist-cli/internal/logging"
	"checklist-cli/internal/model"
	"checklist-cli/internal/store"
	"checklist-cli/internal/uistate"
)

func TestPrepareTUI_LogsToWorkspaceFileNotStderr(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	ctx := context.Background()

	st, err := store.OpenDir(ctx, dir)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	task, err := st.CreateTask(ctx, "Launch")
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	ghost := "chk-ghost"
	if _, err := st.Insert(ctx, model.ChecklistItem{TaskID: task.ID, ParentID: &ghost, Text: "orphan"}); err != nil {
		t.Fatalf("insert orphan: %v", err)
	}
	_ = st.Close()
	if err := uistate.NewFileStore(dir).SetCurrentTask(ctx, task.ID); err != nil {
		t.Fatalf("set current task: %v", err)
	}

	var stderr bytes.Buffer
	app := &App{
		Dir:       dir,
		LogLevel:  "info",
		LogFormat: "text",
		cfg:       config.Default(),
		logger:    logging.New(&stderr, "info", "text"),
	}
	s, err := openSession(ctx, app)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	defer s.Close()

	opts, closeLog, err := prepareTUI(ctx, app, s)
	if err != nil {
		t.Fatalf("prepare tui: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := opts.Manager.Refresh(ctx); err != nil {
			t.Fatalf("refresh: %v", err)
		}
	}
	closeLog()

	if stderr.Len() != 0 {
		t.Fatalf("expected nothing on stderr while the TUI owns the terminal; got %q", stderr.String())
	}
	b, err := os.ReadFile(filepath.Join(dir, tuiLogFile))
	if err != nil {
		t.Fatalf("read tui log: %v", err)
	}
	if !strings.Contains(string(b), "dangling") {
		t.Fatalf("expected dangling-parent warning in %s; got %q", tuiLogFile, string(b))
	}
}
