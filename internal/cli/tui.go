package cli

import (
	"context"
	"os"
	"path/filepath"

	"checklist-cli/internal/logging"
	"checklist-cli/internal/tui"

	"github.com/spf13/cobra"
)

const tuiLogFile = "tui.log"

func runTUI(cmd *cobra.Command, app *App) error {
	ctx := cmd.Context()
	s, err := openSession(ctx, app)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer s.Close()

	opts, closeLog, err := prepareTUI(ctx, app, s)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer closeLog()

	return tui.Run(ctx, opts)
}

// prepareTUI redirects logging to <dir>/tui.log (stderr would draw over the alt screen)
// and loads the manager and fold state for the current task.
func prepareTUI(ctx context.Context, app *App, s *session) (tui.Options, func(), error) {
	f, err := os.OpenFile(filepath.Join(s.dir, tuiLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return tui.Options{}, nil, err
	}
	app.logger = logging.New(f, app.LogLevel, app.LogFormat)
	closeLog := func() { _ = f.Close() }

	m, task, err := s.manager(ctx)
	if err != nil {
		closeLog()
		return tui.Options{}, nil, err
	}
	collapsed, err := s.ui.Collapsed(ctx, task.ID)
	if err != nil {
		app.logger.Warn("load collapsed state", "task", task.ID, "err", err)
		collapsed = nil
	}

	return tui.Options{
		Manager:   m,
		Task:      task,
		UI:        s.ui,
		Collapsed: collapsed,
		Theme:     app.cfg.TUI.Theme,
		Logger:    app.logger,
	}, closeLog, nil
}
