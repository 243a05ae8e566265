// Package tui is the interactive checklist view.
package tui

import (
	"context"
	"errors"

	"checklist-cli/internal/checklist"
	"checklist-cli/internal/model"
	"checklist-cli/internal/uistate"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
)

type Options struct {
	Manager *checklist.Manager
	Task    model.Task

	// UI persists fold state. Optional.
	UI        uistate.Store
	Collapsed []string

	// Theme is auto, dark, light or none.
	Theme  string
	Logger *log.Logger
}

// Run starts the TUI on an already loaded manager and blocks until the user quits.
func Run(ctx context.Context, opts Options) error {
	if opts.Manager == nil {
		return errors.New("tui: missing manager")
	}
	applyThemePreference(opts.Theme)
	applyColorProfilePreference(opts.Theme)

	m := newModel(ctx, opts)
	defer opts.Manager.OnNotice(nil)

	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
