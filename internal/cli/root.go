package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"checklist-cli/internal/checklist"
	"checklist-cli/internal/config"
	"checklist-cli/internal/format"
	"checklist-cli/internal/logging"
	"checklist-cli/internal/model"
	"checklist-cli/internal/store"
	"checklist-cli/internal/uistate"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

type App struct {
	Dir        string
	DBURL      string
	TaskID     string
	ActorID    string
	PrettyJSON bool
	Format     string
	LogLevel   string
	LogFormat  string

	cfg    *config.Config
	logger *log.Logger
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "checklist",
		Short:        "Nested checklists for tasks (CLI + TUI)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI for the current task
  checklist

  # Create a task and make it current
  checklist tasks create "Launch site" --use

  # Scriptable commands
  checklist items add "Write copy"
  checklist items list --format tree

  # Direct item lookup (shortcut for: checklist items show <item-id>)
  checklist chk-abcd1234
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return writeErr(cmd, err)
		}
		app.cfg = cfg
		if app.DBURL == "" {
			app.DBURL = cfg.Storage.DatabaseURL
		}
		if app.LogLevel == "" {
			app.LogLevel = cfg.Log.Level
		}
		if app.LogFormat == "" {
			app.LogFormat = cfg.Log.Format
		}
		app.logger = logging.New(cmd.ErrOrStderr(), app.LogLevel, app.LogFormat)

		switch app.Format {
		case "json", "tree", "md":
		default:
			return writeErr(cmd, fmt.Errorf("unknown format: %s (json|tree|md)", app.Format))
		}
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("CHECKLIST_DIR", ""), "Workspace dir (default: nearest .checklist above the working directory)")
	cmd.PersistentFlags().StringVar(&app.DBURL, "db", "", "Database (SQLite path or postgres:// URL; overrides CHECKLIST_DATABASE_URL and config)")
	cmd.PersistentFlags().StringVar(&app.TaskID, "task", envOr("CHECKLIST_TASK", ""), "Task id (overrides the current task)")
	cmd.PersistentFlags().StringVar(&app.ActorID, "actor", envOr("CHECKLIST_ACTOR", ""), "Actor id recorded on events")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("CHECKLIST_FORMAT", "json"), "Output format (json|tree|md)")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", "", "Log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&app.LogFormat, "log-format", "", "Log format (text|json|logfmt)")

	cmd.AddCommand(newTasksCmd(app))
	cmd.AddCommand(newItemsCmd(app))
	cmd.AddCommand(newEventsCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newConfigCmd(app))

	return cmd
}

// session bundles the stores one command needs.
type session struct {
	app *App
	dir string
	st  *store.SQLStore
	ui  uistate.Store
}

func openSession(ctx context.Context, app *App) (*session, error) {
	dir := app.Dir
	if dir == "" {
		d, err := store.DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
		app.Dir = d
	}

	var st *store.SQLStore
	var err error
	if app.DBURL != "" {
		st, err = store.Open(ctx, app.DBURL)
	} else {
		st, err = store.OpenDir(ctx, dir)
	}
	if err != nil {
		return nil, err
	}

	ui, err := uistate.Open(dir, app.cfg.Storage.RedisURL)
	if err != nil {
		// View state is best effort; fall back to the workspace file.
		app.logger.Warn("ui state store unavailable, using file", "err", err)
		ui = uistate.NewFileStore(dir)
	}
	app.logger.Debug("session opened", "dir", dir, "backend", st.Dialect())
	return &session{app: app, dir: dir, st: st, ui: ui}, nil
}

func (s *session) Close() {
	_ = s.ui.Close()
	_ = s.st.Close()
}

func (s *session) currentTask(ctx context.Context) (model.Task, error) {
	id := strings.TrimSpace(s.app.TaskID)
	if id == "" {
		cur, err := s.ui.CurrentTask(ctx)
		if err != nil {
			return model.Task{}, err
		}
		id = cur
	}
	if id == "" {
		return model.Task{}, errNoCurrentTask
	}
	t, err := s.st.GetTask(ctx, id)
	if err != nil {
		return model.Task{}, asNotFound("task", id, err)
	}
	return t, nil
}

func (s *session) manager(ctx context.Context) (*checklist.Manager, model.Task, error) {
	task, err := s.currentTask(ctx)
	if err != nil {
		return nil, model.Task{}, err
	}
	policy, err := checklist.ParseDeletePolicy(s.app.cfg.Checklist.DeletePolicy)
	if err != nil {
		return nil, model.Task{}, err
	}
	m := checklist.New(s.st, task.ID, checklist.Options{
		ImportBatchSize:  s.app.cfg.Checklist.ImportBatchSize,
		ReorderBatchSize: s.app.cfg.Checklist.ReorderBatchSize,
		DeletePolicy:     policy,
		Actor:            s.app.actorID(),
		Logger:           s.app.logger,
	})
	if err := m.Load(ctx); err != nil {
		return nil, model.Task{}, err
	}
	return m, task, nil
}

func (app *App) actorID() string {
	if a := strings.TrimSpace(app.ActorID); a != "" {
		return a
	}
	if u := strings.TrimSpace(os.Getenv("USER")); u != "" {
		return u
	}
	return checklist.DefaultActor
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	f := app.Format
	if f != "json" {
		// tree/md only apply to checklist output; everything else stays JSON.
		f = "json"
	}
	return format.Write(cmd.OutOrStdout(), v, f, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), checklist.UserMessage(err))
	return err
}
