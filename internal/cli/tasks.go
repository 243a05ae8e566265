package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func newTasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Manage tasks (each task owns one checklist)",
	}
	cmd.AddCommand(newTasksCreateCmd(app))
	cmd.AddCommand(newTasksListCmd(app))
	cmd.AddCommand(newTasksUseCmd(app))
	return cmd
}

func newTasksCreateCmd(app *App) *cobra.Command {
	var use bool
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			t, err := s.st.CreateTask(ctx, strings.Join(args, " "))
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := s.st.AppendEvent(ctx, t.ID, app.actorID(), "task.create", t.ID, map[string]any{"title": t.Title}); err != nil {
				app.logger.Warn("append event failed", "type", "task.create", "err", err)
			}
			if use {
				if err := s.ui.SetCurrentTask(ctx, t.ID); err != nil {
					return writeErr(cmd, err)
				}
			}
			return writeOut(cmd, app, map[string]any{"data": t})
		},
	}
	cmd.Flags().BoolVar(&use, "use", false, "Make the new task current")
	return cmd
}

func newTasksListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			tasks, err := s.st.ListTasks(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			cur, _ := s.ui.CurrentTask(ctx)
			return writeOut(cmd, app, map[string]any{
				"data": tasks,
				"meta": map[string]any{"currentTaskId": cur},
			})
		},
	}
}

func newTasksUseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "use <task-id>",
		Short: "Set the current task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			id := strings.TrimSpace(args[0])
			t, err := s.st.GetTask(ctx, id)
			if err != nil {
				return writeErr(cmd, asNotFound("task", id, err))
			}
			if err := s.ui.SetCurrentTask(ctx, t.ID); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": t})
		},
	}
}
