package cli

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"

	"checklist-cli/internal/checklist"
	"checklist-cli/internal/format"
	"checklist-cli/internal/model"
	"checklist-cli/internal/publish"
	"checklist-cli/internal/tree"

	"github.com/spf13/cobra"
)

func newItemsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "Manage checklist items of the current task",
	}
	cmd.AddCommand(newItemsListCmd(app))
	cmd.AddCommand(newItemsShowCmd(app))
	cmd.AddCommand(newItemsAddCmd(app))
	cmd.AddCommand(newItemsToggleCmd(app))
	cmd.AddCommand(newItemsRmCmd(app))
	cmd.AddCommand(newItemsImportCmd(app))
	cmd.AddCommand(newItemsMoveCmd(app))
	cmd.AddCommand(newItemsStepCmd(app, "up", -1))
	cmd.AddCommand(newItemsStepCmd(app, "down", 1))
	return cmd
}

// writeChecklist renders a forest in the selected output format.
func writeChecklist(cmd *cobra.Command, app *App, task model.Task, roots []*model.ChecklistItem) error {
	switch app.Format {
	case "tree":
		return format.WriteTree(cmd.OutOrStdout(), roots)
	case "md":
		_, err := io.WriteString(cmd.OutOrStdout(), publish.Markdown(task, roots))
		return err
	default:
		if roots == nil {
			roots = []*model.ChecklistItem{}
		}
		return writeOut(cmd, app, map[string]any{
			"data": roots,
			"meta": map[string]any{"taskId": task.ID, "count": tree.Count(roots)},
		})
	}
}

func newItemsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the checklist as a tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()
			m, task, err := s.manager(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeChecklist(cmd, app, task, m.Roots())
		},
	}
}

func newItemsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <item-id>",
		Short: "Show an item and its sub-items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()
			m, task, err := s.manager(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			id := strings.TrimSpace(args[0])
			n, ok := tree.Find(m.Roots(), id)
			if !ok {
				return writeErr(cmd, errNotFound("item", id))
			}
			if app.Format != "json" {
				return writeChecklist(cmd, app, task, []*model.ChecklistItem{n})
			}
			return writeOut(cmd, app, map[string]any{"data": n})
		},
	}
}

func newItemsAddCmd(app *App) *cobra.Command {
	var parent string
	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Add an item after the last sibling (root level unless --parent)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()
			m, _, err := s.manager(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			it, err := m.AddItem(ctx, strings.Join(args, " "), parent)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": it})
		},
	}
	cmd.Flags().StringVar(&parent, "parent", "", "Parent item id")
	return cmd
}

func newItemsToggleCmd(app *App) *cobra.Command {
	var done, undone bool
	cmd := &cobra.Command{
		Use:   "toggle <item-id>",
		Short: "Flip completion (or set it with --done/--undone)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if done && undone {
				return writeErr(cmd, errors.New("provide at most one of --done or --undone"))
			}
			ctx := cmd.Context()
			s, err := openSession(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()
			m, _, err := s.manager(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			id := strings.TrimSpace(args[0])
			it, ok := m.Item(id)
			if !ok {
				return writeErr(cmd, errNotFound("item", id))
			}
			completed := !it.IsCompleted
			switch {
			case done:
				completed = true
			case undone:
				completed = false
			}
			if err := m.ToggleItem(ctx, id, completed); err != nil {
				return writeErr(cmd, err)
			}
			it, _ = m.Item(id)
			return writeOut(cmd, app, map[string]any{"data": it})
		},
	}
	cmd.Flags().BoolVar(&done, "done", false, "Mark completed")
	cmd.Flags().BoolVar(&undone, "undone", false, "Mark not completed")
	return cmd
}

func newItemsRmCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <item-id>",
		Aliases: []string{"delete"},
		Short:   "Delete an item (sub-items follow the configured delete policy)",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()
			m, _, err := s.manager(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			id := strings.TrimSpace(args[0])
			if err := m.DeleteItem(ctx, id); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"deleted": id, "remaining": m.Len()},
				"meta": map[string]any{"policy": string(m.Options().DeletePolicy)},
			})
		},
	}
}

func readLines(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	return out, sc.Err()
}

func newItemsImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import [file|-]",
		Short: "Append one root item per non-blank line (stdin by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return writeErr(cmd, err)
				}
				defer f.Close()
				r = f
			}
			lines, err := readLines(r)
			if err != nil {
				return writeErr(cmd, err)
			}

			ctx := cmd.Context()
			s, err := openSession(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()
			m, _, err := s.manager(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			n, err := m.BulkImport(ctx, lines)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"imported": n}})
		},
	}
}

func writeDrop(cmd *cobra.Command, app *App, m *checklist.Manager, res checklist.DropResult, id string) error {
	if res.Outcome == checklist.OutcomeCrossParent {
		return writeErr(cmd, errors.New("items must have the same parent to reorder"))
	}
	it, _ := m.Item(id)
	return writeOut(cmd, app, map[string]any{
		"data": it,
		"meta": map[string]any{"outcome": res.Outcome.String(), "order": res.Order, "written": res.Written},
	})
}

func newItemsMoveCmd(app *App) *cobra.Command {
	var over string
	cmd := &cobra.Command{
		Use:   "move <item-id> --over <target-id>",
		Short: "Move an item to a sibling's slot (same parent only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(over) == "" {
				return writeErr(cmd, errors.New("missing --over"))
			}
			ctx := cmd.Context()
			s, err := openSession(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()
			m, _, err := s.manager(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			id := strings.TrimSpace(args[0])
			if _, ok := m.Item(over); !ok {
				return writeErr(cmd, errNotFound("item", over))
			}
			if err := m.DragStart(id); err != nil {
				return writeErr(cmd, err)
			}
			res, err := m.DragEnd(ctx, over)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeDrop(cmd, app, m, res, id)
		},
	}
	cmd.Flags().StringVar(&over, "over", "", "Sibling whose slot the item takes")
	return cmd
}

func newItemsStepCmd(app *App, use string, delta int) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <item-id>",
		Short: "Move an item one slot " + use + " among its siblings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()
			m, _, err := s.manager(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			id := strings.TrimSpace(args[0])
			res, err := m.MoveBy(ctx, id, delta)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeDrop(cmd, app, m, res, id)
		},
	}
}
