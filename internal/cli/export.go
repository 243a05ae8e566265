package cli

import (
	"fmt"

	"checklist-cli/internal/publish"

	"github.com/spf13/cobra"
)

func newExportCmd(app *App) *cobra.Command {
	var render bool
	var width int
	var to string
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the current checklist as markdown",
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

			if to != "" {
				res, err := publish.WriteChecklist(task, m.Roots(), to, publish.WriteOptions{Overwrite: overwrite})
				if err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, map[string]any{"data": res})
			}

			md := publish.Markdown(task, m.Roots())
			if !render {
				_, err := fmt.Fprint(cmd.OutOrStdout(), md)
				return err
			}
			out, err := publish.Render(md, glamourStyle(app.cfg.TUI.Theme), width)
			if err != nil {
				return writeErr(cmd, err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().BoolVar(&render, "render", false, "Render markdown for the terminal")
	cmd.Flags().IntVar(&width, "width", 80, "Wrap width for --render (0 = no wrap)")
	cmd.Flags().StringVar(&to, "to", "", "Write <task-id>.md into this directory instead of stdout")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite an existing file with --to")
	return cmd
}

// glamourStyle maps the configured theme to a glamour standard style.
func glamourStyle(theme string) string {
	switch theme {
	case "light":
		return "light"
	case "none":
		return "notty"
	default:
		return "dark"
	}
}
