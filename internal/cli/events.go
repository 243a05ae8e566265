package cli

import (
	"github.com/spf13/cobra"
)

func newEventsCmd(app *App) *cobra.Command {
	var limit int
	var all bool

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect the mutation event log",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List events for the current task (oldest-first)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			taskID := ""
			if !all {
				t, err := s.currentTask(ctx)
				if err != nil {
					return writeErr(cmd, err)
				}
				taskID = t.ID
			}
			evs, err := s.st.ReadEvents(ctx, taskID, limit)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": evs})
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", 200, "Max events to return (0 = all)")
	listCmd.Flags().BoolVar(&all, "all", false, "Include events of every task")

	cmd.AddCommand(listCmd)
	return cmd
}
