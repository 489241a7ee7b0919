package cli

import (
	"github.com/spf13/cobra"
)

func newStateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Whole-store commands",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show every project's state",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": ws.Trees.State()})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "replay",
		Short: "Rebuild state from the action log and save a fresh snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			n, err := ws.Rebuild(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"replayed": n,
				"projects": ws.Trees.State().ProjectIDs(),
			}})
		},
	})
	return cmd
}
