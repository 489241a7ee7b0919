package cli

import (
	"strings"

	"mimi-cli/internal/projtree"

	"github.com/spf13/cobra"
)

func newClearCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear <project-id>",
		Short: "Reset a project's tree, tabs and active documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID := strings.TrimSpace(args[0])
			ws, err := openWorkspace(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			out, err := ws.Dispatch(cmd.Context(), projtree.ClearProjectData(projectID))
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, dispatchResult(ws, projectID, out))
		},
	}
	return cmd
}
