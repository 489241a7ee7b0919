package cli

import (
	"errors"
	"strings"

	"mimi-cli/internal/projtree"

	"github.com/spf13/cobra"
)

func newDocsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Active document commands",
	}
	cmd.AddCommand(newDocsSetCmd(app))
	cmd.AddCommand(newDocsShowCmd(app))
	return cmd
}

func newDocsSetCmd(app *App) *cobra.Command {
	var tab string
	var sectionID string
	var taskID string

	cmd := &cobra.Command{
		Use:   "set <project-id>",
		Short: "Point a view at a section/task (ids are not checked against the tree)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID := strings.TrimSpace(args[0])
			if !cmd.Flags().Changed("tab") {
				return writeErr(cmd, errors.New("missing --tab"))
			}
			ws, err := openWorkspace(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			out, err := ws.Dispatch(cmd.Context(), projtree.SetActiveDocument(projectID, sectionID, taskID, tab))
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, dispatchResult(ws, projectID, out))
		},
	}

	cmd.Flags().StringVar(&tab, "tab", "", "View name (e.g. tree, kanban)")
	cmd.Flags().StringVar(&sectionID, "section", "", "Section id (empty = none)")
	cmd.Flags().StringVar(&taskID, "task", "", "Task id (empty = none)")
	return cmd
}

func newDocsShowCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show active documents per view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID := strings.TrimSpace(args[0])
			ws, err := openWorkspace(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			ps, ok := ws.Trees.Project(projectID)
			if !ok {
				return writeErr(cmd, errNotFound("project", projectID))
			}
			return writeOut(cmd, app, map[string]any{"data": ps.ActiveDocument})
		},
	}
	return cmd
}
