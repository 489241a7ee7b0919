package cli

import (
	"strings"

	"mimi-cli/internal/model"
	"mimi-cli/internal/projtree"

	"github.com/spf13/cobra"
)

func newTabsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tabs",
		Short: "Open-tab commands",
	}
	cmd.AddCommand(newTabsOpenCmd(app))
	cmd.AddCommand(newTabsCloseCmd(app))
	cmd.AddCommand(newTabsListCmd(app))
	return cmd
}

func newTabsOpenCmd(app *App) *cobra.Command {
	var view string

	cmd := &cobra.Command{
		Use:   "open <project-id> <key>",
		Short: "Open a tab with a snapshot of the tree node (unknown keys are a no-op)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID := strings.TrimSpace(args[0])
			ws, err := openWorkspace(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			out, err := ws.OpenTab(cmd.Context(), projectID, args[1], strings.TrimSpace(view))
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, dispatchResult(ws, projectID, out))
		},
	}

	cmd.Flags().StringVar(&view, "view", "", "Also point this view's active document at the node (tree|kanban)")
	return cmd
}

func newTabsCloseCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "close <project-id> <key>",
		Short: "Close a tab",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID := strings.TrimSpace(args[0])
			ws, err := openWorkspace(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			out, err := ws.Dispatch(cmd.Context(), projtree.RemoveTabbedNode(projectID, args[1]))
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, dispatchResult(ws, projectID, out))
		},
	}
	return cmd
}

func newTabsListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <project-id>",
		Short: "List open tabs, sorted by key",
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
			tabs := make([]model.Node, 0, len(ps.TabbedNodes))
			for _, k := range ps.TabKeys() {
				tabs = append(tabs, ps.TabbedNodes[k])
			}
			return writeOut(cmd, app, map[string]any{"data": tabs})
		},
	}
	return cmd
}
