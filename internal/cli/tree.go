package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"mimi-cli/internal/model"
	"mimi-cli/internal/projtree"
	"mimi-cli/internal/store"
	"mimi-cli/internal/workspace"

	"github.com/spf13/cobra"
)

func newTreeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Project tree commands",
	}
	cmd.AddCommand(newTreeLoadCmd(app))
	cmd.AddCommand(newTreeShowCmd(app))
	cmd.AddCommand(newTreeUpdateCmd(app))
	cmd.AddCommand(newTreeSetChildrenCmd(app))
	cmd.AddCommand(newTreeWatchCmd(app))
	return cmd
}

func newTreeLoadCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load <project-id> <file>",
		Short: "Replace a project's tree from a .json/.yaml file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID := strings.TrimSpace(args[0])
			nodes, err := store.ReadTreeFile(args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			ws, err := openWorkspace(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			out, err := ws.Dispatch(cmd.Context(), projtree.LoadTree(projectID, nodes))
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, dispatchResult(ws, projectID, out))
		},
	}
	return cmd
}

func newTreeShowCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show a project's tree",
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
			return writeOut(cmd, app, map[string]any{"data": ps.Tree})
		},
	}
	return cmd
}

func newTreeUpdateCmd(app *App) *cobra.Command {
	var sets []string

	cmd := &cobra.Command{
		Use:   "update <project-id> <key>",
		Short: "Merge field changes into the first node with key",
		Example: strings.TrimSpace(`
  mimi tree update proj-1 task-7 --set label="New title" --set done=true
`),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID := strings.TrimSpace(args[0])
			changes, err := parseSets(sets)
			if err != nil {
				return writeErr(cmd, err)
			}
			ws, err := openWorkspace(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			out, err := ws.Dispatch(cmd.Context(), projtree.UpdateTreeNode(projectID, args[1], changes))
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, dispatchResult(ws, projectID, out))
		},
	}

	cmd.Flags().StringArrayVar(&sets, "set", nil, "Field change as k=v (v is parsed as JSON when possible; repeatable)")
	_ = cmd.MarkFlagRequired("set")
	return cmd
}

func newTreeSetChildrenCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-children <project-id> <key> <file>",
		Short: "Replace the children of the first node with key",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID := strings.TrimSpace(args[0])
			children, err := store.ReadTreeFile(args[2])
			if err != nil {
				return writeErr(cmd, err)
			}
			ws, err := openWorkspace(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			out, err := ws.Dispatch(cmd.Context(), projtree.SetNodeChildren(projectID, args[1], children))
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, dispatchResult(ws, projectID, out))
		},
	}
	return cmd
}

func newTreeWatchCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <project-id> <file>",
		Short: "Load a tree file and reload it on every change (Ctrl-C to stop)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID := strings.TrimSpace(args[0])
			ws, err := openWorkspace(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			nodes, err := store.ReadTreeFile(args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := loadAndReport(ctx, cmd, app, ws, projectID, nodes); err != nil {
				return writeErr(cmd, err)
			}
			err = store.WatchTreeFile(ctx, args[1], func(nodes []model.Node, err error) {
				if err != nil {
					app.log.Warn().Err(err).Str("file", args[1]).Msg("reload tree file")
					return
				}
				if err := loadAndReport(ctx, cmd, app, ws, projectID, nodes); err != nil {
					app.log.Error().Err(err).Str("project", projectID).Msg("dispatch reloaded tree")
				}
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}
	return cmd
}

func loadAndReport(ctx context.Context, cmd *cobra.Command, app *App, ws *workspace.Workspace, projectID string, nodes []model.Node) error {
	out, err := ws.Dispatch(ctx, projtree.LoadTree(projectID, nodes))
	if err != nil {
		return err
	}
	app.log.Info().Str("project", projectID).Int("roots", len(nodes)).Msg("tree loaded")
	return writeOut(cmd, app, dispatchResult(ws, projectID, out))
}

// dispatchResult is the output shape of every mutating command.
func dispatchResult(ws *workspace.Workspace, projectID string, out projtree.Outcome) map[string]any {
	data := map[string]any{"applied": out.Applied}
	if ps, ok := ws.Trees.Project(projectID); ok {
		data["project"] = ps
	}
	return map[string]any{"data": data}
}

func parseSets(sets []string) (map[string]any, error) {
	changes := make(map[string]any, len(sets))
	for _, s := range sets {
		k, v, ok := strings.Cut(s, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --set %q (want k=v)", s)
		}
		var decoded any
		if err := json.Unmarshal([]byte(v), &decoded); err == nil {
			changes[k] = decoded
			continue
		}
		changes[k] = v
	}
	return changes, nil
}
