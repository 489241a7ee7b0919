package cli

import (
	"fmt"
	"strings"

	"mimi-cli/internal/model"
	"mimi-cli/internal/publish"
	"mimi-cli/internal/store"
	"mimi-cli/internal/tui"

	"github.com/spf13/cobra"
)

func newProjectsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Project catalog commands",
	}
	cmd.AddCommand(newProjectsListCmd(app))
	cmd.AddCommand(newProjectsAddCmd(app))
	cmd.AddCommand(newProjectsActivateCmd(app))
	cmd.AddCommand(newProjectsShowCmd(app))
	cmd.AddCommand(newProjectsImportCmd(app))
	cmd.AddCommand(newProjectsRemoveCmd(app))
	cmd.AddCommand(newProjectsDeactivateCmd(app))
	return cmd
}

func newProjectsListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog projects and the current project",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": ws.Catalog.State()})
		},
	}
	return cmd
}

func newProjectsAddCmd(app *App) *cobra.Command {
	var p model.Project

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add or replace a catalog project",
		RunE: func(cmd *cobra.Command, args []string) error {
			p.ID = strings.TrimSpace(p.ID)
			p.Name = strings.TrimSpace(p.Name)
			if p.ID == "" {
				return writeErr(cmd, fmt.Errorf("missing --id"))
			}
			ws, err := openWorkspace(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := ws.UpsertProject(cmd.Context(), p); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": p})
		},
	}

	cmd.Flags().StringVar(&p.ID, "id", "", "Project id")
	cmd.Flags().StringVar(&p.Name, "name", "", "Project name")
	cmd.Flags().StringVar(&p.Text, "text", "", "Project description (markdown)")
	cmd.Flags().StringVar(&p.CurrentVersion, "version", "", "Current version label")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newProjectsActivateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activate <project-id>",
		Short: "Set the current project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			ref, err := ws.ActivateProject(cmd.Context(), strings.TrimSpace(args[0]))
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": ref})
		},
	}
	return cmd
}

func newProjectsImportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the catalog with the projects in a .json/.yaml file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ps, err := store.ReadProjectsFile(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			ws, err := openWorkspace(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := ws.SetProjects(cmd.Context(), ps); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": ws.Catalog.State()})
		},
	}
	return cmd
}

func newProjectsRemoveCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <project-id>",
		Short: "Remove a catalog project (tree state is kept)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			ws, err := openWorkspace(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			removed, err := ws.RemoveProject(cmd.Context(), id)
			if err != nil {
				return writeErr(cmd, err)
			}
			if !removed {
				return writeErr(cmd, errNotFound("project", id))
			}
			return writeOut(cmd, app, map[string]any{"data": ws.Catalog.State()})
		},
	}
	return cmd
}

func newProjectsDeactivateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deactivate",
		Short: "Clear the current project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := ws.DeactivateProject(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": ws.Catalog.State()})
		},
	}
	return cmd
}

func newProjectsShowCmd(app *App) *cobra.Command {
	var render bool
	var width int

	cmd := &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show a project (catalog entry + tree state)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			ws, err := openWorkspace(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			p, inCatalog := ws.Catalog.Find(id)
			ps, inTrees := ws.Trees.Project(id)
			if !inCatalog && !inTrees {
				return writeErr(cmd, errNotFound("project", id))
			}
			if !inTrees {
				ps = model.EmptyProjectState()
			}
			var pp *model.Project
			if inCatalog {
				pp = &p
			}

			if render {
				md := publish.RenderProjectMarkdown(id, pp, ps, publish.RenderOptions{IncludeFields: []string{"status", "type"}})
				out := tui.RenderMarkdown(md, width, app.cfg.UI.MarkdownStyle)
				_, err := fmt.Fprintln(cmd.OutOrStdout(), out)
				return err
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"project": pp,
				"current": ws.Catalog.IsCurrent(id),
				"state":   ps,
			}})
		},
	}

	cmd.Flags().BoolVar(&render, "render", false, "Render as terminal markdown instead of structured output")
	cmd.Flags().IntVar(&width, "width", 80, "Wrap width for --render")
	return cmd
}
