package cli

import (
	"errors"
	"strings"

	"mimi-cli/internal/model"
	"mimi-cli/internal/publish"

	"github.com/spf13/cobra"
)

func newPublishCmd(app *App) *cobra.Command {
	var toDir string
	var overwrite bool
	var fields []string

	cmd := &cobra.Command{
		Use:   "publish <project-id>",
		Short: "Export a project as Markdown (derived, not canonical)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			toDir = strings.TrimSpace(toDir)
			if toDir == "" {
				return writeErr(cmd, errors.New("missing --to"))
			}
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
			res, err := publish.WriteProject(id, pp, ps, toDir, publish.WriteOptions{
				Overwrite:     overwrite,
				IncludeFields: fields,
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": res})
		},
	}

	cmd.Flags().StringVar(&toDir, "to", "", "Output directory")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing files")
	cmd.Flags().StringSliceVar(&fields, "field", []string{"status"}, "Node fields to print next to tree entries")
	return cmd
}
