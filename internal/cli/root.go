package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"mimi-cli/internal/config"
	"mimi-cli/internal/format"
	"mimi-cli/internal/logging"
	"mimi-cli/internal/store"
	"mimi-cli/internal/tui"
	"mimi-cli/internal/workspace"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type App struct {
	ConfigPath string
	Dir        string
	Format     string
	PrettyJSON bool

	cfg       *config.Config
	log       zerolog.Logger
	logCloser io.Closer
}

func NewRootCmd() *cobra.Command {
	app := &App{log: zerolog.Nop()}

	cmd := &cobra.Command{
		Use:          "mimi",
		Short:        "Project tree state store (CLI + TUI)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  mimi

  # Load a project tree and open a tab
  mimi tree load proj-1 tree.yaml
  mimi tabs open proj-1 task-7 --view tree

  # Inspect state
  mimi state show --format tree
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(app.ConfigPath, cmd.Flags())
		if err != nil {
			return writeErr(cmd, err)
		}
		app.cfg = cfg
		app.Format = cfg.Format
		app.PrettyJSON = cfg.Pretty
		// The TUI owns the terminal; it builds a file logger itself.
		if cmd == cmd.Root() {
			return nil
		}
		log, closer, err := logging.New(cfg.Log)
		if err != nil {
			return writeErr(cmd, err)
		}
		app.log, app.logCloser = log, closer
		return nil
	}

	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if app.logCloser != nil {
			_ = app.logCloser.Close()
		}
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", envOr("MIMI_CONFIG", ""), "Path to config file (default: ~/.mimi/config.yaml)")
	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("MIMI_DIR", ""), "Path to store dir (default: nearest .mimi dir, then config dir)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", "json", "Output format (json|edn|tree)")

	cmd.AddCommand(newProjectsCmd(app))
	cmd.AddCommand(newTreeCmd(app))
	cmd.AddCommand(newTabsCmd(app))
	cmd.AddCommand(newDocsCmd(app))
	cmd.AddCommand(newClearCmd(app))
	cmd.AddCommand(newStateCmd(app))
	cmd.AddCommand(newPublishCmd(app))
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newGuideCmd(app))

	return cmd
}

func runTUI(cmd *cobra.Command, app *App) error {
	dir, err := resolveDir(app)
	if err != nil {
		return writeErr(cmd, err)
	}
	log, closer, err := logging.ForTUI(app.cfg.Log, dir)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer closer.Close()

	ws, err := workspace.Open(cmd.Context(), dir, log)
	if err != nil {
		return writeErr(cmd, err)
	}
	return tui.Run(cmd.Context(), ws, app.cfg.UI, log)
}

// resolveDir applies --dir/MIMI_DIR first, then .mimi discovery, then the configured dir.
func resolveDir(app *App) (string, error) {
	fallback := ""
	if app.cfg != nil {
		fallback = app.cfg.Dir
	}
	return store.ResolveDir(app.Dir, fallback)
}

func openWorkspace(cmd *cobra.Command, app *App) (*workspace.Workspace, error) {
	dir, err := resolveDir(app)
	if err != nil {
		return nil, err
	}
	app.log.Debug().Str("dir", dir).Msg("open workspace")
	return workspace.Open(cmd.Context(), dir, app.log)
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
