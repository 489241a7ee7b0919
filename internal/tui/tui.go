package tui

import (
	"context"
	"errors"

	"mimi-cli/internal/config"
	"mimi-cli/internal/workspace"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
)

// Run starts the interactive projects/tree UI on the alternate screen and
// blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, ws *workspace.Workspace, cfg config.UIConfig, log zerolog.Logger) error {
	applyColorProfilePreference()

	m := newAppModel(ctx, ws, cfg, log)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
