package tui

import (
	"strings"

	"mimi-cli/internal/model"

	"github.com/charmbracelet/x/ansi"
)

const maxTabLabel = 18

// renderTabStrip renders open tabs sorted by key on one line no wider than width.
// The tab whose key is activeKey is highlighted.
func renderTabStrip(ps model.ProjectState, activeKey string, width int) string {
	keys := ps.TabKeys()
	if len(keys) == 0 {
		return styleMuted().Render("no open tabs")
	}
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		label := ansi.Truncate(ps.TabbedNodes[k].Label(), maxTabLabel, "…")
		parts = append(parts, styleTab(k == activeKey).Render(label))
	}
	line := strings.Join(parts, " ")
	if width > 0 && ansi.StringWidth(line) > width {
		line = ansi.Truncate(line, width, "…")
	}
	return line
}

// activeKey is the tab to highlight for view: the task if set, else the section.
func activeKey(ps model.ProjectState, view string) string {
	d, ok := ps.ActiveDocument[view]
	if !ok {
		return ""
	}
	if d.Task != nil {
		return *d.Task
	}
	if d.Section != nil {
		return *d.Section
	}
	return ""
}
