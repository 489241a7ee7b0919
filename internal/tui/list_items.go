package tui

import (
	"fmt"
	"io"
	"strings"

	"mimi-cli/internal/model"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

type projectItem struct {
	project model.Project
	current bool
	// hasTree is true when the tree store holds state for the project.
	hasTree bool
}

func (i projectItem) FilterValue() string { return i.project.Name }
func (i projectItem) Title() string {
	if strings.TrimSpace(i.project.Name) == "" {
		return i.project.ID
	}
	return i.project.Name
}
func (i projectItem) Description() string { return i.project.ID }

// projectCardDelegate renders catalog entries as bordered cards:
// name + active marker, the first line of the rendered markdown text, version.
type projectCardDelegate struct {
	mdStyle string
}

func (d projectCardDelegate) Height() int                             { return 5 }
func (d projectCardDelegate) Spacing() int                            { return 0 }
func (d projectCardDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d projectCardDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(projectItem)
	if !ok {
		return
	}
	width := m.Width() - 4
	if width < 20 {
		width = 20
	}

	title := lipgloss.NewStyle().Bold(true).Render(it.Title())
	if it.current {
		title += "  " + styleActiveDoc().Render("● active")
	}
	summary := firstLine(RenderMarkdown(it.project.Text, width, d.mdStyle))
	if summary == "" {
		summary = styleMuted().Render("(no description)")
	}
	meta := "v" + orDash(it.project.CurrentVersion) + "  " + it.project.ID
	if !it.hasTree {
		meta += "  (no tree loaded)"
	}

	border := colorCardBorder
	if index == m.Index() {
		border = colorSelectedBorder
	}
	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Width(width).
		Render(strings.Join([]string{
			ansi.Truncate(title, width, "…"),
			ansi.Truncate(summary, width, "…"),
			styleMuted().Render(ansi.Truncate(meta, width, "…")),
		}, "\n"))
	fmt.Fprint(w, card)
}

type treeRowItem struct {
	row treeRow
	// tabbed marks nodes that currently have an open tab.
	tabbed bool
	// active marks the node the current view's active document points at.
	active bool
}

func (i treeRowItem) FilterValue() string { return i.row.node.Label() }

type treeRowDelegate struct{}

func (d treeRowDelegate) Height() int                             { return 1 }
func (d treeRowDelegate) Spacing() int                            { return 0 }
func (d treeRowDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d treeRowDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(treeRowItem)
	if !ok {
		return
	}
	twisty := "  "
	switch {
	case it.row.hasChildren && it.row.collapsed:
		twisty = "▸ "
	case it.row.hasChildren:
		twisty = "▾ "
	}
	line := strings.Repeat("  ", it.row.depth) + twisty + it.row.node.Label()
	if it.tabbed {
		line += " ◆"
	}
	line = ansi.Truncate(line, m.Width()-1, "…")

	switch {
	case index == m.Index():
		line = styleSelected().Render(line)
	case it.active:
		line = styleActiveDoc().Render(line)
	}
	fmt.Fprint(w, line)
}

func newList(title string, delegate list.ItemDelegate, items []list.Item) list.Model {
	l := list.New(items, delegate, 0, 0)
	l.Title = title
	// The app renders its own header and footer, so keep list chrome minimal.
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetShowPagination(false)
	l.SetFilteringEnabled(false)
	l.KeyMap.Quit.SetKeys("q")
	// Emacs-style navigation aliases.
	l.KeyMap.CursorUp.SetKeys(append(append([]string{}, l.KeyMap.CursorUp.Keys()...), "ctrl+p")...)
	l.KeyMap.CursorDown.SetKeys(append(append([]string{}, l.KeyMap.CursorDown.Keys()...), "ctrl+n")...)
	return l
}

func selectListItemByKey(l *list.Model, key string) {
	for i, item := range l.Items() {
		switch it := item.(type) {
		case projectItem:
			if it.project.ID == key {
				l.Select(i)
				return
			}
		case treeRowItem:
			if it.row.node.Key == key {
				l.Select(i)
				return
			}
		}
	}
}

func firstLine(s string) string {
	for _, ln := range strings.Split(s, "\n") {
		if strings.TrimSpace(ansi.Strip(ln)) != "" {
			return strings.TrimSpace(ln)
		}
	}
	return ""
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
