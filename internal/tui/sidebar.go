package tui

import (
	"strings"

	"mimi-cli/internal/model"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

type sidebarBlock struct {
	id    string
	label string
}

var sidebarBlocks = []sidebarBlock{
	{id: "projects", label: "Projects"},
	{id: "resources", label: "Resources"},
	{id: "docs", label: "Docs"},
}

// sidebarState tracks which block has focus. Focusing a block opens it; only
// one block is open at a time. An empty opened means every block is closed.
type sidebarState struct {
	focused bool
	cursor  int
	opened  string
	// projectCursor indexes the project entries of the open projects block.
	projectCursor int
}

func (s *sidebarState) focus(i int) {
	if i < 0 {
		i = len(sidebarBlocks) - 1
	}
	if i >= len(sidebarBlocks) {
		i = 0
	}
	s.cursor = i
	s.opened = sidebarBlocks[i].id
	s.projectCursor = 0
}

func (s *sidebarState) restore(opened string) {
	for i, b := range sidebarBlocks {
		if b.id == opened {
			s.cursor = i
			s.opened = opened
			return
		}
	}
}

type sidebarContent struct {
	projects  []model.Project
	currentID string
	resources []string
	docs      []string
}

func (s sidebarState) view(c sidebarContent, width, height int) string {
	// Width covers padding; the right border adds one column.
	inner := width - 3
	if inner < 4 {
		inner = 4
	}
	var lines []string
	for i, b := range sidebarBlocks {
		twisty := "▸ "
		if s.opened == b.id {
			twisty = "▾ "
		}
		head := twisty + b.label
		if s.focused && s.cursor == i {
			head = styleSelected().Render(head)
		} else {
			head = lipgloss.NewStyle().Bold(true).Render(head)
		}
		lines = append(lines, head)
		if s.opened != b.id {
			continue
		}
		switch b.id {
		case "projects":
			if len(c.projects) == 0 {
				lines = append(lines, styleMuted().Render("  (none)"))
			}
			for j, p := range c.projects {
				name := p.Name
				if strings.TrimSpace(name) == "" {
					name = p.ID
				}
				mark := "  "
				if p.ID == c.currentID {
					mark = "• "
				}
				row := ansi.Truncate(mark+name, inner, "…")
				if s.focused && j == s.projectCursor {
					row = styleSelected().Render(row)
				}
				lines = append(lines, "  "+row)
			}
		case "resources":
			for _, r := range c.resources {
				lines = append(lines, styleMuted().Render("  "+ansi.Truncate(r, inner-2, "…")))
			}
		case "docs":
			for _, d := range c.docs {
				lines = append(lines, styleMuted().Render("  "+ansi.Truncate(d, inner-2, "…")))
			}
		}
	}
	return lipgloss.NewStyle().
		Width(inner + 2).
		Height(height).
		Padding(0, 1).
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(colorCardBorder).
		Render(strings.Join(lines, "\n"))
}
