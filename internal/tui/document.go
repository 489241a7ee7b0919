package tui

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"mimi-cli/internal/model"
	"mimi-cli/internal/projtree"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// documentMarkdown renders the node as markdown: label heading, body text, then
// the remaining scalar fields as a list.
func documentMarkdown(n model.Node) string {
	var sb strings.Builder
	sb.WriteString("# " + n.Label() + "\n\n")
	body := ""
	for _, f := range []string{"text", "description", "body"} {
		if s, ok := n.Fields[f].(string); ok && strings.TrimSpace(s) != "" {
			body = s
			break
		}
	}
	if body != "" {
		sb.WriteString(strings.TrimSpace(body) + "\n\n")
	}
	keys := make([]string, 0, len(n.Fields))
	for k, v := range n.Fields {
		switch k {
		case "label", "title", "name", "text", "description", "body":
			continue
		}
		switch v.(type) {
		case string, bool, float64, int:
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	for _, k := range keys {
		sb.WriteString("- **" + k + "**: " + fieldString(n.Fields[k]) + "\n")
	}
	sb.WriteString("- **key**: `" + n.Key + "`\n")
	return sb.String()
}

func fieldString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "yes"
		}
		return "no"
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// renderDocument renders the active document for view, or a hint when none is set.
func renderDocument(ps model.ProjectState, view string, width int, mdStyle string) string {
	key := activeKey(ps, view)
	if key == "" {
		return styleMuted().Render("No active document. Select a node and press enter.")
	}
	// Prefer the tab snapshot; the tree may have moved on.
	n, ok := ps.TabbedNodes[key]
	if !ok {
		n, ok = projtree.FindNode(ps.Tree, key)
	}
	if !ok {
		return styleMuted().Render("Active document " + key + " is not in the tree.")
	}
	return RenderMarkdown(documentMarkdown(n), width, mdStyle)
}

// renderKanban lays root nodes out as columns listing their direct children.
func renderKanban(ps model.ProjectState, view string, width int) string {
	if len(ps.Tree) == 0 {
		return styleMuted().Render("Empty tree.")
	}
	cols := len(ps.Tree)
	colWidth := width / cols
	if colWidth < 14 {
		colWidth = 14
	}
	active := activeKey(ps, view)
	var columns []string
	for _, root := range ps.Tree {
		inner := colWidth - 4
		head := lipgloss.NewStyle().Bold(true).Render(ansi.Truncate(root.Label(), inner, "…"))
		if root.Key == active {
			head = styleActiveDoc().Render(ansi.Truncate(root.Label(), inner, "…"))
		}
		lines := []string{head}
		for _, ch := range root.Children {
			card := ansi.Truncate(ch.Label(), inner, "…")
			if ch.Key == active {
				card = styleActiveDoc().Render(card)
			}
			lines = append(lines, "· "+card)
		}
		columns = append(columns, lipgloss.NewStyle().
			Width(colWidth-2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorCardBorder).
			Render(strings.Join(lines, "\n")))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, columns...)
}
