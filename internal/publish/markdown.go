package publish

import (
	"bytes"
	"slices"
	"strings"

	"mimi-cli/internal/model"
)

type RenderOptions struct {
	// IncludeFields lists opaque node fields printed next to each tree entry (e.g. "status").
	IncludeFields []string
}

// RenderProjectMarkdown renders a project's catalog entry and tree state as markdown.
// p may be nil when the project is only known to the tree store.
func RenderProjectMarkdown(projectID string, p *model.Project, ps model.ProjectState, opt RenderOptions) string {
	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	title := projectID
	if p != nil && strings.TrimSpace(p.Name) != "" {
		title = strings.TrimSpace(p.Name)
	}
	writeLn("# " + title)
	writeLn("")

	writeLn("## Meta")
	writeLn("")
	writeLn("- ID: " + projectID)
	if p != nil && strings.TrimSpace(p.CurrentVersion) != "" {
		writeLn("- Version: " + strings.TrimSpace(p.CurrentVersion))
	}
	if tabs := ps.TabKeys(); len(tabs) > 0 {
		writeLn("- Open tabs: " + strings.Join(tabs, ", "))
	}

	if p != nil && strings.TrimSpace(p.Text) != "" {
		writeLn("")
		writeLn("## Overview")
		writeLn("")
		writeLn(strings.TrimSpace(p.Text))
	}

	writeLn("")
	writeLn("## Tree")
	writeLn("")
	if len(ps.Tree) == 0 {
		writeLn("_(empty)_")
	}
	writeTree(&buf, ps.Tree, 0, opt)

	if len(ps.ActiveDocument) > 0 {
		views := make([]string, 0, len(ps.ActiveDocument))
		for v := range ps.ActiveDocument {
			views = append(views, v)
		}
		slices.Sort(views)

		writeLn("")
		writeLn("## Active documents")
		writeLn("")
		for _, v := range views {
			d := ps.ActiveDocument[v]
			writeLn("- " + v + ": section " + orDash(d.Section) + ", task " + orDash(d.Task))
		}
	}
	return buf.String()
}

func writeTree(buf *bytes.Buffer, nodes []model.Node, depth int, opt RenderOptions) {
	for _, n := range nodes {
		buf.WriteString(strings.Repeat("  ", depth))
		buf.WriteString("- " + n.Label())
		if n.Label() != n.Key {
			buf.WriteString(" (`" + n.Key + "`)")
		}
		for _, f := range opt.IncludeFields {
			if v, ok := n.Fields[f].(string); ok && strings.TrimSpace(v) != "" {
				buf.WriteString(" [" + f + ": " + strings.TrimSpace(v) + "]")
			}
		}
		buf.WriteString("\n")
		writeTree(buf, n.Children, depth+1, opt)
	}
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
