package tui

import (
	"mimi-cli/internal/model"
)

type treeRow struct {
	node        model.Node
	depth       int
	hasChildren bool
	collapsed   bool
	// parentKey is empty for roots.
	parentKey string
}

// flattenTree lists visible rows in pre-order. Children of collapsed nodes are skipped.
func flattenTree(nodes []model.Node, collapsed map[string]bool) []treeRow {
	var out []treeRow
	var walk func(ns []model.Node, depth int, parent string)
	walk = func(ns []model.Node, depth int, parent string) {
		for _, n := range ns {
			row := treeRow{
				node:        n,
				depth:       depth,
				hasChildren: len(n.Children) > 0,
				collapsed:   collapsed[n.Key],
				parentKey:   parent,
			}
			out = append(out, row)
			if row.hasChildren && !row.collapsed {
				walk(n.Children, depth+1, n.Key)
			}
		}
	}
	walk(nodes, 0, "")
	return out
}
