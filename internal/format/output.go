package format

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"mimi-cli/internal/model"
	"mimi-cli/internal/projtree"
)

// Write writes output in the requested format.
//
// Supported formats:
// - json (default)
// - edn
// - tree: indented outline for node trees and project states; other values fall back to json
func Write(w io.Writer, v any, format string, pretty bool) error {
	switch format {
	case "", "json":
		return WriteJSON(w, v, pretty)
	case "edn":
		return WriteEDN(w, v, pretty)
	case "tree":
		if ok, err := WriteTree(w, v); ok {
			return err
		}
		return WriteJSON(w, v, true)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteJSON writes strict JSON, one document per call.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	var b []byte
	var err error
	if pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(b))
	return err
}

// WriteTree renders trees as an indented outline. The CLI {"data": x} envelope
// is unwrapped. It reports false when v has no tree shape.
func WriteTree(w io.Writer, v any) (bool, error) {
	if env, ok := v.(map[string]any); ok {
		if d, ok := env["data"]; ok && len(env) <= 2 {
			v = d
		}
	}
	var sb strings.Builder
	switch t := v.(type) {
	case []model.Node:
		writeNodes(&sb, t, 0)
	case model.Node:
		writeNodes(&sb, []model.Node{t}, 0)
	case model.ProjectState:
		writeProjectState(&sb, t)
	case projtree.State:
		ids := make([]string, 0, len(t))
		for id := range t {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for i, id := range ids {
			if i > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString("# " + id + "\n")
			writeProjectState(&sb, t[id])
		}
	default:
		return false, nil
	}
	_, err := io.WriteString(w, sb.String())
	return true, err
}

func writeProjectState(sb *strings.Builder, ps model.ProjectState) {
	sb.WriteString("tree:\n")
	writeNodes(sb, ps.Tree, 1)
	sb.WriteString("tabs:\n")
	for _, k := range ps.TabKeys() {
		fmt.Fprintf(sb, "  %s  %s\n", k, ps.TabbedNodes[k].Label())
	}
	sb.WriteString("active:\n")
	views := make([]string, 0, len(ps.ActiveDocument))
	for k := range ps.ActiveDocument {
		views = append(views, k)
	}
	sort.Strings(views)
	for _, view := range views {
		d := ps.ActiveDocument[view]
		fmt.Fprintf(sb, "  %s  section=%s task=%s\n", view, ptrOrDash(d.Section), ptrOrDash(d.Task))
	}
}

func writeNodes(sb *strings.Builder, ns []model.Node, depth int) {
	for _, n := range ns {
		sb.WriteString(strings.Repeat("  ", depth))
		sb.WriteString("- ")
		sb.WriteString(n.Label())
		if n.Label() != n.Key {
			sb.WriteString(" [" + n.Key + "]")
		}
		sb.WriteByte('\n')
		writeNodes(sb, n.Children, depth+1)
	}
}

func ptrOrDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
