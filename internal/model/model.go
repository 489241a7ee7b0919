package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"sort"
)

const (
	// FieldKey and FieldChildren are the only structurally significant node fields.
	// Children travel as "ch" to stay compatible with payloads produced by the web front-end.
	FieldKey      = "key"
	FieldChildren = "ch"
)

// Node is one entry of a project tree.
//
// Everything except Key and Children is opaque to the store and kept in Fields
// (label, type, status...). A nil Children means the node carries no "ch" field;
// an empty non-nil slice means it has an explicit empty child list.
type Node struct {
	Key      string
	Fields   map[string]any
	Children []Node
}

// Field returns an opaque field value.
func (n Node) Field(name string) (any, bool) {
	v, ok := n.Fields[name]
	return v, ok
}

// Label is the best-effort display label: "label", then "title", then "name", then the key.
func (n Node) Label() string {
	for _, f := range []string{"label", "title", "name"} {
		if s, ok := n.Fields[f].(string); ok && s != "" {
			return s
		}
	}
	return n.Key
}

// HasChildren reports whether the node carries a "ch" field at all.
func (n Node) HasChildren() bool { return n.Children != nil }

// Merge returns a copy of n with changes shallow-merged over its fields.
// Merged values are deep-copied. Fields not named in changes are preserved. "key" and "ch" are honored too,
// the same way an object spread would overwrite them.
func (n Node) Merge(changes map[string]any) Node {
	out := Node{Key: n.Key, Children: n.Children}
	out.Fields = make(map[string]any, len(n.Fields)+len(changes))
	maps.Copy(out.Fields, n.Fields)
	for k, v := range changes {
		switch k {
		case FieldKey:
			if s, ok := v.(string); ok {
				out.Key = s
			} else {
				out.Key = fmt.Sprint(v)
			}
		case FieldChildren:
			ch, err := NodesFromAny(v)
			if err != nil {
				// Not a node list; keep it as an opaque value so nothing is lost.
				out.Fields[k] = cloneValue(v)
				continue
			}
			out.Children = CloneNodes(ch)
		default:
			out.Fields[k] = cloneValue(v)
		}
	}
	return out
}

// Clone deep-copies the node, its fields and its subtree.
func (n Node) Clone() Node {
	out := Node{Key: n.Key}
	if n.Fields != nil {
		out.Fields = make(map[string]any, len(n.Fields))
		for k, v := range n.Fields {
			out.Fields[k] = cloneValue(v)
		}
	}
	if n.Children != nil {
		out.Children = CloneNodes(n.Children)
	}
	return out
}

// CloneNodes deep-copies a node sequence. nil stays nil.
func CloneNodes(ns []Node) []Node {
	if ns == nil {
		return nil
	}
	out := make([]Node, len(ns))
	for i := range ns {
		out[i] = ns[i].Clone()
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[k] = cloneValue(x)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = cloneValue(x)
		}
		return out
	case Node:
		return t.Clone()
	case []Node:
		return CloneNodes(t)
	default:
		return v
	}
}

// NodesFromAny converts a decoded JSON/YAML value ([]any of objects, []Node, nil) into nodes.
func NodesFromAny(v any) ([]Node, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []Node:
		return t, nil
	case []any, []map[string]any:
		b, err := json.Marshal(t)
		if err != nil {
			return nil, err
		}
		var out []Node
		if err := json.Unmarshal(b, &out); err != nil {
			return nil, err
		}
		if out == nil {
			out = []Node{}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("not a node list: %T", v)
	}
}

func (n Node) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(n.Fields))
	for k := range n.Fields {
		if k == FieldKey || k == FieldChildren {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	kb, _ := json.Marshal(n.Key)
	buf.WriteString(`"key":`)
	buf.Write(kb)
	for _, k := range keys {
		name, _ := json.Marshal(k)
		val, err := json.Marshal(n.Fields[k])
		if err != nil {
			return nil, fmt.Errorf("node %s field %s: %w", n.Key, k, err)
		}
		buf.WriteByte(',')
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(val)
	}
	if n.Children != nil {
		ch, err := json.Marshal(n.Children)
		if err != nil {
			return nil, err
		}
		buf.WriteString(`,"ch":`)
		buf.Write(ch)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (n *Node) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*n = Node{}
	if kb, ok := raw[FieldKey]; ok {
		if err := json.Unmarshal(kb, &n.Key); err != nil {
			// Numeric keys are common in exported trees.
			var num json.Number
			if err2 := json.Unmarshal(kb, &num); err2 != nil {
				return fmt.Errorf("node key: %w", err)
			}
			n.Key = num.String()
		}
	}
	if cb, ok := raw[FieldChildren]; ok && !bytes.Equal(bytes.TrimSpace(cb), []byte("null")) {
		var ch []Node
		if err := json.Unmarshal(cb, &ch); err != nil {
			return fmt.Errorf("node %s children: %w", n.Key, err)
		}
		if ch == nil {
			ch = []Node{}
		}
		n.Children = ch
	}
	for k, v := range raw {
		if k == FieldKey || k == FieldChildren {
			continue
		}
		if n.Fields == nil {
			n.Fields = map[string]any{}
		}
		var x any
		if err := json.Unmarshal(v, &x); err != nil {
			return err
		}
		n.Fields[k] = x
	}
	return nil
}

// DocumentPointer references the section and task currently open in a view.
// Either side may be nil; neither is checked against the tree.
type DocumentPointer struct {
	Section *string `json:"section"`
	Task    *string `json:"task"`
}

// NewDocumentPointer treats empty ids as "nothing selected".
func NewDocumentPointer(sectionID, taskID string) DocumentPointer {
	var p DocumentPointer
	if sectionID != "" {
		s := sectionID
		p.Section = &s
	}
	if taskID != "" {
		t := taskID
		p.Task = &t
	}
	return p
}

// ProjectState is the per-project slice of UI state.
type ProjectState struct {
	Tree           []Node                     `json:"tree"`
	TabbedNodes    map[string]Node            `json:"tabbedNodes"`
	ActiveDocument map[string]DocumentPointer `json:"activeDocument"`
}

// EmptyProjectState is the shape a project starts from and is reset to.
func EmptyProjectState() ProjectState {
	return ProjectState{
		Tree:           []Node{},
		TabbedNodes:    map[string]Node{},
		ActiveDocument: map[string]DocumentPointer{},
	}
}

// Clone deep-copies the state.
func (p ProjectState) Clone() ProjectState {
	out := ProjectState{Tree: CloneNodes(p.Tree)}
	if out.Tree == nil {
		out.Tree = []Node{}
	}
	out.TabbedNodes = make(map[string]Node, len(p.TabbedNodes))
	for k, n := range p.TabbedNodes {
		out.TabbedNodes[k] = n.Clone()
	}
	out.ActiveDocument = make(map[string]DocumentPointer, len(p.ActiveDocument))
	for k, d := range p.ActiveDocument {
		out.ActiveDocument[k] = NewDocumentPointer(deref(d.Section), deref(d.Task))
	}
	return out
}

// TabKeys returns open tab keys sorted for stable rendering.
func (p ProjectState) TabKeys() []string {
	keys := make([]string, 0, len(p.TabbedNodes))
	for k := range p.TabbedNodes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ProjectRef is the current-project pointer.
type ProjectRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
