package projtree

import (
	"maps"
	"slices"

	"mimi-cli/internal/model"
)

// State maps project id to that project's state.
//
// Values are treated as immutable: Reduce never writes into a map, slice or node
// it was handed, so a previous State stays valid after a transition. Untouched
// subtrees are shared between the old and new State.
type State map[string]model.ProjectState

// Clone deep-copies the whole mapping.
func (s State) Clone() State {
	out := make(State, len(s))
	for id, ps := range s {
		out[id] = ps.Clone()
	}
	return out
}

// ProjectIDs returns the ids present in the mapping, sorted.
func (s State) ProjectIDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Reduce applies a to s and returns the next state.
//
// Missing targets (unknown project, unknown key) and unknown kinds leave the
// state unchanged; no operation reports an error.
func Reduce(s State, a Action) State {
	next, _ := apply(s, a)
	return next
}

// apply is Reduce plus whether the action found its target. The second value
// never influences the resulting state.
func apply(s State, a Action) (State, bool) {
	if s == nil {
		s = State{}
	}
	switch a.Kind {
	case KindLoadTree:
		ps, ok := s[a.ProjectID]
		if !ok {
			ps = model.EmptyProjectState()
		}
		tree := model.CloneNodes(a.Tree)
		if tree == nil {
			tree = []model.Node{}
		}
		ps.Tree = tree
		return with(s, a.ProjectID, ps), true

	case KindAddTabbedNode:
		ps, ok := s[a.ProjectID]
		if !ok || a.Node == nil {
			return s, false
		}
		tabs := make(map[string]model.Node, len(ps.TabbedNodes)+1)
		maps.Copy(tabs, ps.TabbedNodes)
		// Tabs are snapshots; later tree edits must not reach them.
		tabs[a.Node.Key] = a.Node.Clone()
		ps.TabbedNodes = tabs
		return with(s, a.ProjectID, ps), true

	case KindRemoveTabbedNode:
		ps, ok := s[a.ProjectID]
		if !ok {
			return s, false
		}
		if _, ok := ps.TabbedNodes[a.Key]; !ok {
			return s, false
		}
		tabs := make(map[string]model.Node, len(ps.TabbedNodes))
		for k, n := range ps.TabbedNodes {
			if k != a.Key {
				tabs[k] = n
			}
		}
		ps.TabbedNodes = tabs
		return with(s, a.ProjectID, ps), true

	case KindSetActiveDocument:
		ps, ok := s[a.ProjectID]
		if !ok {
			return s, false
		}
		docs := make(map[string]model.DocumentPointer, len(ps.ActiveDocument)+1)
		maps.Copy(docs, ps.ActiveDocument)
		docs[a.Tab] = model.NewDocumentPointer(a.SectionID, a.TaskID)
		ps.ActiveDocument = docs
		return with(s, a.ProjectID, ps), true

	case KindUpdateTreeNode:
		ps, ok := s[a.ProjectID]
		if !ok {
			return s, false
		}
		tree, found := replaceFirst(ps.Tree, a.Key, func(n model.Node) model.Node {
			return n.Merge(a.Changes)
		})
		if !found {
			return s, false
		}
		ps.Tree = tree
		return with(s, a.ProjectID, ps), true

	case KindSetNodeChildren:
		ps, ok := s[a.ProjectID]
		if !ok {
			return s, false
		}
		children := model.CloneNodes(a.Children)
		if children == nil {
			children = []model.Node{}
		}
		tree, found := replaceFirst(ps.Tree, a.Key, func(n model.Node) model.Node {
			n.Children = children
			return n
		})
		if !found {
			return s, false
		}
		ps.Tree = tree
		return with(s, a.ProjectID, ps), true

	case KindClearProjectData:
		if _, ok := s[a.ProjectID]; !ok {
			return s, false
		}
		return with(s, a.ProjectID, model.EmptyProjectState()), true
	}
	return s, false
}

// with returns a copy of s with id set to ps.
func with(s State, id string, ps model.ProjectState) State {
	out := make(State, len(s)+1)
	maps.Copy(out, s)
	out[id] = ps
	return out
}

// replaceFirst finds the first node with key in pre-order (a node is checked
// before its children, siblings left to right) and replaces it with fn(node).
// Only the path from the root to the match is copied. When nothing matches the
// input slice is returned as is.
func replaceFirst(nodes []model.Node, key string, fn func(model.Node) model.Node) ([]model.Node, bool) {
	for i := range nodes {
		if nodes[i].Key == key {
			out := slices.Clone(nodes)
			out[i] = fn(nodes[i])
			return out, true
		}
		if len(nodes[i].Children) == 0 {
			continue
		}
		if ch, ok := replaceFirst(nodes[i].Children, key, fn); ok {
			out := slices.Clone(nodes)
			n := nodes[i]
			n.Children = ch
			out[i] = n
			return out, true
		}
	}
	return nodes, false
}

// FindNode returns the first node with key in pre-order.
func FindNode(nodes []model.Node, key string) (model.Node, bool) {
	for _, n := range nodes {
		if n.Key == key {
			return n, true
		}
		if found, ok := FindNode(n.Children, key); ok {
			return found, true
		}
	}
	return model.Node{}, false
}

// Path returns the keys from the root down to key (inclusive), or nil.
func Path(nodes []model.Node, key string) []string {
	for _, n := range nodes {
		if n.Key == key {
			return []string{n.Key}
		}
		if p := Path(n.Children, key); p != nil {
			return append([]string{n.Key}, p...)
		}
	}
	return nil
}

// Walk visits every node in pre-order with its depth. Returning false from fn
// skips that node's children.
func Walk(nodes []model.Node, fn func(n model.Node, depth int) bool) {
	var walk func(ns []model.Node, depth int)
	walk = func(ns []model.Node, depth int) {
		for _, n := range ns {
			if fn(n, depth) {
				walk(n.Children, depth+1)
			}
		}
	}
	walk(nodes, 0)
}
