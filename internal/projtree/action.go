package projtree

import (
	"fmt"
	"strings"

	"mimi-cli/internal/model"
)

// Kind tags an Action.
type Kind string

const (
	KindLoadTree          Kind = "loadTree"
	KindAddTabbedNode     Kind = "addTabbedNode"
	KindRemoveTabbedNode  Kind = "removeTabbedNode"
	KindSetActiveDocument Kind = "setActiveDocument"
	KindUpdateTreeNode    Kind = "updateTreeNode"
	KindSetNodeChildren   Kind = "setNodeChildren"
	KindClearProjectData  Kind = "clearProjectData"
)

// Kinds lists every action kind in declaration order.
var Kinds = []Kind{
	KindLoadTree,
	KindAddTabbedNode,
	KindRemoveTabbedNode,
	KindSetActiveDocument,
	KindUpdateTreeNode,
	KindSetNodeChildren,
	KindClearProjectData,
}

func (k Kind) Valid() bool {
	for _, x := range Kinds {
		if k == x {
			return true
		}
	}
	return false
}

// Action is a tagged state transition. Only the payload fields relevant to Kind are read.
type Action struct {
	Kind      Kind           `json:"kind"`
	ProjectID string         `json:"projectId"`
	Tree      []model.Node   `json:"tree,omitempty"`
	Node      *model.Node    `json:"node,omitempty"`
	Key       string         `json:"key,omitempty"`
	Changes   map[string]any `json:"changes,omitempty"`
	Children  []model.Node   `json:"children,omitempty"`
	SectionID string         `json:"sectionId,omitempty"`
	TaskID    string         `json:"taskId,omitempty"`
	Tab       string         `json:"tab,omitempty"`
}

func LoadTree(projectID string, tree []model.Node) Action {
	return Action{Kind: KindLoadTree, ProjectID: projectID, Tree: tree}
}

func AddTabbedNode(projectID string, node model.Node) Action {
	return Action{Kind: KindAddTabbedNode, ProjectID: projectID, Node: &node}
}

func RemoveTabbedNode(projectID, key string) Action {
	return Action{Kind: KindRemoveTabbedNode, ProjectID: projectID, Key: key}
}

// SetActiveDocument points tab at a section/task. Empty ids mean "none".
func SetActiveDocument(projectID, sectionID, taskID, tab string) Action {
	return Action{Kind: KindSetActiveDocument, ProjectID: projectID, SectionID: sectionID, TaskID: taskID, Tab: tab}
}

func UpdateTreeNode(projectID, key string, changes map[string]any) Action {
	return Action{Kind: KindUpdateTreeNode, ProjectID: projectID, Key: key, Changes: changes}
}

func SetNodeChildren(projectID, key string, children []model.Node) Action {
	return Action{Kind: KindSetNodeChildren, ProjectID: projectID, Key: key, Children: children}
}

func ClearProjectData(projectID string) Action {
	return Action{Kind: KindClearProjectData, ProjectID: projectID}
}

// Validate checks the action shape for callers that accept actions from outside
// (HTTP, the action log). Reduce itself never fails.
func (a Action) Validate() error {
	if !a.Kind.Valid() {
		return fmt.Errorf("unknown action kind: %q", a.Kind)
	}
	if strings.TrimSpace(a.ProjectID) == "" {
		return fmt.Errorf("%s: missing projectId", a.Kind)
	}
	switch a.Kind {
	case KindAddTabbedNode:
		if a.Node == nil {
			return fmt.Errorf("%s: missing node", a.Kind)
		}
	case KindRemoveTabbedNode, KindUpdateTreeNode, KindSetNodeChildren:
		if a.Key == "" {
			return fmt.Errorf("%s: missing key", a.Kind)
		}
	}
	return nil
}

func (a Action) String() string {
	switch a.Kind {
	case KindAddTabbedNode:
		if a.Node != nil {
			return fmt.Sprintf("%s(%s, %s)", a.Kind, a.ProjectID, a.Node.Key)
		}
	case KindRemoveTabbedNode, KindUpdateTreeNode, KindSetNodeChildren:
		return fmt.Sprintf("%s(%s, %s)", a.Kind, a.ProjectID, a.Key)
	case KindSetActiveDocument:
		return fmt.Sprintf("%s(%s, %s)", a.Kind, a.ProjectID, a.Tab)
	}
	return fmt.Sprintf("%s(%s)", a.Kind, a.ProjectID)
}
