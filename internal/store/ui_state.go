package store

import (
	"encoding/json"
	"errors"
	"os"
	"strings"
)

// UIState is small, user-facing TUI state restored on relaunch.
// It is best effort: a missing or corrupt file yields the default state.
type UIState struct {
	Version int `json:"version"`

	// View is one of: projects|tree
	View string `json:"view,omitempty"`

	// SidebarBlock is the opened sidebar block: projects|resources|docs (empty = closed).
	SidebarBlock string `json:"sidebarBlock,omitempty"`

	SelectedProjectID string `json:"selectedProjectId,omitempty"`

	// DocTab is the active-document view the tree pane tracks (tree|kanban).
	DocTab string `json:"docTab,omitempty"`

	// Collapsed node keys per project.
	Collapsed map[string][]string `json:"collapsed,omitempty"`
}

func (s Store) LoadUIState() (*UIState, error) {
	if strings.TrimSpace(s.Dir) == "" {
		return &UIState{Version: 1}, nil
	}
	b, err := os.ReadFile(s.uiStatePath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &UIState{Version: 1}, nil
		}
		return nil, err
	}
	var st UIState
	if err := json.Unmarshal(b, &st); err != nil {
		return &UIState{Version: 1}, nil
	}
	if st.Version == 0 {
		st.Version = 1
	}
	return &st, nil
}

func (s Store) SaveUIState(st *UIState) error {
	if st == nil || strings.TrimSpace(s.Dir) == "" {
		return nil
	}
	if err := s.Ensure(); err != nil {
		return err
	}
	if st.Version == 0 {
		st.Version = 1
	}
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(s.uiStatePath(), b)
}
