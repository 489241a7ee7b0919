// Package catalog holds the list of known projects and the current-project pointer.
//
// It is independent of the tree store: activating a project never loads or clears
// tree state.
package catalog

import (
	"slices"
	"strings"
	"sync"

	"mimi-cli/internal/model"
)

// State is the serialisable form of a Catalog.
type State struct {
	Projects []model.Project  `json:"projects"`
	Current  *model.ProjectRef `json:"current,omitempty"`
}

type Catalog struct {
	mu       sync.RWMutex
	projects []model.Project
	current  *model.ProjectRef
}

func New() *Catalog {
	return &Catalog{projects: []model.Project{}}
}

// FromState rebuilds a catalog from persisted state.
func FromState(st State) *Catalog {
	c := New()
	c.Restore(st)
	return c
}

// SetProjects replaces the whole list.
func (c *Catalog) SetProjects(ps []model.Project) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.projects = slices.Clone(ps)
	if c.projects == nil {
		c.projects = []model.Project{}
	}
}

// Upsert adds p or replaces the project with the same id, keeping list order.
// A rename of the current project is reflected in the current pointer.
func (c *Catalog) Upsert(p model.Project) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.projects {
		if c.projects[i].ID == p.ID {
			c.projects[i] = p
			if c.current != nil && c.current.ID == p.ID {
				c.current = &model.ProjectRef{ID: p.ID, Name: p.Name}
			}
			return
		}
	}
	c.projects = append(c.projects, p)
}

// Remove drops a project from the list. The current pointer is cleared if it
// referenced the removed project.
func (c *Catalog) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.projects {
		if c.projects[i].ID == id {
			c.projects = slices.Delete(c.projects, i, i+1)
			if c.current != nil && c.current.ID == id {
				c.current = nil
			}
			return true
		}
	}
	return false
}

func (c *Catalog) Projects() []model.Project {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.projects)
}

func (c *Catalog) Find(id string) (model.Project, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id = strings.TrimSpace(id)
	for _, p := range c.projects {
		if p.ID == id {
			return p, true
		}
	}
	return model.Project{}, false
}

// Activate sets the current project. The id is not required to be in the list.
// An empty name is filled from the list when possible.
func (c *Catalog) Activate(id, name string) model.ProjectRef {
	c.mu.Lock()
	defer c.mu.Unlock()
	if strings.TrimSpace(name) == "" {
		for _, p := range c.projects {
			if p.ID == id {
				name = p.Name
				break
			}
		}
	}
	ref := model.ProjectRef{ID: id, Name: name}
	c.current = &ref
	return ref
}

// Deactivate clears the current project.
func (c *Catalog) Deactivate() {
	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()
}

func (c *Catalog) Current() (model.ProjectRef, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return model.ProjectRef{}, false
	}
	return *c.current, true
}

func (c *Catalog) IsCurrent(id string) bool {
	cur, ok := c.Current()
	return ok && cur.ID == id
}

func (c *Catalog) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st := State{Projects: slices.Clone(c.projects)}
	if st.Projects == nil {
		st.Projects = []model.Project{}
	}
	if c.current != nil {
		cur := *c.current
		st.Current = &cur
	}
	return st
}

func (c *Catalog) Restore(st State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.projects = slices.Clone(st.Projects)
	if c.projects == nil {
		c.projects = []model.Project{}
	}
	c.current = nil
	if st.Current != nil {
		cur := *st.Current
		c.current = &cur
	}
}
