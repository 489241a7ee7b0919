package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mimi-cli/internal/model"

	"gopkg.in/yaml.v3"
)

// ReadProjectsFile decodes a project list from a .json, .yaml or .yml file.
// Either a bare list or an object with a "projects" list is accepted.
func ReadProjectsFile(path string) ([]model.Project, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	type wrapped struct {
		Projects []model.Project `json:"projects" yaml:"projects"`
	}
	var list []model.Project
	var w wrapped
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &list); err != nil {
			if err2 := yaml.Unmarshal(b, &w); err2 != nil {
				return nil, fmt.Errorf("decode yaml projects: %w", err)
			}
			list = w.Projects
		}
	case "", ".json":
		trimmed := strings.TrimSpace(string(b))
		if strings.HasPrefix(trimmed, "{") {
			if err := json.Unmarshal(b, &w); err != nil {
				return nil, fmt.Errorf("decode json projects: %w", err)
			}
			list = w.Projects
		} else if err := json.Unmarshal(b, &list); err != nil {
			return nil, fmt.Errorf("decode json projects: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported projects file type %q", ext)
	}

	for i := range list {
		list[i].ID = strings.TrimSpace(list[i].ID)
		if list[i].ID == "" {
			return nil, fmt.Errorf("%s: project %d: missing id", path, i)
		}
	}
	if list == nil {
		list = []model.Project{}
	}
	return list, nil
}
