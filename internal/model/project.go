package model

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Project is one entry of the project catalog.
//
// Decoding accepts numeric scalars for every field (ids often come from
// integer primary keys) and "current_version" as an alias of
// "currentVersion". When both spellings are present the camelCase one wins.
type Project struct {
	ID             string `json:"id" yaml:"id"`
	Name           string `json:"name" yaml:"name"`
	Text           string `json:"text,omitempty" yaml:"text,omitempty"`
	CurrentVersion string `json:"currentVersion,omitempty" yaml:"currentVersion,omitempty"`
}

func (p *Project) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID                 json.RawMessage `json:"id"`
		Name               json.RawMessage `json:"name"`
		Text               json.RawMessage `json:"text"`
		CurrentVersion     json.RawMessage `json:"currentVersion"`
		CurrentVersionDash json.RawMessage `json:"current_version"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	var out Project
	fields := []struct {
		name string
		raw  json.RawMessage
		dst  *string
	}{
		{"id", raw.ID, &out.ID},
		{"name", raw.Name, &out.Name},
		{"text", raw.Text, &out.Text},
		{"current_version", raw.CurrentVersionDash, &out.CurrentVersion},
		{"currentVersion", raw.CurrentVersion, &out.CurrentVersion},
	}
	for _, f := range fields {
		v, ok, err := jsonScalar(f.raw)
		if err != nil {
			return fmt.Errorf("project %s: %w", f.name, err)
		}
		if ok {
			*f.dst = v
		}
	}
	*p = out
	return nil
}

func (p *Project) UnmarshalYAML(n *yaml.Node) error {
	var raw struct {
		ID                 *yaml.Node `yaml:"id"`
		Name               *yaml.Node `yaml:"name"`
		Text               *yaml.Node `yaml:"text"`
		CurrentVersion     *yaml.Node `yaml:"currentVersion"`
		CurrentVersionDash *yaml.Node `yaml:"current_version"`
	}
	if err := n.Decode(&raw); err != nil {
		return err
	}
	var out Project
	fields := []struct {
		name string
		node *yaml.Node
		dst  *string
	}{
		{"id", raw.ID, &out.ID},
		{"name", raw.Name, &out.Name},
		{"text", raw.Text, &out.Text},
		{"current_version", raw.CurrentVersionDash, &out.CurrentVersion},
		{"currentVersion", raw.CurrentVersion, &out.CurrentVersion},
	}
	for _, f := range fields {
		v, ok, err := yamlScalar(f.node)
		if err != nil {
			return fmt.Errorf("project %s: %w", f.name, err)
		}
		if ok {
			*f.dst = v
		}
	}
	*p = out
	return nil
}

// jsonScalar returns a string or number as text. Absent and null report ok=false.
func jsonScalar(raw json.RawMessage) (string, bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false, err
		}
		return s, true, nil
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err != nil {
		return "", false, fmt.Errorf("expected string or number, got %s", raw)
	}
	return num.String(), true, nil
}

// yamlScalar returns the scalar's source text, so 2.0 stays "2.0".
func yamlScalar(n *yaml.Node) (string, bool, error) {
	if n == nil {
		return "", false, nil
	}
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	if n.Kind != yaml.ScalarNode {
		return "", false, fmt.Errorf("expected scalar at line %d", n.Line)
	}
	if n.Tag == "!!null" {
		return "", false, nil
	}
	return n.Value, true, nil
}
