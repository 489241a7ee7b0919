package model

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestProject_DecodeAcceptsNumbersAndSnakeCase(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		decode func(*Project) error
		want   Project
	}{
		{
			name: "json numeric id",
			decode: func(p *Project) error {
				return json.Unmarshal([]byte(`{"id":7,"name":"Seven","current_version":"1.2"}`), p)
			},
			want: Project{ID: "7", Name: "Seven", CurrentVersion: "1.2"},
		},
		{
			name: "json camelCase wins",
			decode: func(p *Project) error {
				return json.Unmarshal([]byte(`{"id":"p1","name":"A","currentVersion":"2","current_version":"1"}`), p)
			},
			want: Project{ID: "p1", Name: "A", CurrentVersion: "2"},
		},
		{
			name: "json nulls are empty",
			decode: func(p *Project) error {
				return json.Unmarshal([]byte(`{"id":"p1","name":null,"currentVersion":null}`), p)
			},
			want: Project{ID: "p1"},
		},
		{
			name: "yaml numeric id keeps source text",
			decode: func(p *Project) error {
				return yaml.Unmarshal([]byte("id: 7\nname: Seven\ncurrent_version: 2.0\n"), p)
			},
			want: Project{ID: "7", Name: "Seven", CurrentVersion: "2.0"},
		},
		{
			name: "yaml camelCase wins",
			decode: func(p *Project) error {
				return yaml.Unmarshal([]byte("id: p1\ncurrentVersion: b\ncurrent_version: a\n"), p)
			},
			want: Project{ID: "p1", CurrentVersion: "b"},
		},
	}
	for _, tc := range cases {
		var p Project
		if err := tc.decode(&p); err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if p != tc.want {
			t.Fatalf("%s: expected %#v, got %#v", tc.name, tc.want, p)
		}
	}
}

func TestProject_DecodeRejectsNonScalars(t *testing.T) {
	t.Parallel()

	var p Project
	if err := json.Unmarshal([]byte(`{"id":{"x":1}}`), &p); err == nil {
		t.Fatalf("expected error for object id")
	}
	if err := json.Unmarshal([]byte(`{"id":true}`), &p); err == nil {
		t.Fatalf("expected error for bool id")
	}
	if err := yaml.Unmarshal([]byte("id: [1, 2]\n"), &p); err == nil {
		t.Fatalf("expected error for sequence id")
	}
}

func TestProject_MarshalUsesCamelCase(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(Project{ID: "7", Name: "Seven", CurrentVersion: "1"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got := string(b); got != `{"id":"7","name":"Seven","currentVersion":"1"}` {
		t.Fatalf("unexpected json: %s", got)
	}
}
