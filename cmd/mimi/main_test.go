package main

import (
	"reflect"
	"testing"
)

func TestRewriteProjectShorthandArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "no args",
			in:   []string{"mimi"},
			want: []string{"mimi"},
		},
		{
			name: "shorthand first token",
			in:   []string{"mimi", "@proj-1"},
			want: []string{"mimi", "projects", "show", "proj-1"},
		},
		{
			name: "shorthand after value flag",
			in:   []string{"mimi", "--dir", "./tmp-test-ws", "@proj-1"},
			want: []string{"mimi", "--dir", "./tmp-test-ws", "projects", "show", "proj-1"},
		},
		{
			name: "shorthand after equals flag",
			in:   []string{"mimi", "--format=edn", "@proj-1"},
			want: []string{"mimi", "--format=edn", "projects", "show", "proj-1"},
		},
		{
			name: "shorthand keeps trailing flags",
			in:   []string{"mimi", "--pretty", "@proj-1", "--render"},
			want: []string{"mimi", "--pretty", "projects", "show", "proj-1", "--render"},
		},
		{
			name: "shorthand after double dash",
			in:   []string{"mimi", "--dir", "./tmp-test-ws", "--", "@proj-1"},
			want: []string{"mimi", "--dir", "./tmp-test-ws", "--", "projects", "show", "proj-1"},
		},
		{
			name: "bare at sign not rewritten",
			in:   []string{"mimi", "@"},
			want: []string{"mimi", "@"},
		},
		{
			name: "normal subcommand not rewritten",
			in:   []string{"mimi", "tree", "show", "@proj-1"},
			want: []string{"mimi", "tree", "show", "@proj-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := rewriteProjectShorthandArgs(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("rewriteProjectShorthandArgs:\n got: %#v\nwant: %#v", got, tt.want)
			}
		})
	}
}
