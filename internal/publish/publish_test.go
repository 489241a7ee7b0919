package publish

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mimi-cli/internal/model"
)

func sampleState() model.ProjectState {
	ps := model.EmptyProjectState()
	ps.Tree = []model.Node{
		{Key: "s1", Fields: map[string]any{"label": "Backend", "status": "doing"}, Children: []model.Node{
			{Key: "t1", Fields: map[string]any{"label": "API"}},
		}},
		{Key: "bare"},
	}
	ps.TabbedNodes["t1"] = ps.Tree[0].Children[0].Clone()
	ps.ActiveDocument["tree"] = model.NewDocumentPointer("s1", "t1")
	ps.ActiveDocument["kanban"] = model.NewDocumentPointer("s1", "")
	return ps
}

func TestRenderProjectMarkdown_IncludesTreeAndDocuments(t *testing.T) {
	t.Parallel()

	p := &model.Project{ID: "p1", Name: "Alpha", Text: "Some **markdown**.", CurrentVersion: "1.2"}
	md := RenderProjectMarkdown("p1", p, sampleState(), RenderOptions{IncludeFields: []string{"status"}})

	for _, want := range []string{
		"# Alpha",
		"- ID: p1",
		"- Version: 1.2",
		"- Open tabs: t1",
		"## Overview",
		"Some **markdown**.",
		"- Backend (`s1`) [status: doing]",
		"  - API (`t1`)",
		"- bare\n",
		"- kanban: section s1, task -",
		"- tree: section s1, task t1",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("expected markdown to contain %q; got:\n%s", want, md)
		}
	}
	if strings.Index(md, "- kanban") > strings.Index(md, "- tree:") {
		t.Fatalf("expected views sorted; got:\n%s", md)
	}
}

func TestRenderProjectMarkdown_UnknownCatalogEntry(t *testing.T) {
	t.Parallel()

	md := RenderProjectMarkdown("p9", nil, model.EmptyProjectState(), RenderOptions{})
	if !strings.HasPrefix(md, "# p9\n") {
		t.Fatalf("expected id as title; got:\n%s", md)
	}
	if !strings.Contains(md, "_(empty)_") {
		t.Fatalf("expected empty tree marker; got:\n%s", md)
	}
	if strings.Contains(md, "## Active documents") {
		t.Fatalf("expected no active documents section; got:\n%s", md)
	}
}

func TestWriteProject_WritesAndRespectsOverwrite(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := &model.Project{ID: "p1", Name: "Alpha"}
	res, err := WriteProject("p1", p, sampleState(), dir, WriteOptions{})
	if err != nil {
		t.Fatalf("WriteProject: %v", err)
	}
	want := filepath.Join(dir, "projects", "p1.md")
	if len(res.Written) != 1 || res.Written[0] != want {
		t.Fatalf("expected %s written; got %v", want, res.Written)
	}
	b, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(b), "# Alpha") {
		t.Fatalf("unexpected file content:\n%s", b)
	}

	if _, err := WriteProject("p1", p, sampleState(), dir, WriteOptions{}); err == nil {
		t.Fatalf("expected error when file exists")
	}
	if _, err := WriteProject("p1", p, sampleState(), dir, WriteOptions{Overwrite: true}); err != nil {
		t.Fatalf("WriteProject overwrite: %v", err)
	}
	if _, err := WriteProject("p1", p, sampleState(), "", WriteOptions{}); err == nil {
		t.Fatalf("expected missing --to error")
	}
}
