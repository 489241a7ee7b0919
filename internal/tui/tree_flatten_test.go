package tui

import (
	"testing"

	"mimi-cli/internal/model"
)

func sampleTree() []model.Node {
	return []model.Node{
		{Key: "s1", Fields: map[string]any{"label": "Design", "type": "section"}, Children: []model.Node{
			{Key: "t1", Fields: map[string]any{"label": "Outline"}},
			{Key: "t2", Fields: map[string]any{"label": "Persistence", "status": "doing"}},
		}},
		{Key: "s2", Fields: map[string]any{"label": "Ship", "type": "section"}, Children: []model.Node{}},
	}
}

func TestFlattenTree_PreOrderWithDepth(t *testing.T) {
	t.Parallel()

	rows := flattenTree(sampleTree(), nil)
	got := make([]string, 0, len(rows))
	for _, r := range rows {
		got = append(got, r.node.Key)
	}
	want := []string{"s1", "t1", "t2", "s2"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if rows[1].depth != 1 || rows[1].parentKey != "s1" {
		t.Fatalf("expected t1 at depth 1 under s1, got depth=%d parent=%q", rows[1].depth, rows[1].parentKey)
	}
	if !rows[0].hasChildren || rows[3].hasChildren {
		t.Fatalf("expected s1 to have children and empty s2 not to")
	}
}

func TestFlattenTree_SkipsCollapsedChildren(t *testing.T) {
	t.Parallel()

	rows := flattenTree(sampleTree(), map[string]bool{"s1": true})
	if len(rows) != 2 {
		t.Fatalf("expected 2 visible rows, got %d", len(rows))
	}
	if !rows[0].collapsed || rows[1].node.Key != "s2" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}
