package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mimi-cli/internal/config"
	"mimi-cli/internal/model"
	"mimi-cli/internal/projtree"
	"mimi-cli/internal/workspace"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/rs/zerolog"
)

func newTestApp(t *testing.T, role string) appModel {
	t.Helper()
	oldProfile := lipgloss.ColorProfile()
	lipgloss.SetColorProfile(termenv.ANSI256)
	t.Cleanup(func() { lipgloss.SetColorProfile(oldProfile) })

	ctx := context.Background()
	ws, err := workspace.Open(ctx, t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("open workspace: %v", err)
	}
	if err := ws.UpsertProject(ctx, model.Project{ID: "p1", Name: "Alpha"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := ws.Dispatch(ctx, projtree.LoadTree("p1", sampleTree())); err != nil {
		t.Fatalf("load tree: %v", err)
	}

	m := newAppModel(ctx, ws, config.UIConfig{Role: role, SidebarWidth: 24, MarkdownStyle: "dark"}, zerolog.Nop())
	mm, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return mm.(appModel)
}

func press(t *testing.T, m appModel, keys ...string) appModel {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "space":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		mm, _ := m.Update(msg)
		m = mm.(appModel)
	}
	return m
}

func TestApp_EnterActivatesProjectAndOpensTree(t *testing.T) {
	m := newTestApp(t, "")

	m = press(t, m, "enter")
	if m.view != viewTree || m.selectedProjectID != "p1" {
		t.Fatalf("expected tree view of p1, got view=%v project=%q", m.view, m.selectedProjectID)
	}
	if !m.ws.Catalog.IsCurrent("p1") {
		t.Fatalf("expected p1 activated")
	}
	if got := len(m.treeList.Items()); got != 4 {
		t.Fatalf("expected 4 tree rows, got %d", got)
	}
}

func TestApp_OpenAndCloseTab(t *testing.T) {
	m := newTestApp(t, "")
	m = press(t, m, "enter", "down", "down", "enter")

	ps, _ := m.ws.Trees.Project("p1")
	if _, ok := ps.TabbedNodes["t2"]; !ok {
		t.Fatalf("expected t2 tabbed, got %v", ps.TabKeys())
	}
	if got := activeKey(ps, docViewTree); got != "t2" {
		t.Fatalf("expected active tree document t2, got %q", got)
	}
	if out := ansi.Strip(m.View()); !strings.Contains(out, "Persistence") {
		t.Fatalf("expected document pane to show Persistence, got:\n%s", out)
	}

	m = press(t, m, "x")
	ps, _ = m.ws.Trees.Project("p1")
	if len(ps.TabbedNodes) != 0 {
		t.Fatalf("expected tab closed, got %v", ps.TabKeys())
	}
	// The active pointer is untouched by closing a tab.
	if got := activeKey(ps, docViewTree); got != "t2" {
		t.Fatalf("expected active document kept, got %q", got)
	}
}

func TestApp_TabSwitchesDocumentView(t *testing.T) {
	m := newTestApp(t, "")
	m = press(t, m, "enter", "tab")
	if m.docView != docViewKanban {
		t.Fatalf("expected kanban view, got %q", m.docView)
	}

	m = press(t, m, "enter")
	ps, _ := m.ws.Trees.Project("p1")
	if got := activeKey(ps, docViewKanban); got != "s1" {
		t.Fatalf("expected kanban document s1, got %q", got)
	}
	if got := activeKey(ps, docViewTree); got != "" {
		t.Fatalf("expected tree view untouched, got %q", got)
	}

	m = press(t, m, "tab")
	if m.docView != docViewTree {
		t.Fatalf("expected tree view, got %q", m.docView)
	}
}

func TestApp_SpaceTogglesCollapse(t *testing.T) {
	m := newTestApp(t, "")
	m = press(t, m, "enter", "space")
	if got := len(m.treeList.Items()); got != 2 {
		t.Fatalf("expected collapsed s1 to hide children, got %d rows", got)
	}
	m = press(t, m, "space")
	if got := len(m.treeList.Items()); got != 4 {
		t.Fatalf("expected expanded tree, got %d rows", got)
	}
}

func TestApp_UIStateRestoredOnRelaunch(t *testing.T) {
	m := newTestApp(t, "")
	m = press(t, m, "enter", "tab", "space")

	m2 := newAppModel(context.Background(), m.ws, m.cfg, zerolog.Nop())
	if m2.view != viewTree || m2.selectedProjectID != "p1" || m2.docView != docViewKanban {
		t.Fatalf("unexpected restored state: view=%v project=%q doc=%q", m2.view, m2.selectedProjectID, m2.docView)
	}
	if !m2.collapsed["p1"]["s1"] {
		t.Fatalf("expected s1 collapsed after restore")
	}
}

func TestApp_SidebarOnlyForDeveloperRole(t *testing.T) {
	m := newTestApp(t, "")
	m = press(t, m, "s")
	if m.sidebar.focused {
		t.Fatalf("expected sidebar disabled without developer role")
	}

	d := newTestApp(t, "developer")
	d = press(t, d, "s")
	if !d.sidebar.focused || d.sidebar.opened != "projects" {
		t.Fatalf("expected projects block focused, got %+v", d.sidebar)
	}
	if out := ansi.Strip(d.View()); !strings.Contains(out, "Projects") {
		t.Fatalf("expected sidebar in view, got:\n%s", out)
	}

	d = press(t, d, "enter")
	if d.sidebar.focused || d.view != viewTree || !d.ws.Catalog.IsCurrent("p1") {
		t.Fatalf("expected sidebar enter to activate p1 and open its tree")
	}
}

func TestApp_EscReturnsToProjects(t *testing.T) {
	m := newTestApp(t, "")
	m = press(t, m, "enter", "esc")
	if m.view != viewProjects {
		t.Fatalf("expected projects view, got %v", m.view)
	}
}

func TestApp_ReloadTickPicksUpCatalogOnlyChanges(t *testing.T) {
	m := newTestApp(t, "")
	ctx := context.Background()

	other, err := workspace.Open(ctx, m.ws.Store.Dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("open second workspace: %v", err)
	}
	if err := other.UpsertProject(ctx, model.Project{ID: "p2", Name: "Beta"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	// Only the snapshot moved; the action log is untouched.
	future := time.Now().Add(time.Minute)
	if err := os.Chtimes(filepath.Join(m.ws.Store.Dir, "state.sqlite"), future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	mm, _ := m.Update(reloadTickMsg{})
	m = mm.(appModel)
	if got := len(m.projectsList.Items()); got != 2 {
		t.Fatalf("expected reload to show 2 projects, got %d", got)
	}
	if !m.lastChange.Equal(m.ws.Store.ChangeStamp()) {
		t.Fatalf("expected change stamp recorded after reload")
	}

	mm, _ = m.Update(reloadTickMsg{})
	if got := len(mm.(appModel).projectsList.Items()); got != 2 {
		t.Fatalf("expected steady state after second tick, got %d", got)
	}
}
