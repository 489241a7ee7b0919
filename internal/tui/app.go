package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"mimi-cli/internal/config"
	"mimi-cli/internal/docs"
	"mimi-cli/internal/model"
	"mimi-cli/internal/projtree"
	"mimi-cli/internal/store"
	"mimi-cli/internal/workspace"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
)

type view int

const (
	viewProjects view = iota
	viewTree
)

const (
	docViewTree   = "tree"
	docViewKanban = "kanban"
)

type reloadTickMsg struct{}

type appModel struct {
	ctx context.Context
	ws  *workspace.Workspace
	cfg config.UIConfig
	log zerolog.Logger

	width  int
	height int

	view    view
	docView string
	sidebar sidebarState

	projectsList list.Model
	treeList     list.Model

	selectedProjectID string
	// collapsed node keys per project.
	collapsed map[string]map[string]bool

	status string

	// lastChange is the store's change stamp as of the last reload or own write.
	lastChange time.Time
}

func newAppModel(ctx context.Context, ws *workspace.Workspace, cfg config.UIConfig, log zerolog.Logger) appModel {
	m := appModel{
		ctx:       ctx,
		ws:        ws,
		cfg:       cfg,
		log:       log,
		view:      viewProjects,
		docView:   docViewTree,
		collapsed: map[string]map[string]bool{},
	}
	m.projectsList = newList("Projects", projectCardDelegate{mdStyle: cfg.MarkdownStyle}, []list.Item{})
	m.treeList = newList("Tree", treeRowDelegate{}, []list.Item{})

	if cur, ok := ws.Catalog.Current(); ok {
		m.selectedProjectID = cur.ID
	}
	m.restoreUIState()
	m.refreshProjects()
	if m.view == viewTree {
		if _, ok := m.ws.Trees.Project(m.selectedProjectID); ok {
			m.refreshTree()
		} else {
			m.view = viewProjects
		}
	}
	m.lastChange = ws.Store.ChangeStamp()
	return m
}

func (m appModel) Init() tea.Cmd { return tickReload() }

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeLists()
		return m, nil

	case reloadTickMsg:
		if m.ws.Store.ChangeStamp().After(m.lastChange) {
			m.reloadFromDisk()
		}
		return m, tickReload()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.saveUIState()
			return m, tea.Quit
		case "r":
			m.reloadFromDisk()
			return m, nil
		case "s":
			if m.showSidebar() {
				m.sidebar.focused = !m.sidebar.focused
				if m.sidebar.focused && m.sidebar.opened == "" {
					m.sidebar.focus(m.sidebar.cursor)
				}
				m.saveUIState()
			}
			return m, nil
		}
		if m.sidebar.focused {
			return m.updateSidebar(msg)
		}
		switch m.view {
		case viewProjects:
			if next, cmd, handled := m.updateProjectsKey(msg); handled {
				return next, cmd
			}
		case viewTree:
			if next, cmd, handled := m.updateTreeKey(msg); handled {
				return next, cmd
			}
		}
	}

	// Let the active list handle navigation keys.
	var cmd tea.Cmd
	switch m.view {
	case viewProjects:
		m.projectsList, cmd = m.projectsList.Update(msg)
	case viewTree:
		m.treeList, cmd = m.treeList.Update(msg)
	}
	return m, cmd
}

func (m appModel) updateProjectsKey(msg tea.KeyMsg) (appModel, tea.Cmd, bool) {
	switch msg.String() {
	case "enter":
		it, ok := m.projectsList.SelectedItem().(projectItem)
		if !ok {
			return m, nil, true
		}
		m.activate(it.project.ID)
		m.openProject(it.project.ID)
		return m, nil, true
	case "a":
		if it, ok := m.projectsList.SelectedItem().(projectItem); ok {
			m.activate(it.project.ID)
		}
		return m, nil, true
	}
	return m, nil, false
}

func (m appModel) updateTreeKey(msg tea.KeyMsg) (appModel, tea.Cmd, bool) {
	switch msg.String() {
	case "esc", "backspace":
		m.view = viewProjects
		m.refreshProjects()
		m.saveUIState()
		return m, nil, true
	case "tab":
		if m.docView == docViewTree {
			m.docView = docViewKanban
		} else {
			m.docView = docViewTree
		}
		m.refreshTree()
		m.saveUIState()
		return m, nil, true
	case "enter":
		it, ok := m.treeList.SelectedItem().(treeRowItem)
		if !ok {
			return m, nil, true
		}
		out, err := m.ws.OpenTab(m.ctx, m.selectedProjectID, it.row.node.Key, m.docView)
		m.report(out, err, "opened "+it.row.node.Label())
		m.refreshTree()
		return m, nil, true
	case "x":
		it, ok := m.treeList.SelectedItem().(treeRowItem)
		if !ok {
			return m, nil, true
		}
		out, err := m.ws.Dispatch(m.ctx, projtree.RemoveTabbedNode(m.selectedProjectID, it.row.node.Key))
		m.report(out, err, "closed "+it.row.node.Label())
		m.refreshTree()
		return m, nil, true
	case " ", "space":
		it, ok := m.treeList.SelectedItem().(treeRowItem)
		if !ok || !it.row.hasChildren {
			return m, nil, true
		}
		c := m.collapsed[m.selectedProjectID]
		if c == nil {
			c = map[string]bool{}
			m.collapsed[m.selectedProjectID] = c
		}
		if c[it.row.node.Key] {
			delete(c, it.row.node.Key)
		} else {
			c[it.row.node.Key] = true
		}
		m.refreshTree()
		m.saveUIState()
		return m, nil, true
	}
	return m, nil, false
}

func (m appModel) updateSidebar(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.sidebar.focused = false
	case "left", "h", "shift+tab":
		m.sidebar.focus(m.sidebar.cursor - 1)
	case "right", "l", "tab":
		m.sidebar.focus(m.sidebar.cursor + 1)
	case "up", "k":
		if m.sidebar.projectCursor > 0 {
			m.sidebar.projectCursor--
		}
	case "down", "j":
		if m.sidebar.projectCursor < len(m.ws.Catalog.Projects())-1 {
			m.sidebar.projectCursor++
		}
	case "enter":
		ps := m.ws.Catalog.Projects()
		if m.sidebar.opened != "projects" || m.sidebar.projectCursor >= len(ps) {
			return m, nil
		}
		id := ps[m.sidebar.projectCursor].ID
		m.activate(id)
		m.sidebar.focused = false
		m.openProject(id)
	}
	m.saveUIState()
	return m, nil
}

func (m *appModel) activate(id string) {
	ref, err := m.ws.ActivateProject(m.ctx, id)
	if err != nil {
		m.setError(err)
		return
	}
	m.status = "active project: " + orDash(ref.Name)
	m.refreshProjects()
}

func (m *appModel) openProject(id string) {
	m.selectedProjectID = id
	m.view = viewTree
	m.treeList.ResetSelected()
	m.refreshTree()
	m.saveUIState()
}

func (m *appModel) report(out projtree.Outcome, err error, ok string) {
	switch {
	case err != nil:
		m.setError(err)
	case !out.Applied:
		m.status = "nothing to do"
	default:
		m.status = ok
	}
	m.lastChange = m.ws.Store.ChangeStamp()
}

func (m *appModel) setError(err error) {
	m.status = "error: " + err.Error()
	m.log.Error().Err(err).Msg("tui")
}

func (m appModel) showSidebar() bool { return m.cfg.IsDeveloper() }

func (m appModel) sidebarWidth() int {
	if !m.showSidebar() {
		return 0
	}
	w := m.cfg.SidebarWidth
	if w <= 0 {
		w = 28
	}
	return w
}

func (m appModel) View() string {
	curName := "-"
	if cur, ok := m.ws.Catalog.Current(); ok {
		curName = orDash(cur.Name)
	}
	header := lipgloss.NewStyle().
		Bold(true).
		Render(fmt.Sprintf("mimi  Dir=%s  Project=%s  View=%s", m.ws.Store.Dir, curName, m.docView))

	var body string
	switch m.view {
	case viewProjects:
		body = m.projectsList.View()
	case viewTree:
		body = m.viewTree()
	}
	if m.showSidebar() {
		side := m.sidebar.view(m.sidebarContent(), m.sidebarWidth(), m.bodyHeight())
		body = lipgloss.JoinHorizontal(lipgloss.Top, side, " ", body)
	}

	help := "enter: open  a: activate  q: quit"
	if m.view == viewTree {
		help = "enter: open tab  x: close tab  space: collapse  tab: tree/kanban  esc: back  q: quit"
	}
	if m.sidebar.focused {
		help = "h/l: block  j/k: project  enter: activate  esc: leave sidebar"
	} else if m.showSidebar() {
		help += "  s: sidebar"
	}
	footer := styleMuted().Render(help)
	if m.status != "" {
		st := lipgloss.NewStyle().Foreground(colorSurfaceFg)
		if strings.HasPrefix(m.status, "error:") {
			st = st.Foreground(colorError)
		}
		footer = st.Render(m.status) + "\n" + footer
	}
	return strings.Join([]string{header, body, footer}, "\n\n")
}

func (m appModel) viewTree() string {
	ps, ok := m.ws.Trees.Project(m.selectedProjectID)
	if !ok {
		return styleMuted().Render("No tree loaded for " + m.selectedProjectID + ". Try: mimi tree load " + m.selectedProjectID + " <file>")
	}
	leftWidth, rightWidth := m.treeWidths()
	left := lipgloss.NewStyle().Width(leftWidth).Render(m.treeList.View())

	strip := renderTabStrip(ps, activeKey(ps, m.docView), rightWidth)
	var pane string
	if m.docView == docViewKanban {
		pane = renderKanban(ps, m.docView, rightWidth)
	} else {
		pane = renderDocument(ps, m.docView, rightWidth, m.cfg.MarkdownStyle)
	}
	right := lipgloss.NewStyle().Width(rightWidth).Render(strip + "\n\n" + pane)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right)
}

func (m appModel) bodyHeight() int {
	// Leave room for header/footer.
	h := m.height - 7
	if h < 8 {
		h = 8
	}
	return h
}

func (m appModel) mainWidth() int {
	w := m.width - m.sidebarWidth() - 1
	if w < 40 {
		w = 40
	}
	return w
}

func (m appModel) treeWidths() (int, int) {
	w := m.mainWidth()
	left := w * 2 / 5
	if left < 24 {
		left = 24
	}
	right := w - left - 2
	if right < 24 {
		right = 24
	}
	return left, right
}

func (m *appModel) resizeLists() {
	h := m.bodyHeight()
	m.projectsList.SetSize(m.mainWidth(), h)
	left, _ := m.treeWidths()
	m.treeList.SetSize(left, h)
}

func (m appModel) sidebarContent() sidebarContent {
	c := sidebarContent{projects: m.ws.Catalog.Projects()}
	if cur, ok := m.ws.Catalog.Current(); ok {
		c.currentID = cur.ID
	}
	c.resources = []string{
		m.ws.Store.Dir,
		"state.sqlite (snapshot)",
		"actions.jsonl (action log)",
	}
	for _, topic := range docs.Topics() {
		c.docs = append(c.docs, topic+": "+docs.Summary(topic))
	}
	c.docs = append(c.docs, "mimi guide <topic>")
	return c
}

func (m *appModel) refreshProjects() {
	curID := ""
	if it, ok := m.projectsList.SelectedItem().(projectItem); ok {
		curID = it.project.ID
	}
	trees := m.ws.Trees.State()
	seen := map[string]bool{}
	var items []list.Item
	for _, p := range m.ws.Catalog.Projects() {
		seen[p.ID] = true
		_, hasTree := trees[p.ID]
		items = append(items, projectItem{project: p, current: m.ws.Catalog.IsCurrent(p.ID), hasTree: hasTree})
	}
	// Projects only known to the tree store are still reachable.
	for _, id := range trees.ProjectIDs() {
		if seen[id] {
			continue
		}
		items = append(items, projectItem{project: model.Project{ID: id}, current: m.ws.Catalog.IsCurrent(id), hasTree: true})
	}
	m.projectsList.SetItems(items)
	if curID == "" {
		curID = m.selectedProjectID
	}
	if curID != "" {
		selectListItemByKey(&m.projectsList, curID)
	}
}

func (m *appModel) refreshTree() {
	curKey := ""
	if it, ok := m.treeList.SelectedItem().(treeRowItem); ok {
		curKey = it.row.node.Key
	}
	ps, ok := m.ws.Trees.Project(m.selectedProjectID)
	if !ok {
		m.treeList.SetItems(nil)
		return
	}
	active := activeKey(ps, m.docView)
	var items []list.Item
	for _, row := range flattenTree(ps.Tree, m.collapsed[m.selectedProjectID]) {
		_, tabbed := ps.TabbedNodes[row.node.Key]
		items = append(items, treeRowItem{row: row, tabbed: tabbed, active: row.node.Key == active})
	}
	m.treeList.SetItems(items)
	if curKey != "" {
		selectListItemByKey(&m.treeList, curKey)
	}
}

func (m *appModel) reloadFromDisk() {
	if err := m.ws.Refresh(m.ctx); err != nil {
		m.setError(err)
		return
	}
	m.lastChange = m.ws.Store.ChangeStamp()
	m.refreshProjects()
	if m.view == viewTree {
		m.refreshTree()
	}
}

func (m *appModel) restoreUIState() {
	st, err := m.ws.Store.LoadUIState()
	if err != nil {
		m.log.Warn().Err(err).Msg("load ui state")
		return
	}
	if st.SelectedProjectID != "" {
		m.selectedProjectID = st.SelectedProjectID
	}
	if st.View == "tree" && m.selectedProjectID != "" {
		m.view = viewTree
	}
	if st.DocTab == docViewKanban {
		m.docView = docViewKanban
	}
	if m.showSidebar() {
		m.sidebar.restore(st.SidebarBlock)
	}
	for id, keys := range st.Collapsed {
		c := map[string]bool{}
		for _, k := range keys {
			c[k] = true
		}
		m.collapsed[id] = c
	}
}

func (m appModel) saveUIState() {
	st := &store.UIState{
		Version:           1,
		View:              "projects",
		SidebarBlock:      m.sidebar.opened,
		SelectedProjectID: m.selectedProjectID,
		DocTab:            m.docView,
		Collapsed:         map[string][]string{},
	}
	if m.view == viewTree {
		st.View = "tree"
	}
	for id, c := range m.collapsed {
		if len(c) == 0 {
			continue
		}
		keys := make([]string, 0, len(c))
		for k := range c {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		st.Collapsed[id] = keys
	}
	if err := m.ws.Store.SaveUIState(st); err != nil {
		m.log.Warn().Err(err).Msg("save ui state")
	}
}

func tickReload() tea.Cmd {
	return tea.Tick(750*time.Millisecond, func(time.Time) tea.Msg { return reloadTickMsg{} })
}
