package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()

	cmd := NewRootCmd()

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)

	e := cmd.Execute()
	return outBuf.Bytes(), errBuf.Bytes(), e
}

// testEnv returns the leading args pinning a fresh store dir and an empty config file.
func testEnv(t *testing.T) []string {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("log:\n  level: error\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return []string{"--dir", filepath.Join(dir, "store"), "--config", cfgPath}
}

func mustRun(t *testing.T, env []string, args ...string) map[string]any {
	t.Helper()
	out, errOut, err := runCLI(t, append(append([]string{}, env...), args...))
	if err != nil {
		t.Fatalf("%v: %v\nstderr:\n%s", args, err, errOut)
	}
	var env2 map[string]any
	if err := json.Unmarshal(out, &env2); err != nil {
		t.Fatalf("%v: decode output: %v\n%s", args, err, out)
	}
	return env2
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

const treeYAML = `
- key: s1
  type: section
  label: Backend
  ch:
    - key: t1
      type: task
      label: API
    - key: t2
      type: task
      label: Storage
- key: s2
  type: section
  label: Frontend
`

func data(t *testing.T, env map[string]any) map[string]any {
	t.Helper()
	d, ok := env["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected object data; got %#v", env["data"])
	}
	return d
}

func TestProjects_AddActivateListShow(t *testing.T) {
	t.Parallel()
	env := testEnv(t)

	mustRun(t, env, "projects", "add", "--id", "p1", "--name", "Alpha", "--text", "Hello **world**", "--version", "0.1")
	mustRun(t, env, "projects", "add", "--id", "p2", "--name", "Beta")

	ref := data(t, mustRun(t, env, "projects", "activate", "p1"))
	if ref["id"] != "p1" || ref["name"] != "Alpha" {
		t.Fatalf("unexpected ref: %#v", ref)
	}

	list := data(t, mustRun(t, env, "projects", "list"))
	projects, _ := list["projects"].([]any)
	if len(projects) != 2 {
		t.Fatalf("expected 2 projects; got %#v", list["projects"])
	}
	if cur, _ := list["current"].(map[string]any); cur["id"] != "p1" {
		t.Fatalf("expected current p1; got %#v", list["current"])
	}

	show := data(t, mustRun(t, env, "projects", "show", "p1"))
	if show["current"] != true {
		t.Fatalf("expected p1 to be current; got %#v", show)
	}

	out, _, err := runCLI(t, append(env, "projects", "show", "p1", "--render"))
	if err != nil {
		t.Fatalf("show --render: %v", err)
	}
	if !strings.Contains(string(out), "Alpha") || !strings.Contains(string(out), "world") {
		t.Fatalf("expected rendered markdown; got:\n%s", out)
	}
}

func TestProjects_ShowUnknownIsNotFound(t *testing.T) {
	t.Parallel()
	env := testEnv(t)

	_, errOut, err := runCLI(t, append(env, "projects", "show", "ghost"))
	if err == nil {
		t.Fatalf("expected error")
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.ID != "ghost" || ExitCode(err) != 3 {
		t.Fatalf("expected NotFoundError for ghost with exit 3; got %v", err)
	}
	if !strings.Contains(string(errOut), "project not found: ghost") {
		t.Fatalf("unexpected stderr: %s", errOut)
	}
}

func TestTree_LoadShowUpdateSetChildren(t *testing.T) {
	t.Parallel()
	env := testEnv(t)
	treePath := writeFile(t, "tree.yaml", treeYAML)

	res := data(t, mustRun(t, env, "tree", "load", "p1", treePath))
	if res["applied"] != true {
		t.Fatalf("expected applied load; got %#v", res)
	}

	res = data(t, mustRun(t, env, "tree", "update", "p1", "t2", "--set", "label=Persistence", "--set", "done=true"))
	if res["applied"] != true {
		t.Fatalf("expected applied update; got %#v", res)
	}
	res = data(t, mustRun(t, env, "tree", "update", "p1", "missing", "--set", "x=1"))
	if res["applied"] != false {
		t.Fatalf("expected no-op update; got %#v", res)
	}

	childrenPath := writeFile(t, "children.json", `[{"key":"c1","label":"Child"}]`)
	res = data(t, mustRun(t, env, "tree", "set-children", "p1", "s2", childrenPath))
	if res["applied"] != true {
		t.Fatalf("expected applied set-children; got %#v", res)
	}

	shown := mustRun(t, env, "tree", "show", "p1")
	tree, _ := shown["data"].([]any)
	if len(tree) != 2 {
		t.Fatalf("expected 2 roots; got %#v", shown["data"])
	}
	s1 := tree[0].(map[string]any)
	t2 := s1["ch"].([]any)[1].(map[string]any)
	if t2["label"] != "Persistence" || t2["done"] != true || t2["type"] != "task" {
		t.Fatalf("expected merged t2; got %#v", t2)
	}
	s2 := tree[1].(map[string]any)
	if ch := s2["ch"].([]any); len(ch) != 1 || ch[0].(map[string]any)["key"] != "c1" {
		t.Fatalf("expected s2 children replaced; got %#v", s2)
	}

	out, _, err := runCLI(t, append(env, "--format", "tree", "tree", "show", "p1"))
	if err != nil {
		t.Fatalf("tree show --format tree: %v", err)
	}
	if !strings.Contains(string(out), "Persistence [t2]") {
		t.Fatalf("expected tree text output; got:\n%s", out)
	}
}

func TestTree_ShowUnknownProject(t *testing.T) {
	t.Parallel()
	env := testEnv(t)

	_, errOut, err := runCLI(t, append(env, "tree", "show", "nope"))
	if ExitCode(err) != 3 || !strings.Contains(string(errOut), "project not found: nope") {
		t.Fatalf("expected not found; err=%v stderr=%s", err, errOut)
	}
}

func TestTree_UpdateRejectsBadSet(t *testing.T) {
	t.Parallel()
	env := testEnv(t)

	_, errOut, err := runCLI(t, append(env, "tree", "update", "p1", "k", "--set", "novalue"))
	if err == nil || !strings.Contains(string(errOut), "want k=v") {
		t.Fatalf("expected parse error; err=%v stderr=%s", err, errOut)
	}
}

func TestTabsAndDocs(t *testing.T) {
	t.Parallel()
	env := testEnv(t)
	mustRun(t, env, "tree", "load", "p1", writeFile(t, "tree.yaml", treeYAML))

	res := data(t, mustRun(t, env, "tabs", "open", "p1", "t1", "--view", "tree"))
	if res["applied"] != true {
		t.Fatalf("expected applied open; got %#v", res)
	}
	// Unknown key: no tab, no error.
	res = data(t, mustRun(t, env, "tabs", "open", "p1", "zzz"))
	if res["applied"] != false {
		t.Fatalf("expected no-op open; got %#v", res)
	}
	mustRun(t, env, "tabs", "open", "p1", "s2")

	tabs, _ := mustRun(t, env, "tabs", "list", "p1")["data"].([]any)
	if len(tabs) != 2 || tabs[0].(map[string]any)["key"] != "s2" || tabs[1].(map[string]any)["key"] != "t1" {
		t.Fatalf("expected tabs [s2 t1]; got %#v", tabs)
	}

	docs := data(t, mustRun(t, env, "docs", "show", "p1"))
	treeDoc, _ := docs["tree"].(map[string]any)
	if treeDoc["section"] != "s1" || treeDoc["task"] != "t1" {
		t.Fatalf("expected tree doc s1/t1; got %#v", docs)
	}

	mustRun(t, env, "docs", "set", "p1", "--tab", "kanban", "--section", "s2")
	docs = data(t, mustRun(t, env, "docs", "show", "p1"))
	kanban, _ := docs["kanban"].(map[string]any)
	if kanban["section"] != "s2" || kanban["task"] != nil {
		t.Fatalf("expected kanban doc s2/null; got %#v", docs)
	}

	res = data(t, mustRun(t, env, "tabs", "close", "p1", "t1"))
	if res["applied"] != true {
		t.Fatalf("expected applied close; got %#v", res)
	}
	tabs, _ = mustRun(t, env, "tabs", "list", "p1")["data"].([]any)
	if len(tabs) != 1 {
		t.Fatalf("expected 1 tab after close; got %#v", tabs)
	}
}

func TestDocsSet_RequiresTab(t *testing.T) {
	t.Parallel()
	env := testEnv(t)

	_, errOut, err := runCLI(t, append(env, "docs", "set", "p1", "--section", "s1"))
	if err == nil || !strings.Contains(string(errOut), "missing --tab") {
		t.Fatalf("expected missing --tab; err=%v stderr=%s", err, errOut)
	}
}

func TestClearAndStateReplay(t *testing.T) {
	t.Parallel()
	env := testEnv(t)
	mustRun(t, env, "tree", "load", "p1", writeFile(t, "tree.yaml", treeYAML))
	mustRun(t, env, "tabs", "open", "p1", "t1", "--view", "tree")

	res := data(t, mustRun(t, env, "clear", "p1"))
	ps := res["project"].(map[string]any)
	if len(ps["tree"].([]any)) != 0 || len(ps["tabbedNodes"].(map[string]any)) != 0 {
		t.Fatalf("expected cleared project; got %#v", ps)
	}
	if res := data(t, mustRun(t, env, "clear", "ghost")); res["applied"] != false {
		t.Fatalf("expected no-op clear on unknown project; got %#v", res)
	}

	replay := data(t, mustRun(t, env, "state", "replay"))
	// load, addTabbedNode, setActiveDocument, clear p1, clear ghost
	if replay["replayed"] != float64(5) {
		t.Fatalf("expected 5 replayed records; got %#v", replay)
	}
	if ids := replay["projects"].([]any); len(ids) != 1 || ids[0] != "p1" {
		t.Fatalf("expected projects [p1]; got %#v", replay["projects"])
	}

	state := data(t, mustRun(t, env, "state", "show"))
	if _, ok := state["p1"]; !ok {
		t.Fatalf("expected p1 in state; got %#v", state)
	}
}

func TestPublish_WritesMarkdown(t *testing.T) {
	t.Parallel()
	env := testEnv(t)
	mustRun(t, env, "projects", "add", "--id", "p1", "--name", "Alpha")
	mustRun(t, env, "tree", "load", "p1", writeFile(t, "tree.yaml", treeYAML))

	to := t.TempDir()
	res := data(t, mustRun(t, env, "publish", "p1", "--to", to))
	written, _ := res["written"].([]any)
	if len(written) != 1 {
		t.Fatalf("expected one file; got %#v", res)
	}
	b, err := os.ReadFile(written[0].(string))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(b), "# Alpha") || !strings.Contains(string(b), "- API (`t1`)") {
		t.Fatalf("unexpected markdown:\n%s", b)
	}

	if _, _, err := runCLI(t, append(env, "publish", "p1", "--to", to)); err == nil {
		t.Fatalf("expected existing file error without --overwrite")
	}
}

func TestFormat_EDN(t *testing.T) {
	t.Parallel()
	env := testEnv(t)
	mustRun(t, env, "tree", "load", "p1", writeFile(t, "tree.json", `[{"key":"a"}]`))

	out, _, err := runCLI(t, append(env, "--format", "edn", "docs", "show", "p1"))
	if err != nil {
		t.Fatalf("edn: %v", err)
	}
	if got := strings.TrimSpace(string(out)); got != "{:data {}}" {
		t.Fatalf("unexpected edn: %q", got)
	}
}

func TestConfig_InvalidFormatRejected(t *testing.T) {
	t.Parallel()
	env := testEnv(t)

	_, errOut, err := runCLI(t, append(env, "--format", "xml", "state", "show"))
	if err == nil || !strings.Contains(string(errOut), "format") {
		t.Fatalf("expected config validation error; err=%v stderr=%s", err, errOut)
	}
}

func TestGuide_ListAndShow(t *testing.T) {
	t.Parallel()
	env := testEnv(t)

	topics, ok := data(t, mustRun(t, env, "guide"))["topics"].([]any)
	if !ok || len(topics) == 0 {
		t.Fatalf("expected topics list")
	}

	d := data(t, mustRun(t, env, "guide", "actions"))
	if md, _ := d["markdown"].(string); !strings.Contains(md, "loadTree") {
		t.Fatalf("expected actions topic markdown, got %q", md)
	}

	out, _, err := runCLI(t, append(append([]string{}, env...), "guide", "tabs", "--raw"))
	if err != nil || !strings.HasPrefix(string(out), "# Tabs") {
		t.Fatalf("expected raw markdown, err=%v out=%q", err, out)
	}

	if _, _, err := runCLI(t, append(append([]string{}, env...), "guide", "nope")); err == nil {
		t.Fatalf("expected unknown topic error")
	}
}

func TestProjects_RemoveAndDeactivate(t *testing.T) {
	t.Parallel()
	env := testEnv(t)

	mustRun(t, env, "projects", "add", "--id", "p1", "--name", "Alpha")
	mustRun(t, env, "projects", "add", "--id", "p2", "--name", "Beta")
	mustRun(t, env, "projects", "activate", "p2")

	st := data(t, mustRun(t, env, "projects", "deactivate"))
	if _, ok := st["current"]; ok {
		t.Fatalf("expected no current project; got %#v", st["current"])
	}

	mustRun(t, env, "projects", "activate", "p1")
	st = data(t, mustRun(t, env, "projects", "remove", "p1"))
	if projects, _ := st["projects"].([]any); len(projects) != 1 {
		t.Fatalf("expected one project left; got %#v", st["projects"])
	}
	if _, ok := st["current"]; ok {
		t.Fatalf("expected current cleared with removed project; got %#v", st["current"])
	}

	if _, _, err := runCLI(t, append(env, "projects", "remove", "p1")); ExitCode(err) != 3 {
		t.Fatalf("expected not found on second remove; got %v", err)
	}
}

func TestProjects_Import(t *testing.T) {
	t.Parallel()
	env := testEnv(t)

	mustRun(t, env, "projects", "add", "--id", "old", "--name", "Old")
	p := writeFile(t, "projects.yaml", "- id: p1\n  name: Alpha\n  text: \"# Alpha\"\n- id: p2\n  name: Beta\n")
	st := data(t, mustRun(t, env, "projects", "import", p))
	projects, _ := st["projects"].([]any)
	if len(projects) != 2 || projects[0].(map[string]any)["id"] != "p1" {
		t.Fatalf("expected catalog replaced by import; got %#v", st["projects"])
	}
}
