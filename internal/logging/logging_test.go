package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mimi-cli/internal/config"
)

func TestNew_FileOutputJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "mimi.log")
	log, closer, err := New(config.LogConfig{Level: "info", Format: "json", Output: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Debug().Msg("hidden")
	log.Info().Str("project", "p1").Msg("loaded")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line (debug filtered); got %d:\n%s", len(lines), b)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry["project"] != "p1" || entry["message"] != "loaded" || entry["level"] != "info" {
		t.Fatalf("unexpected entry: %#v", entry)
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	t.Parallel()

	if _, _, err := New(config.LogConfig{Level: "loud", Output: "stderr"}); err == nil {
		t.Fatalf("expected error for invalid level")
	}
}

func TestForTUI_RedirectsTerminalOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	log, closer, err := ForTUI(config.LogConfig{Level: "debug", Format: "json", Output: "stderr"}, dir)
	if err != nil {
		t.Fatalf("ForTUI: %v", err)
	}
	log.Debug().Msg("hello")
	_ = closer.Close()

	if _, err := os.Stat(filepath.Join(dir, "tui.log")); err != nil {
		t.Fatalf("expected tui.log: %v", err)
	}
}
