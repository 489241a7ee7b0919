package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mimi-cli/internal/catalog"
	"mimi-cli/internal/projtree"
)

const (
	localDirName    = ".mimi"
	sqliteFileName  = "state.sqlite"
	actionsFileName = "actions.jsonl"
	uiStateFileName = "ui_state.json"
)

// ErrNoSnapshot is returned by LoadSnapshot when nothing has been saved yet.
var ErrNoSnapshot = errors.New("no snapshot")

// Store is a directory holding a SQLite snapshot, the action log and the UI state file.
type Store struct {
	Dir string
}

// Snapshot is everything persisted about a session.
type Snapshot struct {
	Version int            `json:"version"`
	Trees   projtree.State `json:"trees"`
	Catalog catalog.State  `json:"catalog"`
	// LogOffset is the number of action log records already folded into Trees.
	LogOffset int `json:"logOffset"`
}

// DiscoverDir walks up from start looking for a .mimi directory.
func DiscoverDir(start string) (string, bool) {
	dir := start
	for {
		candidate := filepath.Join(dir, localDirName)
		if st, err := os.Stat(candidate); err == nil && st.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// ResolveDir picks the store directory: explicit > project-local .mimi > fallback.
func ResolveDir(explicit, fallback string) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		return filepath.Clean(explicit), nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if found, ok := DiscoverDir(cwd); ok {
		return found, nil
	}
	if strings.TrimSpace(fallback) == "" {
		return filepath.Join(cwd, localDirName), nil
	}
	return filepath.Clean(fallback), nil
}

func (s Store) Ensure() error {
	if strings.TrimSpace(s.Dir) == "" {
		return errors.New("store dir is not set")
	}
	return os.MkdirAll(s.Dir, 0o755)
}

// ChangeStamp is the latest modification time of the snapshot (including its
// WAL) and the action log. Zero when none exist yet.
func (s Store) ChangeStamp() time.Time {
	var latest time.Time
	for _, p := range []string{s.sqlitePath(), s.sqlitePath() + "-wal", s.actionsPath()} {
		st, err := os.Stat(p)
		if err != nil {
			continue
		}
		if mt := st.ModTime(); mt.After(latest) {
			latest = mt
		}
	}
	return latest
}

func (s Store) sqlitePath() string  { return filepath.Join(s.Dir, sqliteFileName) }
func (s Store) actionsPath() string { return filepath.Join(s.Dir, actionsFileName) }
func (s Store) uiStatePath() string { return filepath.Join(s.Dir, uiStateFileName) }

// writeFileAtomic writes via tmp+rename so readers never see a partial file.
func writeFileAtomic(path string, b []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
