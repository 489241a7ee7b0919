package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mimi-cli/internal/model"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// ReadTreeFile decodes a node sequence from a .json, .yaml or .yml file.
// A single top-level object is accepted as a one-node tree; an object with a
// "tree" field (an exported ProjectState) is unwrapped.
func ReadTreeFile(path string) ([]model.Node, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeTree(b, filepath.Ext(path))
}

// DecodeTree decodes b according to ext (".json", ".yaml", ".yml"; empty means json).
func DecodeTree(b []byte, ext string) ([]model.Node, error) {
	var raw any
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &raw); err != nil {
			return nil, fmt.Errorf("decode yaml tree: %w", err)
		}
	case "", ".json":
		if err := json.Unmarshal(b, &raw); err != nil {
			return nil, fmt.Errorf("decode json tree: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported tree file type %q", ext)
	}

	if obj, ok := raw.(map[string]any); ok {
		if tree, ok := obj["tree"]; ok {
			raw = tree
		} else {
			raw = []any{obj}
		}
	}
	nodes, err := model.NodesFromAny(raw)
	if err != nil {
		return nil, err
	}
	if nodes == nil {
		nodes = []model.Node{}
	}
	return nodes, nil
}

// WatchTreeFile calls fn with the decoded tree every time path is written,
// until ctx is done. Decode errors are passed to fn and watching continues.
// Editors often replace files by rename, so the parent directory is watched.
func WatchTreeFile(ctx context.Context, path string, fn func([]model.Node, error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	// Coalesce bursts (write + chmod + rename) into one reload.
	const settle = 100 * time.Millisecond
	var timer <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				timer = time.After(settle)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			fn(nil, err)
		case <-timer:
			timer = nil
			nodes, err := ReadTreeFile(abs)
			fn(nodes, err)
		}
	}
}
