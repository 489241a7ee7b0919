// Package workspace wires the tree store and the project catalog to their
// on-disk representation. CLI commands, the TUI and the HTTP API all mutate
// state through a Workspace so every path logs and persists the same way.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"mimi-cli/internal/catalog"
	"mimi-cli/internal/model"
	"mimi-cli/internal/projtree"
	"mimi-cli/internal/store"

	"github.com/rs/zerolog"
)

type Workspace struct {
	Store   store.Store
	Trees   *projtree.Store
	Catalog *catalog.Catalog

	log zerolog.Logger

	// mu serialises mutations within the process; the store FileLock does the
	// same across processes sharing Dir.
	mu       sync.Mutex
	logCount int
}

// Open loads the snapshot in dir and folds in any logged actions written after
// it. Without a snapshot the whole action log is replayed.
func Open(ctx context.Context, dir string, log zerolog.Logger) (*Workspace, error) {
	st := store.Store{Dir: dir}
	if err := st.Ensure(); err != nil {
		return nil, err
	}
	d, err := readDisk(ctx, st, log)
	if err != nil {
		return nil, err
	}
	return &Workspace{
		Store:    st,
		Trees:    projtree.New(projtree.WithState(d.trees), projtree.WithLogger(log)),
		Catalog:  catalog.FromState(d.catalog),
		log:      log,
		logCount: d.logCount,
	}, nil
}

type diskState struct {
	trees    projtree.State
	catalog  catalog.State
	logCount int
}

// readDisk is the snapshot plus every log record past its LogOffset.
func readDisk(ctx context.Context, st store.Store, log zerolog.Logger) (diskState, error) {
	snap, err := st.LoadSnapshot(ctx)
	switch {
	case errors.Is(err, store.ErrNoSnapshot):
		snap = store.Snapshot{Trees: projtree.State{}}
	case err != nil:
		return diskState{}, fmt.Errorf("load snapshot: %w", err)
	}

	recs, err := st.ReadActions()
	if err != nil {
		return diskState{}, fmt.Errorf("read action log: %w", err)
	}
	trees := snap.Trees
	switch {
	case snap.LogOffset < len(recs):
		pending := recs[snap.LogOffset:]
		log.Debug().Int("records", len(pending)).Msg("replaying action log tail")
		trees = store.Replay(trees, pending)
	case snap.LogOffset > len(recs):
		log.Warn().Int("offset", snap.LogOffset).Int("records", len(recs)).Msg("snapshot is ahead of the action log")
	}
	return diskState{trees: trees, catalog: snap.Catalog, logCount: len(recs)}, nil
}

// locked runs fn with the process and store locks held, after bringing the
// in-memory trees and catalog up to date with what other writers persisted.
// The snapshot is saved when fn succeeds.
func (w *Workspace) locked(ctx context.Context, fn func() error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	fl := w.Store.NewFileLock()
	if err := fl.Lock(); err != nil {
		return err
	}
	defer func() {
		if err := fl.Unlock(); err != nil {
			w.log.Warn().Err(err).Msg("release store lock")
		}
	}()

	if err := w.syncLocked(ctx); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return err
	}
	return w.saveLocked(ctx)
}

func (w *Workspace) syncLocked(ctx context.Context) error {
	d, err := readDisk(ctx, w.Store, w.log)
	if err != nil {
		return err
	}
	w.Trees.Replace(d.trees)
	w.Catalog.Restore(d.catalog)
	w.logCount = d.logCount
	return nil
}

// Refresh reloads trees and catalog from disk.
func (w *Workspace) Refresh(ctx context.Context) error {
	return w.locked(ctx, func() error { return nil })
}

// Dispatch applies a, appends it to the action log and saves the snapshot.
// Invalid actions are rejected before touching state.
func (w *Workspace) Dispatch(ctx context.Context, a projtree.Action) (projtree.Outcome, error) {
	if err := a.Validate(); err != nil {
		return projtree.Outcome{}, err
	}
	var out projtree.Outcome
	err := w.locked(ctx, func() error {
		out = w.Trees.Dispatch(a)
		if _, err := w.Store.AppendAction(a, out); err != nil {
			w.log.Error().Err(err).Str("action", a.String()).Msg("append action log")
			return fmt.Errorf("append action: %w", err)
		}
		w.logCount++
		return nil
	})
	if err != nil {
		return out, err
	}
	if !out.Applied {
		w.log.Info().Str("action", a.String()).Msg("no-op: target not found")
	}
	return out, nil
}

// Save writes the current snapshot.
func (w *Workspace) Save(ctx context.Context) error {
	return w.locked(ctx, func() error { return nil })
}

func (w *Workspace) saveLocked(ctx context.Context) error {
	snap := store.Snapshot{
		Trees:     w.Trees.State(),
		Catalog:   w.Catalog.State(),
		LogOffset: w.logCount,
	}
	if err := w.Store.SaveSnapshot(ctx, snap); err != nil {
		w.log.Error().Err(err).Msg("save snapshot")
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// UpsertProject adds or replaces a catalog entry and persists it.
func (w *Workspace) UpsertProject(ctx context.Context, p model.Project) error {
	return w.locked(ctx, func() error {
		w.Catalog.Upsert(p)
		return nil
	})
}

// ActivateProject sets the current project and persists it.
func (w *Workspace) ActivateProject(ctx context.Context, id string) (model.ProjectRef, error) {
	var ref model.ProjectRef
	err := w.locked(ctx, func() error {
		ref = w.Catalog.Activate(id, "")
		return nil
	})
	w.log.Debug().Str("project", id).Msg("activate project")
	return ref, err
}

// SetProjects replaces the whole catalog list and persists it.
func (w *Workspace) SetProjects(ctx context.Context, ps []model.Project) error {
	return w.locked(ctx, func() error {
		w.Catalog.SetProjects(ps)
		return nil
	})
}

// RemoveProject drops a catalog entry and persists the catalog. Tree state
// for the project is kept; use ClearProjectData to reset it.
func (w *Workspace) RemoveProject(ctx context.Context, id string) (bool, error) {
	var removed bool
	err := w.locked(ctx, func() error {
		removed = w.Catalog.Remove(id)
		return nil
	})
	return removed, err
}

// DeactivateProject clears the current project and persists it.
func (w *Workspace) DeactivateProject(ctx context.Context) error {
	return w.locked(ctx, func() error {
		w.Catalog.Deactivate()
		return nil
	})
}

// OpenTab copies the node with key out of the project tree into a tab and
// points the active document for view at it. Returns Applied=false when the
// project or node does not exist.
func (w *Workspace) OpenTab(ctx context.Context, projectID, key, view string) (projtree.Outcome, error) {
	if err := w.Refresh(ctx); err != nil {
		return projtree.Outcome{}, err
	}
	ps, ok := w.Trees.Project(projectID)
	if !ok {
		return projtree.Outcome{}, nil
	}
	n, ok := projtree.FindNode(ps.Tree, key)
	if !ok {
		return projtree.Outcome{}, nil
	}
	out, err := w.Dispatch(ctx, projtree.AddTabbedNode(projectID, n))
	if err != nil || view == "" {
		return out, err
	}
	section, task := DocumentFor(ps.Tree, key)
	return w.Dispatch(ctx, projtree.SetActiveDocument(projectID, section, task, view))
}

// Rebuild discards the tree state and replays the entire action log.
func (w *Workspace) Rebuild(ctx context.Context) (int, error) {
	var n int
	err := w.locked(ctx, func() error {
		recs, err := w.Store.ReadActions()
		if err != nil {
			return err
		}
		w.Trees.Replace(store.Replay(projtree.State{}, recs))
		w.logCount = len(recs)
		n = len(recs)
		return nil
	})
	return n, err
}

// DocumentFor derives the (section, task) pointer for a node: a node with
// "type" section, or any root node, is a section; otherwise the node is a task
// under its nearest section ancestor.
func DocumentFor(tree []model.Node, key string) (section, task string) {
	path := projtree.Path(tree, key)
	if len(path) == 0 {
		return "", ""
	}
	isSection := func(k string, depth int) bool {
		n, _ := projtree.FindNode(tree, k)
		if t, ok := n.Fields["type"].(string); ok {
			return t == "section"
		}
		return depth == 0
	}
	last := len(path) - 1
	if isSection(path[last], last) {
		return path[last], ""
	}
	for i := last - 1; i >= 0; i-- {
		if isSection(path[i], i) {
			return path[i], path[last]
		}
	}
	return "", path[last]
}
