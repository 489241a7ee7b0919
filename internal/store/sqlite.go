package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"mimi-cli/internal/model"
	"mimi-cli/internal/projtree"

	_ "modernc.org/sqlite"
)

const snapshotVersion = 1

func (s Store) openSQLite(ctx context.Context) (*sql.DB, error) {
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", s.sqlitePath())
	if err != nil {
		return nil, err
	}
	// WAL lets the TUI keep reading while a CLI invocation writes.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func migrateSQLite(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS state_meta (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS project_states (
			id TEXT PRIMARY KEY,
			json TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalog_projects (
			id TEXT PRIMARY KEY,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_catalog_position ON catalog_projects(position);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

// SaveSnapshot replaces the persisted snapshot in one transaction.
func (s Store) SaveSnapshot(ctx context.Context, snap Snapshot) error {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	current := ""
	if snap.Catalog.Current != nil {
		raw, err := json.Marshal(snap.Catalog.Current)
		if err != nil {
			return err
		}
		current = string(raw)
	}
	meta := map[string]string{
		"version":         strconv.Itoa(snapshotVersion),
		"log_offset":      strconv.Itoa(snap.LogOffset),
		"current_project": current,
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO state_meta(k, v) VALUES(?, ?)`, k, v); err != nil {
			return err
		}
	}

	// Replace-all: the whole state is small and always written together.
	for _, t := range []string{"project_states", "catalog_projects"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+t); err != nil {
			return err
		}
	}

	nowMs := time.Now().UTC().UnixMilli()
	for _, id := range snap.Trees.ProjectIDs() {
		raw, err := json.Marshal(snap.Trees[id])
		if err != nil {
			return fmt.Errorf("encode project %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO project_states(id, json, updated_at_unixms) VALUES(?, ?, ?)`, id, string(raw), nowMs); err != nil {
			return err
		}
	}
	for i, p := range snap.Catalog.Projects {
		raw, err := json.Marshal(p)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO catalog_projects(id, position, name, json, updated_at_unixms) VALUES(?, ?, ?, ?, ?)`,
			p.ID, i, p.Name, string(raw), nowMs); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadSnapshot reads the persisted snapshot, or ErrNoSnapshot if none was saved.
func (s Store) LoadSnapshot(ctx context.Context) (Snapshot, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	defer db.Close()

	readMeta := func(k string) (string, error) {
		var v string
		err := db.QueryRowContext(ctx, `SELECT v FROM state_meta WHERE k = ?`, k).Scan(&v)
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return v, err
	}

	version, err := readMeta("version")
	if err != nil {
		return Snapshot{}, err
	}
	if version == "" {
		return Snapshot{}, ErrNoSnapshot
	}

	snap := Snapshot{Trees: projtree.State{}}
	if snap.Version, err = strconv.Atoi(version); err != nil {
		return Snapshot{}, fmt.Errorf("snapshot version %q: %w", version, err)
	}
	if off, err := readMeta("log_offset"); err != nil {
		return Snapshot{}, err
	} else if strings.TrimSpace(off) != "" {
		if snap.LogOffset, err = strconv.Atoi(off); err != nil {
			return Snapshot{}, fmt.Errorf("snapshot log offset %q: %w", off, err)
		}
	}
	if cur, err := readMeta("current_project"); err != nil {
		return Snapshot{}, err
	} else if strings.TrimSpace(cur) != "" {
		var ref model.ProjectRef
		if err := json.Unmarshal([]byte(cur), &ref); err != nil {
			return Snapshot{}, fmt.Errorf("current project: %w", err)
		}
		snap.Catalog.Current = &ref
	}

	rows, err := db.QueryContext(ctx, `SELECT id, json FROM project_states ORDER BY id`)
	if err != nil {
		return Snapshot{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var id, js string
		if err := rows.Scan(&id, &js); err != nil {
			return Snapshot{}, err
		}
		var ps model.ProjectState
		if err := json.Unmarshal([]byte(js), &ps); err != nil {
			return Snapshot{}, fmt.Errorf("decode project %s: %w", id, err)
		}
		snap.Trees[id] = normalizeProjectState(ps)
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, err
	}

	projects, err := readJSONRows[model.Project](ctx, db, `SELECT json FROM catalog_projects ORDER BY position`)
	if err != nil {
		return Snapshot{}, err
	}
	if projects == nil {
		projects = []model.Project{}
	}
	snap.Catalog.Projects = projects
	return snap, nil
}

func readJSONRows[T any](ctx context.Context, db *sql.DB, query string) ([]T, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var js string
		if err := rows.Scan(&js); err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal([]byte(js), &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// normalizeProjectState restores the non-nil containers a decoded "null" would drop.
func normalizeProjectState(ps model.ProjectState) model.ProjectState {
	if ps.Tree == nil {
		ps.Tree = []model.Node{}
	}
	if ps.TabbedNodes == nil {
		ps.TabbedNodes = map[string]model.Node{}
	}
	if ps.ActiveDocument == nil {
		ps.ActiveDocument = map[string]model.DocumentPointer{}
	}
	return ps
}
