// Package sqlite implements store.Store on SQLite via modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "modernc.org/sqlite"

	"github.com/cognicore/hyperkb/pkg/hyperkb/edge"
	"github.com/cognicore/hyperkb/pkg/hyperkb/internalerr"
	"github.com/cognicore/hyperkb/pkg/hyperkb/store"
)

const defaultAttrCacheSize = 4096

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db        *sql.DB
	attrCache *lru.Cache[string, store.Attributes]
}

// Open opens a SQLite-backed store with WAL mode enabled, creating the
// schema if needed.
func Open(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStore, err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStore, err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStore, err)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStore, err)
	}

	cache, err := lru.New[string, store.Attributes](defaultAttrCacheSize)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db, attrCache: cache}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS edges (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	text TEXT UNIQUE NOT NULL
);

CREATE TABLE IF NOT EXISTS edge_atoms (
	edge_id INTEGER NOT NULL REFERENCES edges(id) ON DELETE CASCADE,
	atom TEXT NOT NULL,
	PRIMARY KEY (edge_id, atom)
);
CREATE INDEX IF NOT EXISTS idx_edge_atoms_atom ON edge_atoms(atom);

CREATE TABLE IF NOT EXISTS edge_attrs (
	edge_id INTEGER NOT NULL REFERENCES edges(id) ON DELETE CASCADE,
	key TEXT NOT NULL,
	value TEXT NOT NULL,
	PRIMARY KEY (edge_id, key)
);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

func (s *sqliteStore) Add(ctx context.Context, e edge.Edge, attrs store.Attributes) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", internalerr.ErrStore, err)
	}
	defer tx.Rollback()

	text := e.String()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO edges(text) VALUES(?) ON CONFLICT(text) DO NOTHING`, text); err != nil {
		return fmt.Errorf("%w: %v", internalerr.ErrStore, err)
	}

	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM edges WHERE text = ?`, text).Scan(&id); err != nil {
		return fmt.Errorf("%w: %v", internalerr.ErrStore, err)
	}

	for _, atom := range e.Atoms() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO edge_atoms(edge_id, atom) VALUES(?, ?) ON CONFLICT DO NOTHING`, id, atom); err != nil {
			return fmt.Errorf("%w: %v", internalerr.ErrStore, err)
		}
	}

	for key, value := range attrs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO edge_attrs(edge_id, key, value) VALUES(?, ?, ?)
			 ON CONFLICT(edge_id, key) DO UPDATE SET value = excluded.value`, id, key, value); err != nil {
			return fmt.Errorf("%w: %v", internalerr.ErrStore, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", internalerr.ErrStore, err)
	}
	s.attrCache.Remove(text)
	return nil
}

func (s *sqliteStore) Remove(ctx context.Context, e edge.Edge, deep bool) error {
	targets := []edge.Edge{e}
	if deep {
		for _, arg := range e.Args() {
			if !arg.IsAtom() {
				targets = append(targets, arg)
			}
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", internalerr.ErrStore, err)
	}
	defer tx.Rollback()

	for _, target := range targets {
		if _, err := tx.ExecContext(ctx, `DELETE FROM edges WHERE text = ?`, target.String()); err != nil {
			return fmt.Errorf("%w: %v", internalerr.ErrStore, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", internalerr.ErrStore, err)
	}
	for _, target := range targets {
		s.attrCache.Remove(target.String())
	}
	return nil
}

func (s *sqliteStore) Exists(ctx context.Context, e edge.Edge) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM edges WHERE text = ?`, e.String()).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", internalerr.ErrStore, err)
	}
	return true, nil
}

// Search matches a pattern against stored edges. Bare atom patterns are
// served straight from the atom index; positional patterns are prefiltered
// by their concrete atoms, then matched in Go.
func (s *sqliteStore) Search(ctx context.Context, pattern edge.Edge, limit int) ([]edge.Edge, error) {
	if pattern.IsAtom() && pattern.Symbol() != edge.Wildcard {
		return s.searchByAtom(ctx, pattern.Symbol(), limit)
	}

	rows, err := s.candidateRows(ctx, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []edge.Edge
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("%w: %v", internalerr.ErrStore, err)
		}
		e, err := edge.Parse(text)
		if err != nil {
			return nil, fmt.Errorf("%w: corrupt edge %q", internalerr.ErrStore, text)
		}
		if !edge.Match(pattern, e) {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, rows.Err()
}

// candidateRows narrows a positional pattern to edges containing every
// concrete atom the pattern names, or falls back to a full scan.
func (s *sqliteStore) candidateRows(ctx context.Context, pattern edge.Edge) (*sql.Rows, error) {
	var concrete []string
	for _, atom := range pattern.Atoms() {
		if atom == edge.Wildcard || strings.HasSuffix(atom, "/"+edge.Wildcard) {
			continue
		}
		concrete = append(concrete, atom)
	}

	if len(concrete) == 0 {
		rows, err := s.db.QueryContext(ctx, `SELECT text FROM edges ORDER BY id`)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", internalerr.ErrStore, err)
		}
		return rows, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(concrete)), ",")
	args := make([]any, len(concrete)+1)
	for i, atom := range concrete {
		args[i] = atom
	}
	args[len(concrete)] = len(concrete)

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT e.text FROM edges e
		JOIN edge_atoms a ON a.edge_id = e.id
		WHERE a.atom IN (%s)
		GROUP BY e.id
		HAVING COUNT(DISTINCT a.atom) = ?
		ORDER BY e.id`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStore, err)
	}
	return rows, nil
}

func (s *sqliteStore) searchByAtom(ctx context.Context, atom string, limit int) ([]edge.Edge, error) {
	query := `
		SELECT e.text FROM edges e
		JOIN edge_atoms a ON a.edge_id = e.id
		WHERE a.atom = ?
		ORDER BY e.id`
	args := []any{atom}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStore, err)
	}
	defer rows.Close()

	return scanEdges(rows)
}

func (s *sqliteStore) All(ctx context.Context, limit int) ([]edge.Edge, error) {
	query := `SELECT text FROM edges ORDER BY id`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStore, err)
	}
	defer rows.Close()

	return scanEdges(rows)
}

func (s *sqliteStore) Attributes(ctx context.Context, e edge.Edge) (store.Attributes, bool, error) {
	text := e.String()
	if attrs, ok := s.attrCache.Get(text); ok {
		return attrs.Clone(), true, nil
	}

	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM edges WHERE text = ?`, text).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", internalerr.ErrStore, err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM edge_attrs WHERE edge_id = ?`, id)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", internalerr.ErrStore, err)
	}
	defer rows.Close()

	attrs := store.Attributes{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, false, fmt.Errorf("%w: %v", internalerr.ErrStore, err)
		}
		attrs[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("%w: %v", internalerr.ErrStore, err)
	}

	s.attrCache.Add(text, attrs.Clone())
	return attrs, true, nil
}

func (s *sqliteStore) SetAttribute(ctx context.Context, e edge.Edge, key, value string) error {
	text := e.String()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO edge_attrs(edge_id, key, value)
		SELECT id, ?, ? FROM edges WHERE text = ?
		ON CONFLICT(edge_id, key) DO UPDATE SET value = excluded.value`, key, value, text)
	if err != nil {
		return fmt.Errorf("%w: %v", internalerr.ErrStore, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: edge %q", internalerr.ErrNotFound, text)
	}
	s.attrCache.Remove(text)
	return nil
}

func scanEdges(rows *sql.Rows) ([]edge.Edge, error) {
	var out []edge.Edge
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("%w: %v", internalerr.ErrStore, err)
		}
		e, err := edge.Parse(text)
		if err != nil {
			return nil, fmt.Errorf("%w: corrupt edge %q", internalerr.ErrStore, text)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStore, err)
	}
	return out, nil
}
