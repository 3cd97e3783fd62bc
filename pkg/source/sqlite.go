package source

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // registers the pure-Go "sqlite" driver

	"github.com/vanderheijden86/arbor/pkg/tree"
)

const schema = `
CREATE TABLE IF NOT EXISTS nodes (
	id           TEXT PRIMARY KEY,
	parent_id    TEXT REFERENCES nodes(id) ON DELETE CASCADE,
	label        TEXT NOT NULL,
	has_children INTEGER NOT NULL DEFAULT 0,
	position     INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_nodes_parent ON nodes(parent_id, position);
`

// SQLite serves children from a nodes table, one level per fetch.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at dsn. ":memory:" works for
// tests.
func OpenSQLite(ctx context.Context, dsn string) (*SQLite, error) {
	if dsn == "" {
		return nil, fmt.Errorf("sqlite dsn cannot be empty")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: an in-memory database exists per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close releases the database.
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Migrate creates the nodes table if it is missing.
func (s *SQLite) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate nodes table: %w", err)
	}
	return nil
}

// Seed inserts nodes and their loaded subtrees in one transaction.
func (s *SQLite) Seed(ctx context.Context, nodes []tree.Node) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin seed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO nodes (id, parent_id, label, has_children, position) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare seed: %w", err)
	}
	defer stmt.Close()

	var insert func(parent sql.NullString, level []tree.Node) error
	insert = func(parent sql.NullString, level []tree.Node) error {
		for i, n := range level {
			hasChildren := 0
			if n.HasChildren || len(n.Children) > 0 {
				hasChildren = 1
			}
			if _, err := stmt.ExecContext(ctx, n.ID, parent, n.Label, hasChildren, i); err != nil {
				return fmt.Errorf("failed to insert node %q: %w", n.ID, err)
			}
			if err := insert(sql.NullString{String: n.ID, Valid: true}, n.Children); err != nil {
				return err
			}
		}
		return nil
	}
	if err := insert(sql.NullString{}, nodes); err != nil {
		return err
	}
	return tx.Commit()
}

// Roots returns the top-level nodes, unloaded.
func (s *SQLite) Roots(ctx context.Context) ([]tree.Node, error) {
	return s.query(ctx,
		`SELECT id, label, has_children FROM nodes WHERE parent_id IS NULL ORDER BY position, id`)
}

// FetchChildren implements lazy.ChildSource.
func (s *SQLite) FetchChildren(ctx context.Context, nodeID string) ([]tree.Node, error) {
	return s.query(ctx,
		`SELECT id, label, has_children FROM nodes WHERE parent_id = ? ORDER BY position, id`, nodeID)
}

func (s *SQLite) query(ctx context.Context, q string, args ...any) ([]tree.Node, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	var out []tree.Node
	for rows.Next() {
		var n tree.Node
		if err := rows.Scan(&n.ID, &n.Label, &n.HasChildren); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read nodes: %w", err)
	}
	return out, nil
}
