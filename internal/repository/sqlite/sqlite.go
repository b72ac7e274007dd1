// Package sqlite is the snapshot repository: a cache of the last
// built universe keyed by the dataset fingerprint. With the default
// ":memory:" path it lives and dies with the process; pointed at a
// file it lets an unchanged dataset directory skip the layout pass on
// the next start. Determinism makes that safe: a cache hit reproduces
// exactly what a rebuild would.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"cartography/internal/domain"
)

// Snapshot is one fully built universe with its provenance
type Snapshot struct {
	Fingerprint string
	BuiltAt     time.Time
	Datasets    []*domain.DomainDataset
	Universe    *domain.Universe
}

// Repository stores universe snapshots in SQLite
type Repository struct {
	db *sql.DB
}

// New opens (or creates) the repository at the given path. ":memory:"
// keeps it in process memory.
func New(path string) (*Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A single connection keeps :memory: databases coherent and SQLite
	// has a single writer anyway
	db.SetMaxOpenConns(1)

	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("set WAL mode: %w", err)
		}
	}

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return repo, nil
}

// Close closes the underlying database
func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS datasets (
		site TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		data JSON NOT NULL
	);

	CREATE TABLE IF NOT EXISTS nodes (
		id TEXT PRIMARY KEY,
		site TEXT NOT NULL,
		kind TEXT NOT NULL,
		label TEXT NOT NULL,
		x REAL NOT NULL,
		y REAL NOT NULL,
		z REAL NOT NULL,
		scale REAL NOT NULL,
		data JSON NOT NULL
	);

	CREATE TABLE IF NOT EXISTS edges (
		id TEXT PRIMARY KEY,
		from_id TEXT NOT NULL,
		to_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		weight INTEGER NOT NULL,
		width REAL NOT NULL,
		FOREIGN KEY (from_id) REFERENCES nodes(id) ON DELETE CASCADE,
		FOREIGN KEY (to_id) REFERENCES nodes(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_nodes_site ON nodes(site);
	CREATE INDEX IF NOT EXISTS idx_edges_from ON edges(from_id);
	CREATE INDEX IF NOT EXISTS idx_edges_to ON edges(to_id);
	`

	_, err := r.db.Exec(schema)
	return err
}

// Fingerprint returns the stored dataset fingerprint, if a snapshot
// exists
func (r *Repository) Fingerprint(ctx context.Context) (string, bool, error) {
	var fp string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM meta WHERE key = 'fingerprint'`).Scan(&fp)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query fingerprint: %w", err)
	}
	return fp, true, nil
}

// SaveSnapshot replaces the stored snapshot with the given one
func (r *Repository) SaveSnapshot(ctx context.Context, snap *Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"edges", "nodes", "datasets", "meta"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, ds := range snap.Datasets {
		data, err := json.Marshal(ds)
		if err != nil {
			return fmt.Errorf("marshal dataset %s: %w", ds.Site, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO datasets (site, kind, data) VALUES (?, ?, ?)`,
			ds.Site, string(ds.Kind), data); err != nil {
			return fmt.Errorf("insert dataset %s: %w", ds.Site, err)
		}
	}

	for i := range snap.Universe.Nodes {
		node := &snap.Universe.Nodes[i]
		data, err := json.Marshal(node)
		if err != nil {
			return fmt.Errorf("marshal node %s: %w", node.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO nodes (id, site, kind, label, x, y, z, scale, data)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			node.ID, node.Site, string(node.Kind), node.Label,
			node.Position.X, node.Position.Y, node.Position.Z, node.Scale, data); err != nil {
			return fmt.Errorf("insert node %s: %w", node.ID, err)
		}
	}

	for i := range snap.Universe.Edges {
		edge := &snap.Universe.Edges[i]
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO edges (id, from_id, to_id, kind, weight, width)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			edge.ID, edge.FromID, edge.ToID, string(edge.Kind), edge.Weight, edge.Width); err != nil {
			return fmt.Errorf("insert edge %s: %w", edge.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES ('fingerprint', ?), ('built_at', ?)`,
		snap.Fingerprint, snap.BuiltAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("insert meta: %w", err)
	}

	return tx.Commit()
}

// LoadSnapshot loads the stored snapshot. Returns (nil, nil) when the
// repository is empty.
func (r *Repository) LoadSnapshot(ctx context.Context) (*Snapshot, error) {
	fp, ok, err := r.Fingerprint(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	snap := &Snapshot{Fingerprint: fp}

	var builtAt string
	if err := r.db.QueryRowContext(ctx,
		`SELECT value FROM meta WHERE key = 'built_at'`).Scan(&builtAt); err == nil {
		if t, perr := time.Parse(time.RFC3339Nano, builtAt); perr == nil {
			snap.BuiltAt = t
		}
	}

	rows, err := r.db.QueryContext(ctx, `SELECT data FROM datasets ORDER BY site`)
	if err != nil {
		return nil, fmt.Errorf("query datasets: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan dataset: %w", err)
		}
		ds := &domain.DomainDataset{}
		if err := json.Unmarshal(data, ds); err != nil {
			return nil, fmt.Errorf("unmarshal dataset: %w", err)
		}
		snap.Datasets = append(snap.Datasets, ds)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate datasets: %w", err)
	}

	u := domain.NewUniverse()

	nodeRows, err := r.db.QueryContext(ctx, `SELECT data FROM nodes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	defer nodeRows.Close()
	for nodeRows.Next() {
		var data []byte
		if err := nodeRows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		var node domain.UniverseNode
		if err := json.Unmarshal(data, &node); err != nil {
			return nil, fmt.Errorf("unmarshal node: %w", err)
		}
		if err := u.AddNode(node); err != nil {
			return nil, fmt.Errorf("restore node: %w", err)
		}
	}
	if err := nodeRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes: %w", err)
	}

	edgeRows, err := r.db.QueryContext(ctx,
		`SELECT id, from_id, to_id, kind, weight, width FROM edges ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}
	defer edgeRows.Close()
	for edgeRows.Next() {
		var edge domain.UniverseEdge
		var kind string
		if err := edgeRows.Scan(&edge.ID, &edge.FromID, &edge.ToID, &kind,
			&edge.Weight, &edge.Width); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		edge.Kind = domain.EdgeKind(kind)
		u.AddEdge(edge)
	}
	if err := edgeRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate edges: %w", err)
	}

	u.SortCanonical()
	snap.Universe = u

	return snap, nil
}
