// Package sqlitegraph backs the Graph AbstractType with an edge table in
// an embedded SQLite database, grounded on funvibe-funxy's go.mod
// dependency on modernc.org/sqlite, the pure-Go database/sql driver.
package sqlitegraph

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Graph is a directed or undirected graph whose edges live in a SQLite
// edges(src, dst, weight) table.
type Graph struct {
	db       *sql.DB
	Directed bool
}

// Open returns a fresh in-memory SQLite-backed Graph. A real deployment
// would point dataSourceName at a file path; the demo binary uses
// ":memory:" so every run starts clean.
func Open(directed bool, dataSourceName string) (*Graph, error) {
	if dataSourceName == "" {
		dataSourceName = ":memory:"
	}
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("sqlitegraph: opening %s: %w", dataSourceName, err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS edges (src INTEGER, dst INTEGER, weight REAL)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitegraph: creating edges table: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS nodes (id INTEGER PRIMARY KEY)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitegraph: creating nodes table: %w", err)
	}
	return &Graph{db: db, Directed: directed}, nil
}

// Close releases the underlying database connection.
func (g *Graph) Close() error { return g.db.Close() }

// AddNode inserts id if it isn't already present.
func (g *Graph) AddNode(id int) error {
	_, err := g.db.Exec(`INSERT OR IGNORE INTO nodes (id) VALUES (?)`, id)
	return err
}

// AddEdge inserts a weighted edge src->dst (and the reverse when
// undirected).
func (g *Graph) AddEdge(src, dst int, weight float64) error {
	if err := g.AddNode(src); err != nil {
		return err
	}
	if err := g.AddNode(dst); err != nil {
		return err
	}
	if _, err := g.db.Exec(`INSERT INTO edges (src, dst, weight) VALUES (?, ?, ?)`, src, dst, weight); err != nil {
		return err
	}
	if !g.Directed {
		_, err := g.db.Exec(`INSERT INTO edges (src, dst, weight) VALUES (?, ?, ?)`, dst, src, weight)
		return err
	}
	return nil
}

// addRawEdge inserts exactly one src->dst row, without mirroring the
// reverse direction — used when copying from a source that already
// stores both directions explicitly (e.g. an undirected
// nativegraph.Graph's adjacency map).
func (g *Graph) addRawEdge(src, dst int, weight float64) error {
	if err := g.AddNode(src); err != nil {
		return err
	}
	if err := g.AddNode(dst); err != nil {
		return err
	}
	_, err := g.db.Exec(`INSERT INTO edges (src, dst, weight) VALUES (?, ?, ?)`, src, dst, weight)
	return err
}

// Nodes returns every node id in ascending order.
func (g *Graph) Nodes() ([]int, error) {
	rows, err := g.db.Query(`SELECT id FROM nodes ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Neighbors returns id's outgoing edges, keyed by destination.
func (g *Graph) Neighbors(id int) (map[int]float64, error) {
	rows, err := g.db.Query(`SELECT dst, weight FROM edges WHERE src = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[int]float64)
	for rows.Next() {
		var dst int
		var w float64
		if err := rows.Scan(&dst, &w); err != nil {
			return nil, err
		}
		out[dst] = w
	}
	return out, rows.Err()
}
