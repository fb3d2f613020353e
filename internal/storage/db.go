package storage

import (
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/zheng/rkhl/internal/dataset"
	"github.com/zheng/rkhl/internal/graph"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
}

// Open opens or creates a SQLite database at the given path
func Open(path string) (*DB, error) {
	if path == "" {
		path = MemoryPath
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Every connection to :memory: is a separate database, and sqlite only
	// has one writer anyway.
	conn.SetMaxOpenConns(1)

	// Enable foreign keys
	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		conn.Close()
		return nil, err
	}

	// Initialize schema
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, err
	}

	return &DB{conn: conn}, nil
}

// OpenSeeded opens the database and replaces its contents with the dataset
func OpenSeeded(path string, d *dataset.Dataset) (*DB, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := db.Seed(d); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Clear removes all data from the database
func (db *DB) Clear() error {
	return clear(db.conn)
}

// Conn returns the underlying database connection for advanced queries
func (db *DB) Conn() *sql.DB {
	return db.conn
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func clear(ex execer) error {
	_, err := ex.Exec(`DELETE FROM links; DELETE FROM persons; DELETE FROM candidates;
		DELETE FROM source_logs; DELETE FROM source_fields; DELETE FROM sources;
		DELETE FROM records; DELETE FROM tree_nodes;`)
	return err
}

// Seed replaces every table with the dataset in one transaction
func (db *DB) Seed(d *dataset.Dataset) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := clear(tx); err != nil {
		return fmt.Errorf("failed to clear tables: %w", err)
	}

	position := 0
	builder := graph.NewBuilder(
		func(n *graph.PersonNode) error {
			position++
			return insertPerson(tx, n, position)
		},
		func(l *graph.Link) error { return insertLink(tx, l) },
	)
	if err := builder.Build(d.Graph()); err != nil {
		return err
	}

	for _, c := range d.Candidates {
		if err := insertCandidate(tx, c); err != nil {
			return fmt.Errorf("failed to insert candidate %d: %w", c.ID, err)
		}
	}

	for i, s := range d.Sources {
		if err := insertSource(tx, s, i); err != nil {
			return fmt.Errorf("failed to insert source %d: %w", s.ID, err)
		}
	}

	for _, r := range d.Records {
		if err := insertRecord(tx, r); err != nil {
			return fmt.Errorf("failed to insert record %s/%d: %w", r.Table, r.ID, err)
		}
	}

	if err := insertTree(tx, d.Tree, "", new(int)); err != nil {
		return fmt.Errorf("failed to insert tree: %w", err)
	}

	return tx.Commit()
}

// GetStats returns the number of persons and links
func (db *DB) GetStats() (personCount, linkCount int64, err error) {
	if err = db.conn.QueryRow("SELECT COUNT(*) FROM persons").Scan(&personCount); err != nil {
		return
	}
	err = db.conn.QueryRow("SELECT COUNT(*) FROM links").Scan(&linkCount)
	return
}
