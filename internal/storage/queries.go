package storage

import (
	"database/sql"
	"strings"

	"github.com/zheng/rkhl/internal/graph"
)

// maxKinDepth bounds recursive walks so a cyclic dataset still terminates.
const maxKinDepth = 50

const personColumns = `id, name, id_card, relation_char, relation_title, address, status, details, x, y, is_root, gender`

func insertPerson(ex execer, n *graph.PersonNode, position int) error {
	_, err := ex.Exec(
		`INSERT INTO persons (`+personColumns+`, position)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.Name, n.IDCard, n.RelationChar, n.RelationTitle,
		nullString(n.Address), nullString(n.Status), nullString(n.Details),
		n.X, n.Y, n.IsRoot, nullString(string(n.Gender)), position,
	)
	return err
}

func insertLink(ex execer, l *graph.Link) error {
	_, err := ex.Exec(`INSERT OR IGNORE INTO links (from_id, to_id) VALUES (?, ?)`, l.From, l.To)
	return err
}

func insertCandidate(ex execer, c graph.SearchResult) error {
	_, err := ex.Exec(
		`INSERT INTO candidates (id, name, id_card, address, status) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.IDCard, c.Address, c.Status,
	)
	return err
}

// GetAllPersons returns the constellation nodes in dataset order
func (db *DB) GetAllPersons() ([]*graph.PersonNode, error) {
	rows, err := db.conn.Query(`SELECT ` + personColumns + ` FROM persons ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPersons(rows)
}

// GetPersonByID returns a node by its id
func (db *DB) GetPersonByID(id string) (*graph.PersonNode, error) {
	row := db.conn.QueryRow(`SELECT `+personColumns+` FROM persons WHERE id = ?`, id)
	return scanPerson(row)
}

// GetRootPerson returns the query subject
func (db *DB) GetRootPerson() (*graph.PersonNode, error) {
	row := db.conn.QueryRow(`SELECT ` + personColumns + ` FROM persons WHERE is_root = 1`)
	return scanPerson(row)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// FindPersonsByName finds persons whose name contains the pattern literally
func (db *DB) FindPersonsByName(pattern string) ([]*graph.PersonNode, error) {
	rows, err := db.conn.Query(
		`SELECT `+personColumns+` FROM persons WHERE name LIKE ? ESCAPE '\' ORDER BY position`,
		"%"+likeEscaper.Replace(pattern)+"%",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPersons(rows)
}

// GetAllLinks returns every stored link in insertion order
func (db *DB) GetAllLinks() ([]graph.Link, error) {
	rows, err := db.conn.Query(`SELECT from_id, to_id FROM links ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []graph.Link
	for rows.Next() {
		var l graph.Link
		if err := rows.Scan(&l.From, &l.To); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// GetGraph assembles the full constellation
func (db *DB) GetGraph() (*graph.Graph, error) {
	persons, err := db.GetAllPersons()
	if err != nil {
		return nil, err
	}
	links, err := db.GetAllLinks()
	if err != nil {
		return nil, err
	}

	g := &graph.Graph{Nodes: make([]graph.PersonNode, len(persons)), Links: links}
	for i, p := range persons {
		g.Nodes[i] = *p
	}
	return g, nil
}

// GetCandidates returns the person search candidates
func (db *DB) GetCandidates() ([]graph.SearchResult, error) {
	rows, err := db.conn.Query(`SELECT id, name, id_card, address, status FROM candidates ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []graph.SearchResult
	for rows.Next() {
		var r graph.SearchResult
		if err := rows.Scan(&r.ID, &r.Name, &r.IDCard, &r.Address, &r.Status); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// GetDirectParents returns the persons linking into the given person
func (db *DB) GetDirectParents(id string) ([]*graph.PersonNode, error) {
	rows, err := db.conn.Query(
		`SELECT p.id, p.name, p.id_card, p.relation_char, p.relation_title, p.address, p.status, p.details, p.x, p.y, p.is_root, p.gender
		 FROM persons p
		 JOIN links l ON l.from_id = p.id
		 WHERE l.to_id = ?
		 ORDER BY p.position`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPersons(rows)
}

// GetDirectChildren returns the persons the given person links to
func (db *DB) GetDirectChildren(id string) ([]*graph.PersonNode, error) {
	rows, err := db.conn.Query(
		`SELECT p.id, p.name, p.id_card, p.relation_char, p.relation_title, p.address, p.status, p.details, p.x, p.y, p.is_root, p.gender
		 FROM persons p
		 JOIN links l ON l.to_id = p.id
		 WHERE l.from_id = ?
		 ORDER BY p.position`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPersons(rows)
}

// GetAncestors returns every person reachable against link direction.
// If maxDepth is 0 the walk is only bounded by maxKinDepth.
func (db *DB) GetAncestors(id string, maxDepth int) ([]*graph.PersonNode, error) {
	return db.walk(`
		WITH RECURSIVE kin(id, depth) AS (
			SELECT from_id, 1 FROM links WHERE to_id = ?
			UNION
			SELECT l.from_id, k.depth + 1
			FROM links l
			JOIN kin k ON l.to_id = k.id
			WHERE k.depth < ?
		)`, id, maxDepth)
}

// GetDescendants returns every person reachable along link direction.
// If maxDepth is 0 the walk is only bounded by maxKinDepth.
func (db *DB) GetDescendants(id string, maxDepth int) ([]*graph.PersonNode, error) {
	return db.walk(`
		WITH RECURSIVE kin(id, depth) AS (
			SELECT to_id, 1 FROM links WHERE from_id = ?
			UNION
			SELECT l.to_id, k.depth + 1
			FROM links l
			JOIN kin k ON l.from_id = k.id
			WHERE k.depth < ?
		)`, id, maxDepth)
}

func (db *DB) walk(cte, id string, maxDepth int) ([]*graph.PersonNode, error) {
	if maxDepth <= 0 || maxDepth > maxKinDepth {
		maxDepth = maxKinDepth
	}

	rows, err := db.conn.Query(cte+`
		SELECT p.id, p.name, p.id_card, p.relation_char, p.relation_title, p.address, p.status, p.details, p.x, p.y, p.is_root, p.gender
		FROM persons p
		WHERE p.id IN (SELECT id FROM kin) AND p.id != ?
		ORDER BY p.position`,
		id, maxDepth, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPersons(rows)
}

// KinTreeNode represents a person in a relatives tree with its children
type KinTreeNode struct {
	Person   *graph.PersonNode
	Children []*KinTreeNode
}

// GetAncestorTree builds a tree of parents, their parents and so on
func (db *DB) GetAncestorTree(id string, maxDepth int) ([]*KinTreeNode, error) {
	return db.kinTree(id, maxDepth, db.GetDirectParents)
}

// GetDescendantTree builds a tree of children, their children and so on
func (db *DB) GetDescendantTree(id string, maxDepth int) ([]*KinTreeNode, error) {
	return db.kinTree(id, maxDepth, db.GetDirectChildren)
}

func (db *DB) kinTree(id string, maxDepth int, next func(string) ([]*graph.PersonNode, error)) ([]*KinTreeNode, error) {
	if maxDepth <= 0 || maxDepth > maxKinDepth {
		maxDepth = maxKinDepth
	}

	persons, err := next(id)
	if err != nil {
		return nil, err
	}

	result := make([]*KinTreeNode, len(persons))
	for i, p := range persons {
		result[i] = &KinTreeNode{Person: p}
		if maxDepth == 1 {
			continue
		}
		children, err := db.kinTree(p.ID, maxDepth-1, next)
		if err != nil {
			return nil, err
		}
		result[i].Children = children
	}
	return result, nil
}

// Helper functions

type scanner interface {
	Scan(dest ...any) error
}

func scanInto(s scanner) (*graph.PersonNode, error) {
	var n graph.PersonNode
	var address, status, details, gender sql.NullString
	err := s.Scan(&n.ID, &n.Name, &n.IDCard, &n.RelationChar, &n.RelationTitle,
		&address, &status, &details, &n.X, &n.Y, &n.IsRoot, &gender)
	if err != nil {
		return nil, err
	}
	n.Address = address.String
	n.Status = status.String
	n.Details = details.String
	n.Gender = graph.Gender(gender.String)
	return &n, nil
}

func scanPerson(row *sql.Row) (*graph.PersonNode, error) {
	return scanInto(row)
}

func scanPersons(rows *sql.Rows) ([]*graph.PersonNode, error) {
	var nodes []*graph.PersonNode
	for rows.Next() {
		n, err := scanInto(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
