package storage

import (
	"database/sql"

	"github.com/zheng/rkhl/internal/dataset"
)

const recordColumns = `tbl, id, kind, name, id_card, gender, code, address, status, date, detail, image_url`

func insertRecord(ex execer, r dataset.Record) error {
	_, err := ex.Exec(
		`INSERT INTO records (`+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Table, r.ID, nullString(r.Kind), r.Name, nullString(r.IDCard), nullString(r.Gender),
		nullString(r.Code), nullString(r.Address), nullString(r.Status), nullString(r.Date),
		nullString(r.Detail), nullString(r.ImageURL),
	)
	return err
}

// GetRecords returns the rows of one result table
func (db *DB) GetRecords(table string) ([]dataset.Record, error) {
	rows, err := db.conn.Query(`SELECT `+recordColumns+` FROM records WHERE tbl = ? ORDER BY id`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []dataset.Record
	for rows.Next() {
		var r dataset.Record
		var kind, idCard, gender, code, address, status, date, detail, imageURL sql.NullString
		if err := rows.Scan(&r.Table, &r.ID, &kind, &r.Name, &idCard, &gender, &code,
			&address, &status, &date, &detail, &imageURL); err != nil {
			return nil, err
		}
		r.Kind = kind.String
		r.IDCard = idCard.String
		r.Gender = gender.String
		r.Code = code.String
		r.Address = address.String
		r.Status = status.String
		r.Date = date.String
		r.Detail = detail.String
		r.ImageURL = imageURL.String
		records = append(records, r)
	}
	return records, rows.Err()
}

func insertTree(ex execer, nodes []dataset.TreeNode, parent string, position *int) error {
	for _, n := range nodes {
		*position++
		if _, err := ex.Exec(
			`INSERT INTO tree_nodes (id, parent_id, label, expanded, position) VALUES (?, ?, ?, ?, ?)`,
			n.ID, nullString(parent), n.Label, n.Expanded, *position,
		); err != nil {
			return err
		}
		if err := insertTree(ex, n.Children, n.ID, position); err != nil {
			return err
		}
	}
	return nil
}

// GetTree returns the administrative division tree
func (db *DB) GetTree() ([]dataset.TreeNode, error) {
	rows, err := db.conn.Query(`SELECT id, parent_id, label, expanded FROM tree_nodes ORDER BY position`)
	if err != nil {
		return nil, err
	}

	type flat struct {
		node   dataset.TreeNode
		parent string
	}
	var all []flat
	for rows.Next() {
		var f flat
		var parent sql.NullString
		if err := rows.Scan(&f.node.ID, &parent, &f.node.Label, &f.node.Expanded); err != nil {
			rows.Close()
			return nil, err
		}
		f.parent = parent.String
		all = append(all, f)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var build func(parent string) []dataset.TreeNode
	build = func(parent string) []dataset.TreeNode {
		var out []dataset.TreeNode
		for _, f := range all {
			if f.parent != parent {
				continue
			}
			n := f.node
			n.Children = build(n.ID)
			out = append(out, n)
		}
		return out
	}
	return build(""), nil
}
