package storage

import (
	"github.com/zheng/rkhl/internal/dataset"
)

func insertSource(ex execer, s dataset.Source, position int) error {
	if _, err := ex.Exec(
		`INSERT INTO sources (id, name, type, status, last_update, count, position) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Name, s.Type, string(s.Status), s.LastUpdate, s.Count, position,
	); err != nil {
		return err
	}

	for i, f := range dataset.StructureFor(s.ID) {
		if _, err := ex.Exec(
			`INSERT INTO source_fields (source_id, position, name, type, description) VALUES (?, ?, ?, ?, ?)`,
			s.ID, i, f.Name, f.Type, f.Description,
		); err != nil {
			return err
		}
	}

	for _, e := range dataset.LogsFor(s.ID) {
		if _, err := ex.Exec(
			`INSERT INTO source_logs (source_id, id, time, level, message) VALUES (?, ?, ?, ?, ?)`,
			s.ID, e.ID, e.Time, string(e.Level), e.Message,
		); err != nil {
			return err
		}
	}
	return nil
}

// GetSources returns the aggregation monitor rows in dataset order
func (db *DB) GetSources() ([]dataset.Source, error) {
	rows, err := db.conn.Query(`SELECT id, name, type, status, last_update, count FROM sources ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []dataset.Source
	for rows.Next() {
		var s dataset.Source
		if err := rows.Scan(&s.ID, &s.Name, &s.Type, &s.Status, &s.LastUpdate, &s.Count); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// GetSourceByID returns one source; sql.ErrNoRows when it does not exist
func (db *DB) GetSourceByID(id int64) (*dataset.Source, error) {
	var s dataset.Source
	err := db.conn.QueryRow(
		`SELECT id, name, type, status, last_update, count FROM sources WHERE id = ?`, id,
	).Scan(&s.ID, &s.Name, &s.Type, &s.Status, &s.LastUpdate, &s.Count)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetSourceFields returns the column layout of a source
func (db *DB) GetSourceFields(id int64) ([]dataset.DataField, error) {
	rows, err := db.conn.Query(
		`SELECT name, type, description FROM source_fields WHERE source_id = ? ORDER BY position`, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fields []dataset.DataField
	for rows.Next() {
		var f dataset.DataField
		if err := rows.Scan(&f.Name, &f.Type, &f.Description); err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, rows.Err()
}

// GetSourceLogs returns the sync log of a source, newest first
func (db *DB) GetSourceLogs(id int64) ([]dataset.LogEntry, error) {
	rows, err := db.conn.Query(
		`SELECT id, time, level, message FROM source_logs WHERE source_id = ? ORDER BY id`, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []dataset.LogEntry
	for rows.Next() {
		var e dataset.LogEntry
		if err := rows.Scan(&e.ID, &e.Time, &e.Level, &e.Message); err != nil {
			return nil, err
		}
		logs = append(logs, e)
	}
	return logs, rows.Err()
}

// CountSourcesByStatus returns how many sources are in each sync state
func (db *DB) CountSourcesByStatus() (map[dataset.SourceStatus]int, error) {
	rows, err := db.conn.Query(`SELECT status, COUNT(*) FROM sources GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[dataset.SourceStatus]int)
	for rows.Next() {
		var status dataset.SourceStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
