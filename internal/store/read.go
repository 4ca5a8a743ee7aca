package store

import (
	"database/sql"
	"fmt"
)

// Process is one processes row.
type Process struct {
	ID        int64
	Parent    *int64 // nil for the root
	Timestamp int64
	ExitCode  *int // nil until the process terminated
}

// ExecutedFile is one executed_files row.
type ExecutedFile struct {
	ID        int64
	Name      string
	Timestamp int64
	Process   int64
	Argv      []string
}

// OpenedFile is one opened_files row.
type OpenedFile struct {
	ID        int64
	Name      string
	Timestamp int64
	Mode      int
	Process   int64
}

// Reader provides read-only access to a finalized trace. Downstream
// consumers (configuration builder, packer) must only read after the
// writing session has finalized.
type Reader struct {
	db *sql.DB
}

// OpenReader opens an existing trace database for reading.
func OpenReader(path string) (*Reader, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := validateSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Reader{db: db}, nil
}

// Close closes the underlying database.
func (r *Reader) Close() error {
	return r.db.Close()
}

// Processes returns all process rows in id order.
func (r *Reader) Processes() ([]Process, error) {
	rows, err := r.db.Query(`SELECT id, parent, timestamp, exitcode FROM processes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying processes: %w", err)
	}
	defer rows.Close()

	var out []Process
	for rows.Next() {
		var p Process
		var parent sql.NullInt64
		var exit sql.NullInt64
		if err := rows.Scan(&p.ID, &parent, &p.Timestamp, &exit); err != nil {
			return nil, fmt.Errorf("scanning process: %w", err)
		}
		if parent.Valid {
			v := parent.Int64
			p.Parent = &v
		}
		if exit.Valid {
			v := int(exit.Int64)
			p.ExitCode = &v
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ExecutedFiles returns all executed_files rows in id order.
func (r *Reader) ExecutedFiles() ([]ExecutedFile, error) {
	rows, err := r.db.Query(`SELECT id, name, timestamp, process, argv FROM executed_files ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying executed_files: %w", err)
	}
	defer rows.Close()

	var out []ExecutedFile
	for rows.Next() {
		var e ExecutedFile
		var argv string
		if err := rows.Scan(&e.ID, &e.Name, &e.Timestamp, &e.Process, &argv); err != nil {
			return nil, fmt.Errorf("scanning executed file: %w", err)
		}
		e.Argv = SplitArgv(argv)
		out = append(out, e)
	}
	return out, rows.Err()
}

// OpenedFiles returns all opened_files rows in id order.
func (r *Reader) OpenedFiles() ([]OpenedFile, error) {
	rows, err := r.db.Query(`SELECT id, name, timestamp, mode, process FROM opened_files ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying opened_files: %w", err)
	}
	defer rows.Close()

	var out []OpenedFile
	for rows.Next() {
		var o OpenedFile
		if err := rows.Scan(&o.ID, &o.Name, &o.Timestamp, &o.Mode, &o.Process); err != nil {
			return nil, fmt.Errorf("scanning opened file: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
