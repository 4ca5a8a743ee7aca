// Package store is the sole writer of the provenance record: the processes,
// executed_files and opened_files tables of one trace session.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "modernc.org/sqlite" // SQLite driver registration
)

// ErrWrite wraps any failed durable write. A provenance record with silent
// gaps is worse than no record, so callers abort the whole session on it.
var ErrWrite = errors.New("provenance write failed")

// Mode selects how Open treats an existing trace database.
type Mode int

const (
	// Fresh discards any existing database and starts empty.
	Fresh Mode = iota
	// Append keeps existing rows and continues id sequences from their
	// prior maxima.
	Append
)

// flushEvery bounds how many events accumulate in one transaction before
// an intermediate commit. Ordering into the transaction is already
// serialized by the control thread; this only trades durability latency
// for throughput.
const flushEvery = 256

// Store owns the three provenance tables for the duration of a session.
type Store struct {
	db      *sql.DB
	tx      *sql.Tx
	pending int

	nextProcess int64
	nextExec    int64
	nextOpen    int64

	finalized bool
}

// Open creates or reopens the trace database at path.
func Open(path string, mode Mode) (*Store, error) {
	if mode == Fresh {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("removing previous trace: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if mode == Append {
		if err := validateSchema(db); err != nil {
			db.Close()
			return nil, err
		}
	}
	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db, nextProcess: 1, nextExec: 1, nextOpen: 1}
	if mode == Append {
		if err := s.loadSequences(); err != nil {
			db.Close()
			return nil, err
		}
	}

	if err := s.begin(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS processes (
			id        INTEGER NOT NULL PRIMARY KEY,
			parent    INTEGER,
			timestamp INTEGER NOT NULL,
			exitcode  INTEGER
		);
		CREATE TABLE IF NOT EXISTS executed_files (
			id        INTEGER NOT NULL PRIMARY KEY,
			name      TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			process   INTEGER NOT NULL,
			argv      TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS opened_files (
			id        INTEGER NOT NULL PRIMARY KEY,
			name      TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			mode      INTEGER NOT NULL,
			process   INTEGER NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}
	return nil
}

func validateSchema(db *sql.DB) error {
	for _, table := range []string{"processes", "executed_files", "opened_files"} {
		var name string
		err := db.QueryRow(
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
		).Scan(&name)
		if err == sql.ErrNoRows {
			return fmt.Errorf("cannot append: table %q missing from existing trace", table)
		}
		if err != nil {
			return fmt.Errorf("validating schema: %w", err)
		}
	}
	return nil
}

// loadSequences continues each table's id sequence from its prior maximum.
func (s *Store) loadSequences() error {
	for _, q := range []struct {
		table string
		next  *int64
	}{
		{"processes", &s.nextProcess},
		{"executed_files", &s.nextExec},
		{"opened_files", &s.nextOpen},
	} {
		var max sql.NullInt64
		if err := s.db.QueryRow(`SELECT MAX(id) FROM ` + q.table).Scan(&max); err != nil {
			return fmt.Errorf("loading id sequence for %s: %w", q.table, err)
		}
		if max.Valid {
			*q.next = max.Int64 + 1
		}
	}
	return nil
}

func (s *Store) begin() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrWrite, err)
	}
	s.tx = tx
	s.pending = 0
	return nil
}

func (s *Store) bump() error {
	s.pending++
	if s.pending < flushEvery {
		return nil
	}
	if err := s.tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrWrite, err)
	}
	return s.begin()
}

// RecordProcess appends a process row and returns its assigned id.
// parent is nil only for the root of the traced tree.
func (s *Store) RecordProcess(parent *int64, timestamp int64) (int64, error) {
	id := s.nextProcess
	var parentVal any
	if parent != nil {
		parentVal = *parent
	}
	_, err := s.tx.Exec(
		`INSERT INTO processes (id, parent, timestamp, exitcode) VALUES (?, ?, ?, NULL)`,
		id, parentVal, timestamp,
	)
	if err != nil {
		return 0, fmt.Errorf("%w: process row: %v", ErrWrite, err)
	}
	s.nextProcess++
	return id, s.bump()
}

// RecordExec appends an executed_files row. argv is stored NUL-joined.
func (s *Store) RecordExec(name string, timestamp int64, process int64, argv []string) error {
	_, err := s.tx.Exec(
		`INSERT INTO executed_files (id, name, timestamp, process, argv) VALUES (?, ?, ?, ?, ?)`,
		s.nextExec, name, timestamp, process, JoinArgv(argv),
	)
	if err != nil {
		return fmt.Errorf("%w: executed_files row: %v", ErrWrite, err)
	}
	s.nextExec++
	return s.bump()
}

// RecordOpen appends an opened_files row.
func (s *Store) RecordOpen(name string, timestamp int64, mode int, process int64) error {
	_, err := s.tx.Exec(
		`INSERT INTO opened_files (id, name, timestamp, mode, process) VALUES (?, ?, ?, ?, ?)`,
		s.nextOpen, name, timestamp, mode, process,
	)
	if err != nil {
		return fmt.Errorf("%w: opened_files row: %v", ErrWrite, err)
	}
	s.nextOpen++
	return s.bump()
}

// UpdateExit patches a process row's exit code. This is the only mutation
// of an existing row the store permits.
func (s *Store) UpdateExit(process int64, code int) error {
	_, err := s.tx.Exec(`UPDATE processes SET exitcode = ? WHERE id = ?`, code, process)
	if err != nil {
		return fmt.Errorf("%w: exit code for process %d: %v", ErrWrite, process, err)
	}
	return s.bump()
}

// Finalize commits everything outstanding and closes the database.
// The store must not be used afterwards except through the read API.
func (s *Store) Finalize() error {
	if s.finalized {
		return nil
	}
	s.finalized = true
	if s.tx != nil {
		if err := s.tx.Commit(); err != nil {
			s.db.Close()
			return fmt.Errorf("%w: final commit: %v", ErrWrite, err)
		}
		s.tx = nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

// Abort rolls back the open transaction and closes the database, leaving
// only previously committed rows behind.
func (s *Store) Abort() {
	if s.finalized {
		return
	}
	s.finalized = true
	if s.tx != nil {
		s.tx.Rollback()
		s.tx = nil
	}
	s.db.Close()
}
