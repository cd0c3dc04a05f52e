/*
Package manifest records what each extraction run read and wrote.

Every run is identified by a random UUID. For each source file the run
records its path, its kind and the SHA-1 of its contents, followed by every
file written from it and every chunk, shape or table that failed. A source
whose contents have already been extracted cleanly can be skipped by later
runs.
*/
package manifest

import (
	"crypto/sha1"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// DB is an extraction manifest stored in a SQLite database.
type DB struct {
	db *sql.DB
}

// Open opens or creates the manifest in file.
func Open(file string) (*DB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on&_busy_timeout=5000", file))
	if err != nil {
		return nil, err
	}
	// Workers write concurrently, serialise them through one connection
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		"CREATE TABLE IF NOT EXISTS run (id INTEGER PRIMARY KEY NOT NULL, uuid TEXT NOT NULL UNIQUE, started TEXT NOT NULL)",
		"CREATE TABLE IF NOT EXISTS source (id INTEGER PRIMARY KEY NOT NULL, run_id INTEGER NOT NULL, path TEXT NOT NULL, kind TEXT NOT NULL, sha1 TEXT NOT NULL, clean INTEGER, UNIQUE(run_id, path), FOREIGN KEY(run_id) REFERENCES run(id))",
		"CREATE INDEX IF NOT EXISTS source_sha1 ON source (sha1)",
		"CREATE TABLE IF NOT EXISTS output (source_id INTEGER NOT NULL, path TEXT NOT NULL, FOREIGN KEY(source_id) REFERENCES source(id))",
		"CREATE TABLE IF NOT EXISTS failure (source_id INTEGER NOT NULL, scope TEXT NOT NULL, item TEXT NOT NULL, reason TEXT NOT NULL, FOREIGN KEY(source_id) REFERENCES source(id))",
	} {
		if _, err = db.Exec(stmt); err != nil {
			db.Close()
			return nil, err
		}
	}

	return &DB{
		db: db,
	}, nil
}

// Close closes the database.
func (db *DB) Close() error {
	return db.db.Close()
}

// Hash returns the digest used to identify source contents.
func Hash(b []byte) string {
	return fmt.Sprintf("%X", sha1.Sum(b))
}

// Seen reports whether a source with digest sha has been extracted without
// any failures by any run.
func (db *DB) Seen(sha string) (bool, error) {
	var id int64
	switch err := db.db.QueryRow("SELECT id FROM source WHERE sha1 = ? AND clean = 1 LIMIT 1", sha).Scan(&id); err {
	case sql.ErrNoRows:
		return false, nil
	case nil:
		return true, nil
	default:
		return false, err
	}
}

// Run is a single extraction run.
type Run struct {
	db *DB
	id int64
	// UUID identifies the run.
	UUID uuid.UUID
}

// Begin starts a new run.
func (db *DB) Begin() (*Run, error) {
	u := uuid.New()

	result, err := db.db.Exec("INSERT INTO run (uuid, started) VALUES (?, ?)", u.String(), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &Run{
		db:   db,
		id:   id,
		UUID: u,
	}, nil
}

// Source is a source file within a run.
type Source int64

// AddSource records that the run is processing the file at path.
func (r *Run) AddSource(path, kind, sha string) (Source, error) {
	var id int64
	switch err := r.db.db.QueryRow("SELECT id FROM source WHERE run_id = ? AND path = ?", r.id, path).Scan(&id); err {
	case sql.ErrNoRows:
		result, err := r.db.db.Exec("INSERT INTO source (run_id, path, kind, sha1) VALUES (?, ?, ?, ?)", r.id, path, kind, sha)
		if err != nil {
			return 0, err
		}
		id, err = result.LastInsertId()
		if err != nil {
			return 0, err
		}
		return Source(id), nil
	case nil:
		return Source(id), nil
	default:
		return 0, err
	}
}

// AddOutput records a file written from source.
func (r *Run) AddOutput(source Source, path string) error {
	_, err := r.db.db.Exec("INSERT INTO output (source_id, path) VALUES (?, ?)", int64(source), path)
	return err
}

// AddFailure records that item, within scope, of source could not be
// extracted.
func (r *Run) AddFailure(source Source, scope, item, reason string) error {
	_, err := r.db.db.Exec("INSERT INTO failure (source_id, scope, item, reason) VALUES (?, ?, ?, ?)", int64(source), scope, item, reason)
	return err
}

// Finish marks source as done. A clean source is one with no failures.
func (r *Run) Finish(source Source, clean bool) error {
	_, err := r.db.db.Exec("UPDATE source SET clean = ? WHERE id = ?", clean, int64(source))
	return err
}

// Failure is a recorded failure.
type Failure struct {
	Path   string
	Scope  string
	Item   string
	Reason string
}

// Failures returns every failure recorded by the run, in the order they
// were added.
func (r *Run) Failures() ([]Failure, error) {
	rows, err := r.db.db.Query("SELECT s.path, f.scope, f.item, f.reason FROM failure AS f JOIN source AS s ON f.source_id = s.id WHERE s.run_id = ? ORDER BY f.rowid", r.id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var failures []Failure
	for rows.Next() {
		var f Failure
		if err := rows.Scan(&f.Path, &f.Scope, &f.Item, &f.Reason); err != nil {
			return nil, err
		}
		failures = append(failures, f)
	}

	return failures, rows.Err()
}

// Outputs returns every file written by the run.
func (r *Run) Outputs() ([]string, error) {
	rows, err := r.db.db.Query("SELECT o.path FROM output AS o JOIN source AS s ON o.source_id = s.id WHERE s.run_id = ? ORDER BY o.rowid", r.id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var outputs []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		outputs = append(outputs, p)
	}

	return outputs, rows.Err()
}
