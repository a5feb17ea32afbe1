// Package store persists a history of pipeline invocations to a local
// SQLite database, so "tsugix history" can show what happened across
// runs without re-parsing log output.
//
// The database is tuned for a single writer: one connection, WAL mode,
// and a schema_version table for forward migrations.
package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/tsugix/tsugix/internal/model"
)

const currentSchemaVersion = 1

// Record is one persisted pipeline invocation.
type Record struct {
	ID            int64
	Timestamp     time.Time
	Command       string
	WorkingDir    string
	Language      string
	ExceptionType string
	Message       string
	Outcome       model.Outcome
	BackupPath    string
	ErrorDetail   string
}

// Store wraps a per-repository SQLite database of run history.
type Store struct {
	db   *sql.DB
	path string
}

// DatabasePath returns ~/.tsugix/repos/<repoID>.db, where repoID is a
// stable hash of the working directory, so history works in arbitrary
// non-repo directories too.
func DatabasePath(homeDir, workingDir string) (string, error) {
	abs, err := filepath.Abs(workingDir)
	if err != nil {
		return "", fmt.Errorf("resolve working dir: %w", err)
	}
	sum := sha256.Sum256([]byte(abs))
	id := hex.EncodeToString(sum[:])[:20]
	return filepath.Join(homeDir, "repos", id+".db"), nil
}

// Open creates or opens the history database at dbPath, applying
// pragmas and migrations.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil { // #nosec G301 -- owner-only history dir
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec %s: %w", p, err)
		}
	}

	s := &Store{db: db, path: dbPath}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	if err := secureFiles(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("secure history files: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	const versionTable = `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at INTEGER NOT NULL
	);`
	if _, err := s.db.Exec(versionTable); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	var version int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version); err != nil {
		return fmt.Errorf("query schema version: %w", err)
	}
	if version >= currentSchemaVersion {
		return nil
	}

	const runsTable = `
	CREATE TABLE IF NOT EXISTS runs (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at      INTEGER NOT NULL,
		command         TEXT NOT NULL,
		working_dir     TEXT NOT NULL,
		language        TEXT,
		exception_type  TEXT,
		message         TEXT,
		outcome         TEXT NOT NULL,
		backup_path     TEXT,
		error_detail    TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC);
	CREATE INDEX IF NOT EXISTS idx_runs_outcome ON runs(outcome);
	`
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(runsTable); err != nil {
		tx.Rollback()
		return fmt.Errorf("create runs table: %w", err)
	}
	if _, err := tx.Exec("INSERT INTO schema_version (version, applied_at) VALUES (?, ?)", currentSchemaVersion, time.Now().Unix()); err != nil {
		tx.Rollback()
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}

func secureFiles(dbPath string) error {
	for _, suffix := range []string{"", "-wal", "-shm"} {
		p := dbPath + suffix
		if _, err := os.Stat(p); err == nil {
			if err := os.Chmod(p, 0o600); err != nil { // #nosec G302 -- owner-only history file
				return err
			}
		}
	}
	return nil
}

// Record inserts one pipeline invocation into the history.
func (s *Store) Record(r Record) error {
	const q = `
	INSERT INTO runs (started_at, command, working_dir, language, exception_type, message, outcome, backup_path, error_detail)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(q,
		r.Timestamp.Unix(), r.Command, r.WorkingDir,
		r.Language, r.ExceptionType, r.Message,
		string(r.Outcome), r.BackupPath, r.ErrorDetail,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// Recent returns the most recent n invocations, newest first.
func (s *Store) Recent(n int) ([]Record, error) {
	const q = `
	SELECT id, started_at, command, working_dir, language, exception_type, message, outcome, backup_path, error_detail
	FROM runs ORDER BY started_at DESC LIMIT ?
	`
	rows, err := s.db.Query(q, n)
	if err != nil {
		return nil, fmt.Errorf("query recent runs: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var ts int64
		var outcome string
		if err := rows.Scan(&r.ID, &ts, &r.Command, &r.WorkingDir, &r.Language, &r.ExceptionType, &r.Message, &outcome, &r.BackupPath, &r.ErrorDetail); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		r.Timestamp = time.Unix(ts, 0)
		r.Outcome = model.Outcome(outcome)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path reports the database file path this Store was opened with.
func (s *Store) Path() string {
	return s.path
}
