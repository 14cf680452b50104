// Package sqlite is the durable TaskStore used by the CLI and the HTTP service.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"apply-agent/internal/application/port/output"

	_ "github.com/mattn/go-sqlite3"
)

var _ output.TaskStore = (*Store)(nil)

type Store struct {
	db *sql.DB
}

func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dbPath, err)
	}
	// One writer at a time; the orchestrator is sequential anyway.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s: %w", dbPath, err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) runMigrations() error {
	schema := `
CREATE TABLE IF NOT EXISTS workflows (
  id                      TEXT PRIMARY KEY,
  user_id                 TEXT NOT NULL,
  search_query            TEXT NOT NULL,
  status                  TEXT NOT NULL,
  total_jobs              INTEGER NOT NULL DEFAULT 0,
  processed_jobs          INTEGER NOT NULL DEFAULT 0,
  successful_applications INTEGER NOT NULL DEFAULT 0,
  failed_applications     INTEGER NOT NULL DEFAULT 0,
  created_at              INTEGER NOT NULL,
  updated_at              INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
  id            TEXT PRIMARY KEY,
  workflow_id   TEXT NOT NULL,
  type          TEXT NOT NULL,
  job_id        TEXT NOT NULL,
  job_url       TEXT NOT NULL,
  payload       TEXT,
  priority      INTEGER NOT NULL,
  max_retries   INTEGER NOT NULL,
  current_retry INTEGER NOT NULL DEFAULT 0,
  status        TEXT NOT NULL,
  result        TEXT,
  created_at    INTEGER NOT NULL,
  updated_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tasks_next ON tasks(workflow_id, status, priority DESC, created_at);

CREATE TABLE IF NOT EXISTS logs (
  id          INTEGER PRIMARY KEY AUTOINCREMENT,
  workflow_id TEXT NOT NULL,
  agent_type  TEXT NOT NULL,
  level       TEXT NOT NULL,
  message     TEXT NOT NULL,
  ts          INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_logs_workflow ON logs(workflow_id, id);
`
	_, err := s.db.Exec(schema)
	return err
}

// Timestamps are stored as UTC unix nanoseconds so ordering is exact.
func toNanos(t time.Time) int64 { return t.UTC().UnixNano() }

func fromNanos(n int64) time.Time { return time.Unix(0, n).UTC() }
