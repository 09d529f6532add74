package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	DriverMemory   Driver = "memory"
)

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:essays.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/essays?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if driver == DriverSQLite {
		// one writer keeps :memory: databases on a single connection
		db.SetMaxOpenConns(1)
	}

	if err := EnsureSchema(ctx, db, driver); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func EnsureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	default:
		return fmt.Errorf("no schema for driver: %s", driver)
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  role TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS rubrics (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  criteria_json TEXT NOT NULL,
  max_score INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS assignments (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  rubric_id TEXT NOT NULL DEFAULT '',
  teacher_id TEXT NOT NULL,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS essays (
  id TEXT PRIMARY KEY,
  assignment_id TEXT NOT NULL DEFAULT '',
  student_id TEXT NOT NULL,
  title TEXT NOT NULL,
  content TEXT NOT NULL,
  status TEXT NOT NULL,
  submitted_at INTEGER NOT NULL,
  status_changed_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS essays_student_idx ON essays(student_id);
CREATE INDEX IF NOT EXISTS essays_status_idx ON essays(status, status_changed_at);

CREATE TABLE IF NOT EXISTS grades (
  essay_id TEXT PRIMARY KEY REFERENCES essays(id) ON DELETE CASCADE,
  total_score INTEGER NOT NULL,
  max_score INTEGER NOT NULL,
  criteria_json TEXT NOT NULL,
  feedback TEXT NOT NULL,
  detailed_json TEXT NOT NULL,
  suggestions_json TEXT NOT NULL,
  graded_by TEXT NOT NULL,
  teacher_id TEXT NOT NULL DEFAULT '',
  rubric_id TEXT NOT NULL DEFAULT '',
  chunks_processed INTEGER NOT NULL DEFAULT 0,
  graded_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS event_log (
  offset_id INTEGER PRIMARY KEY AUTOINCREMENT,
  essay_id TEXT NOT NULL,
  typ TEXT NOT NULL,
  actor_id TEXT NOT NULL DEFAULT '',
  data TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS event_log_essay_idx ON event_log(essay_id, offset_id);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  role TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS rubrics (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  criteria_json TEXT NOT NULL,
  max_score INTEGER NOT NULL,
  updated_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS assignments (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  rubric_id TEXT NOT NULL DEFAULT '',
  teacher_id TEXT NOT NULL,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS essays (
  id TEXT PRIMARY KEY,
  assignment_id TEXT NOT NULL DEFAULT '',
  student_id TEXT NOT NULL,
  title TEXT NOT NULL,
  content TEXT NOT NULL,
  status TEXT NOT NULL,
  submitted_at BIGINT NOT NULL,
  status_changed_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS essays_student_idx ON essays(student_id);
CREATE INDEX IF NOT EXISTS essays_status_idx ON essays(status, status_changed_at);

CREATE TABLE IF NOT EXISTS grades (
  essay_id TEXT PRIMARY KEY REFERENCES essays(id) ON DELETE CASCADE,
  total_score INTEGER NOT NULL,
  max_score INTEGER NOT NULL,
  criteria_json TEXT NOT NULL,
  feedback TEXT NOT NULL,
  detailed_json TEXT NOT NULL,
  suggestions_json TEXT NOT NULL,
  graded_by TEXT NOT NULL,
  teacher_id TEXT NOT NULL DEFAULT '',
  rubric_id TEXT NOT NULL DEFAULT '',
  chunks_processed INTEGER NOT NULL DEFAULT 0,
  graded_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS event_log (
  offset_id BIGSERIAL PRIMARY KEY,
  essay_id TEXT NOT NULL,
  typ TEXT NOT NULL,
  actor_id TEXT NOT NULL DEFAULT '',
  data TEXT NOT NULL DEFAULT '',
  created_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS event_log_essay_idx ON event_log(essay_id, offset_id);
`
