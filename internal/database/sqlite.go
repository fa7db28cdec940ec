package database

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// NewSQLiteDB opens (and if needed creates) an embedded SQLite database.
// Pure-Go driver, so single-binary deployments need no cgo or server.
func NewSQLiteDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// The driver is not safe for concurrent writers on one connection pool
	// beyond what SQLite itself serializes; a single connection avoids
	// SQLITE_BUSY on concurrent request handling.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return db, nil
}

// SQLiteSchema mirrors scripts/schema.sql in the SQLite dialect. Dates are
// stored as ISO-8601 text.
const SQLiteSchema = `
CREATE TABLE IF NOT EXISTS persons (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    first_name    TEXT,
    last_name     TEXT,
    birth_date    TEXT,
    death_date    TEXT,
    is_male       INTEGER,
    father_id     INTEGER REFERENCES persons(id),
    mother_id     INTEGER REFERENCES persons(id),
    data_owner_id TEXT,
    row_version   INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_persons_father_id ON persons(father_id);
CREATE INDEX IF NOT EXISTS idx_persons_mother_id ON persons(mother_id);
`

// EnsureSQLiteSchema applies the embedded schema.
func EnsureSQLiteSchema(db *sql.DB) error {
	if _, err := db.Exec(SQLiteSchema); err != nil {
		return fmt.Errorf("failed to apply sqlite schema: %w", err)
	}
	return nil
}
