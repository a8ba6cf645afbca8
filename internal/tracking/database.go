package tracking

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver
)

// NewDatabase opens the SQLite database at dbPath and applies the schema.
// ":memory:" opens a private in-memory database.
func NewDatabase(dbPath string) (*sql.DB, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA user_version = 1",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	return db, nil
}

func ensureSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS playback_events (
    id          INTEGER PRIMARY KEY,
    timestamp   INTEGER NOT NULL,
    instance_id TEXT    NOT NULL,
    kind        TEXT    NOT NULL CHECK (kind IN ('toggle','unlock','trigger')),
    event_name  TEXT,
    outcome     TEXT    NOT NULL,
    detail      TEXT
);

CREATE INDEX IF NOT EXISTS idx_events_timestamp ON playback_events(timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_events_kind ON playback_events(kind, outcome);
CREATE INDEX IF NOT EXISTS idx_events_instance ON playback_events(instance_id);
`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// GetDatabasePath returns the XDG data path for the playback database,
// creating its directory.
func GetDatabasePath() (string, error) {
	path, err := xdg.DataFile(filepath.Join("wrapbeep", "playback.db"))
	if err != nil {
		return "", fmt.Errorf("failed to create database directory: %w", err)
	}
	return path, nil
}
