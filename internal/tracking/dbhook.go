package tracking

import (
	"database/sql"
	"log/slog"
	"sync"
)

// DBHook stores records in the playback_events table. After the first write
// error it disables itself so a broken database never slows playback.
type DBHook struct {
	db *sql.DB

	mu       sync.Mutex
	disabled bool
}

// NewDBHook creates a new database hook
func NewDBHook(db *sql.DB) *DBHook {
	return &DBHook{db: db}
}

// LogRecord inserts rec.
func (d *DBHook) LogRecord(rec Record) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.disabled {
		return
	}

	_, err := d.db.Exec(`
		INSERT INTO playback_events (timestamp, instance_id, kind, event_name, outcome, detail)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Timestamp.Unix(),
		rec.InstanceID,
		rec.Kind,
		nullable(rec.EventName),
		rec.Outcome,
		nullable(rec.Detail))
	if err != nil {
		slog.Warn("playback tracking disabled after write failure", "error", err, "kind", rec.Kind)
		d.disabled = true
		return
	}

	slog.Debug("playback tracking logged record",
		"instance_id", rec.InstanceID,
		"kind", rec.Kind,
		"outcome", rec.Outcome)
}

// Disabled reports whether a write error switched the hook off.
func (d *DBHook) Disabled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.disabled
}

// GetHook returns the PlaybackHook function for use with Recorder
func (d *DBHook) GetHook() PlaybackHook {
	return d.LogRecord
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
