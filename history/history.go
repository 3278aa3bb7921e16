// Package history keeps a local journal of configuration lifecycle events
// in a SQLite database. The journal is append-only from the application's
// point of view; entries are only removed by Prune.
package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/yllada/wg-manager/common"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id     TEXT PRIMARY KEY,
	ts     INTEGER NOT NULL,
	config TEXT NOT NULL,
	action TEXT NOT NULL,
	detail TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS events_config_ts ON events (config, ts);
`

// Event is one journal entry.
type Event struct {
	ID     string
	Time   time.Time
	Config string
	Action string
	Detail string
}

// Journal records configuration lifecycle events.
type Journal struct {
	db *sql.DB
}

// Open opens (creating if necessary) the journal database at path.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// The journal is only written by this process.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare history schema: %w", err)
	}

	common.LogDebug("History journal open at %s", path)
	return &Journal{db: db}, nil
}

// Record appends one event. It implements the engine's Recorder.
func (j *Journal) Record(configName, action, detail string) error {
	_, err := j.db.Exec(
		"INSERT INTO events (id, ts, config, action, detail) VALUES (?, ?, ?, ?, ?)",
		uuid.NewString(), time.Now().Unix(), configName, action, detail,
	)
	if err != nil {
		return fmt.Errorf("failed to record %s event: %w", action, err)
	}
	return nil
}

// List returns events newest first, optionally filtered by configuration
// name. limit <= 0 means no limit.
func (j *Journal) List(configName string, limit int) ([]Event, error) {
	query := "SELECT id, ts, config, action, detail FROM events"
	var args []any
	if configName != "" {
		query += " WHERE config = ?"
		args = append(args, configName)
	}
	query += " ORDER BY ts DESC, id"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		var ts int64
		if err := rows.Scan(&ev.ID, &ts, &ev.Config, &ev.Action, &ev.Detail); err != nil {
			return nil, fmt.Errorf("failed to read history: %w", err)
		}
		ev.Time = time.Unix(ts, 0)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Prune deletes events older than the cutoff and returns how many were
// removed.
func (j *Journal) Prune(olderThan time.Time) (int64, error) {
	res, err := j.db.Exec("DELETE FROM events WHERE ts < ?", olderThan.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	return res.RowsAffected()
}

// Close releases the database handle.
func (j *Journal) Close() error {
	return j.db.Close()
}
