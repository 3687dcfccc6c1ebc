// Package telemetry records command runs in a local SQLite database.
// Nothing leaves the machine; the database lives in the user config directory.
package telemetry

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Telemetry tracks command runs. A Telemetry with no database is disabled and
// every method is a no-op.
type Telemetry struct {
	db *sql.DB
}

// Event represents a telemetry event.
type Event struct {
	Timestamp time.Time
	Command   string
	Theme     string
	Duration  time.Duration
	NetworkMS float64
	ExitCode  int
}

// CommandStats summarizes the recorded runs of one command.
type CommandStats struct {
	Runs          int
	Failures      int
	AvgDurationMS float64
	AvgNetworkMS  float64
}

// NewTelemetry creates a telemetry instance backed by
// <user config dir>/shopkit/telemetry.db, or a disabled one.
func NewTelemetry(enabled bool) (*Telemetry, error) {
	if !enabled {
		return &Telemetry{}, nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user config dir: %w", err)
	}
	return Open(filepath.Join(configDir, "shopkit", "telemetry.db"))
}

// Open opens (creating if needed) the telemetry database at dbPath.
func Open(dbPath string) (*Telemetry, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create telemetry directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open telemetry database: %w", err)
	}

	t := &Telemetry{db: db}
	if err := t.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return t, nil
}

// Enabled reports whether events are persisted.
func (t *Telemetry) Enabled() bool { return t.db != nil }

func (t *Telemetry) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS command_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		command TEXT NOT NULL,
		theme TEXT,
		duration_ms INTEGER,
		network_ms REAL,
		exit_code INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_command_events_timestamp ON command_events(timestamp);
	CREATE INDEX IF NOT EXISTS idx_command_events_command ON command_events(command);
	`

	_, err := t.db.Exec(schema)
	return err
}

// RecordEvent records a telemetry event.
func (t *Telemetry) RecordEvent(event Event) error {
	if t.db == nil {
		return nil
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	query := `
		INSERT INTO command_events
		(timestamp, command, theme, duration_ms, network_ms, exit_code)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := t.db.Exec(
		query,
		event.Timestamp.UTC().Format(time.RFC3339),
		event.Command,
		event.Theme,
		event.Duration.Milliseconds(),
		event.NetworkMS,
		event.ExitCode,
	)
	if err != nil {
		return fmt.Errorf("record %s event: %w", event.Command, err)
	}
	return nil
}

// Stats returns aggregate numbers for a command.
func (t *Telemetry) Stats(command string) (CommandStats, error) {
	var stats CommandStats
	if t.db == nil {
		return stats, nil
	}

	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN exit_code != 0 THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(duration_ms), 0),
			COALESCE(AVG(network_ms), 0)
		FROM command_events
		WHERE command = ?
	`
	err := t.db.QueryRow(query, command).Scan(&stats.Runs, &stats.Failures, &stats.AvgDurationMS, &stats.AvgNetworkMS)
	if err != nil {
		return CommandStats{}, fmt.Errorf("query %s stats: %w", command, err)
	}
	return stats, nil
}

// CommandUsage returns the number of recorded runs per command.
func (t *Telemetry) CommandUsage() (map[string]int, error) {
	if t.db == nil {
		return nil, nil
	}

	rows, err := t.db.Query(`SELECT command, COUNT(*) FROM command_events GROUP BY command`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	usage := make(map[string]int)
	for rows.Next() {
		var command string
		var count int
		if err := rows.Scan(&command, &count); err != nil {
			return nil, err
		}
		usage[command] = count
	}
	return usage, rows.Err()
}

// Close closes the telemetry database connection.
func (t *Telemetry) Close() error {
	if t.db == nil {
		return nil
	}
	return t.db.Close()
}
