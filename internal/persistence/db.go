// Package persistence provides SQLite-backed run telemetry: per-second field
// statistics and the stimulus log. Nothing here is loaded back into a
// simulation; every process run starts from a fresh grid.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/ncruces/go-strftime"
	_ "modernc.org/sqlite"

	"github.com/talgya/hexfield/internal/diffusion"
	"github.com/talgya/hexfield/internal/engine"
	"github.com/talgya/hexfield/internal/hex"
)

const timeLayout = "%Y-%m-%dT%H:%M:%SZ"

// DB wraps a SQLite connection for run telemetry.
// It implements engine.Recorder once BeginRun has been called.
type DB struct {
	conn *sqlx.DB
	run  uuid.UUID
}

// StatsRow is one recorded sample of field statistics.
type StatsRow struct {
	Tick  uint64  `db:"tick" json:"tick"`
	Live  int     `db:"live" json:"live"`
	Total float64 `db:"total" json:"total"`
	Max   float64 `db:"max_energy" json:"max"`
	Min   float64 `db:"min_energy" json:"min"`
}

// StimulusRow is one recorded stimulus.
type StimulusRow struct {
	Tick    uint64  `db:"tick" json:"tick"`
	Q       int     `db:"q" json:"q"`
	R       int     `db:"r" json:"r"`
	S       int     `db:"s" json:"s"`
	Amount  float64 `db:"amount" json:"amount"`
	Source  string  `db:"source" json:"source"`
	Applied bool    `db:"applied" json:"applied"`
}

// Coord returns the stimulus target.
func (r StimulusRow) Coord() hex.Cube {
	return hex.Cube{Q: r.Q, R: r.R, S: r.S}
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer; the engine records under its own lock.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		config_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tick_stats (
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		live INTEGER NOT NULL,
		total REAL NOT NULL,
		max_energy REAL NOT NULL,
		min_energy REAL NOT NULL,
		PRIMARY KEY (run_id, tick)
	);

	CREATE TABLE IF NOT EXISTS stimuli (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		q INTEGER NOT NULL,
		r INTEGER NOT NULL,
		s INTEGER NOT NULL,
		amount REAL NOT NULL,
		source TEXT NOT NULL,
		applied INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS run_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_stimuli_run_tick ON stimuli(run_id, tick);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// BeginRun registers a new run and makes it the target of subsequent records.
func (db *DB) BeginRun(cfg diffusion.Config) (uuid.UUID, error) {
	id := uuid.New()
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal config: %w", err)
	}

	startedAt := strftime.Format(timeLayout, time.Now().UTC())
	if _, err := db.conn.Exec(
		"INSERT INTO runs (id, started_at, config_json) VALUES (?, ?, ?)",
		id.String(), startedAt, string(cfgJSON),
	); err != nil {
		return uuid.Nil, fmt.Errorf("insert run: %w", err)
	}

	db.run = id
	if err := db.SaveMeta("last_run", id.String()); err != nil {
		return uuid.Nil, fmt.Errorf("save meta: %w", err)
	}
	slog.Info("telemetry run started", "run", id.String(), "started_at", startedAt)
	return id, nil
}

// Run returns the active run, or uuid.Nil before BeginRun.
func (db *DB) Run() uuid.UUID {
	return db.run
}

// RecordStats stores one statistics sample for the active run.
func (db *DB) RecordStats(st diffusion.Stats) error {
	if db.run == uuid.Nil {
		return errNoRun
	}
	_, err := db.conn.Exec(`INSERT OR REPLACE INTO tick_stats
		(run_id, tick, live, total, max_energy, min_energy)
		VALUES (?, ?, ?, ?, ?, ?)`,
		db.run.String(), st.Tick, st.Live, st.Total, st.Max, st.Min,
	)
	if err != nil {
		return fmt.Errorf("insert stats tick %d: %w", st.Tick, err)
	}
	return nil
}

// RecordStimulus appends a stimulus to the active run's log.
func (db *DB) RecordStimulus(ev engine.Event) error {
	if db.run == uuid.Nil {
		return errNoRun
	}
	applied := 0
	if ev.Applied {
		applied = 1
	}
	_, err := db.conn.Exec(`INSERT INTO stimuli
		(run_id, tick, q, r, s, amount, source, applied)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		db.run.String(), ev.Tick, ev.Coord.Q, ev.Coord.R, ev.Coord.S, ev.Amount, ev.Source, applied,
	)
	if err != nil {
		return fmt.Errorf("insert stimulus tick %d: %w", ev.Tick, err)
	}
	return nil
}

// RecentStats returns up to limit samples for run, newest first.
func (db *DB) RecentStats(run uuid.UUID, limit int) ([]StatsRow, error) {
	var rows []StatsRow
	err := db.conn.Select(&rows,
		`SELECT tick, live, total, max_energy, min_energy FROM tick_stats
		 WHERE run_id = ? ORDER BY tick DESC LIMIT ?`,
		run.String(), limit,
	)
	return rows, err
}

// RecentStimuli returns up to limit stimuli for run, newest first.
func (db *DB) RecentStimuli(run uuid.UUID, limit int) ([]StimulusRow, error) {
	var rows []StimulusRow
	err := db.conn.Select(&rows,
		`SELECT tick, q, r, s, amount, source, applied FROM stimuli
		 WHERE run_id = ? ORDER BY id DESC LIMIT ?`,
		run.String(), limit,
	)
	return rows, err
}

// SaveMeta stores a key-value pair.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO run_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM run_meta WHERE key = ?", key)
	return value, err
}
