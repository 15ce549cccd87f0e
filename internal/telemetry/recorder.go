// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session       TEXT PRIMARY KEY,
	started_ms    INTEGER NOT NULL,
	sensor        TEXT
);
CREATE TABLE IF NOT EXISTS calibrations (
	session       TEXT NOT NULL REFERENCES sessions(session),
	time_ms       INTEGER NOT NULL,
	i3            INTEGER,
	i5            INTEGER,
	i7            INTEGER,
	roll_deg      REAL,
	pitch_deg     REAL,
	baseline_json TEXT
);
CREATE TABLE IF NOT EXISTS windows (
	session       TEXT NOT NULL REFERENCES sessions(session),
	window        INTEGER NOT NULL,
	time_ms       INTEGER NOT NULL,
	action        TEXT NOT NULL,
	tremor        INTEGER NOT NULL,
	dyskinesia    INTEGER NOT NULL,
	level_t       REAL,
	level_d       REAL,
	intensity     REAL,
	read_retries  INTEGER,
	missed_ticks  INTEGER,
	report_json   TEXT,
	PRIMARY KEY (session, window)
);
CREATE INDEX IF NOT EXISTS idx_windows_time ON windows(time_ms);
`

// HistoryRow is one stored window.
type HistoryRow struct {
	Session     string    `json:"session"`
	Window      uint64    `json:"window"`
	Time        time.Time `json:"time"`
	Action      string    `json:"action"`
	Tremor      bool      `json:"tremor"`
	Dyskinesia  bool      `json:"dyskinesia"`
	LevelT      float64   `json:"level_t"`
	LevelD      float64   `json:"level_d"`
	Intensity   float64   `json:"intensity"`
	ReadRetries uint64    `json:"read_retries"`
	MissedTicks uint64    `json:"missed_ticks"`
}

// Recorder stores sessions, calibrations and windows in sqlite.
type Recorder struct {
	db *sql.DB
}

// OpenRecorder opens (creating if needed) the history database at path.
func OpenRecorder(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	// one writer; sqlite serializes anyway
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}
	return &Recorder{db: db}, nil
}

func (r *Recorder) PublishCalibration(ctx context.Context, ev CalibrationEvent) error {
	baseline, err := json.Marshal(ev.Baseline)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO sessions (session, started_ms, sensor) VALUES (?, ?, ?)`,
		ev.Session, ev.Time.UnixMilli(), ev.Sensor); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO calibrations (session, time_ms, i3, i5, i7, roll_deg, pitch_deg, baseline_json) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.Session, ev.Time.UnixMilli(), ev.Bands.I3, ev.Bands.I5, ev.Bands.I7, ev.Mount.Roll, ev.Mount.Pitch, string(baseline)); err != nil {
		return fmt.Errorf("insert calibration: %w", err)
	}
	return tx.Commit()
}

func (r *Recorder) PublishWindow(ctx context.Context, ev WindowEvent) error {
	report, err := json.Marshal(ev.Report)
	if err != nil {
		return err
	}
	d := ev.Report.Decision
	_, err = r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO windows
			(session, window, time_ms, action, tremor, dyskinesia, level_t, level_d, intensity, read_retries, missed_ticks, report_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.Session, int64(ev.Report.Window), ev.Time.UnixMilli(), ev.Report.Action.String(),
		d.Tremor, d.Dyskinesia, d.LevelT, d.LevelD, ev.Command.Intensity,
		int64(ev.Report.ReadRetries), int64(ev.MissedTicks), string(report))
	if err != nil {
		return fmt.Errorf("insert window %d: %w", ev.Report.Window, err)
	}
	return nil
}

// Recent returns the last n windows across sessions, newest first.
func (r *Recorder) Recent(ctx context.Context, n int) ([]HistoryRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT session, window, time_ms, action, tremor, dyskinesia, level_t, level_d, intensity, read_retries, missed_ticks
		FROM windows ORDER BY time_ms DESC, window DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryRow
	for rows.Next() {
		var (
			h      HistoryRow
			window int64
			ms     int64
			retry  int64
			missed int64
		)
		if err := rows.Scan(&h.Session, &window, &ms, &h.Action, &h.Tremor, &h.Dyskinesia,
			&h.LevelT, &h.LevelD, &h.Intensity, &retry, &missed); err != nil {
			return nil, err
		}
		h.Window = uint64(window)
		h.Time = time.UnixMilli(ms).UTC()
		h.ReadRetries = uint64(retry)
		h.MissedTicks = uint64(missed)
		out = append(out, h)
	}
	return out, rows.Err()
}

// ActionCounts returns how many windows of a session asserted each action.
func (r *Recorder) ActionCounts(ctx context.Context, session string) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT action, COUNT(*) FROM windows WHERE session = ? GROUP BY action`, session)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var action string
		var n int
		if err := rows.Scan(&action, &n); err != nil {
			return nil, err
		}
		out[action] = n
	}
	return out, rows.Err()
}

func (r *Recorder) Close() error {
	return r.db.Close()
}
