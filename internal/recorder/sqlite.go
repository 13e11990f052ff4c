package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex

	// Clock stamps rows. Defaults to time.Now.
	Clock func() time.Time
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the CLI read history while the server writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, Clock: time.Now}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS uploads (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			filename  TEXT,
			sheets    INTEGER,
			total     INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_uploads_ts ON uploads(timestamp)`,

		`CREATE TABLE IF NOT EXISTS exits (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp      INTEGER NOT NULL,
			ticker         TEXT NOT NULL,
			entry          TEXT,
			exit_value     TEXT,
			return_percent TEXT,
			notes          TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_exits_ticker ON exits(ticker)`,

		`CREATE TABLE IF NOT EXISTS deletions (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			ticker    TEXT NOT NULL,
			status    TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS snapshots (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			open      INTEGER,
			closed    INTEGER,
			records   BLOB
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_ts ON snapshots(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) now() int64 { return r.Clock().Unix() }

func (r *SQLiteRecorder) RecordUpload(evt *UploadEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO uploads (timestamp, filename, sheets, total) VALUES (?,?,?,?)`,
		r.now(), evt.Filename, evt.Sheets, evt.Total)
	return err
}

func (r *SQLiteRecorder) RecordExit(evt *ExitEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO exits
		(timestamp, ticker, entry, exit_value, return_percent, notes)
		VALUES (?,?,?,?,?,?)`,
		r.now(), evt.Ticker, evt.Entry, evt.ExitValue, evt.ReturnPercent, evt.Notes,
	)
	return err
}

func (r *SQLiteRecorder) RecordDeletion(evt *DeletionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO deletions (timestamp, ticker, status) VALUES (?,?,?)`,
		r.now(), evt.Ticker, evt.Status)
	return err
}

func (r *SQLiteRecorder) RecordSnapshot(snap *Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := snap.Taken
	if ts.IsZero() {
		ts = r.Clock()
	}
	_, err := r.db.Exec(`INSERT INTO snapshots (timestamp, open, closed, records) VALUES (?,?,?,?)`,
		ts.Unix(), snap.Open, snap.Closed, snap.Records)
	return err
}

// ExitRow is one row of exit history.
type ExitRow struct {
	Timestamp     time.Time
	Ticker        string
	ExitValue     string
	ReturnPercent string
}

// Exits returns the most recent exits, newest first.
func (r *SQLiteRecorder) Exits(limit int) ([]ExitRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT timestamp, ticker, exit_value, return_percent
		FROM exits ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ExitRow
	for rows.Next() {
		var (
			ts  int64
			row ExitRow
		)
		if err := rows.Scan(&ts, &row.Ticker, &row.ExitValue, &row.ReturnPercent); err != nil {
			return nil, err
		}
		row.Timestamp = time.Unix(ts, 0).UTC()
		out = append(out, row)
	}
	return out, rows.Err()
}

// CountSnapshots reports how many snapshots are stored.
func (r *SQLiteRecorder) CountSnapshots() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM snapshots`).Scan(&n)
	return n, err
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
