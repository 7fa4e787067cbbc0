// Package history keeps a SQLite journal of batch runs. It is observational:
// the JSON store stays the store of record, and a journal failure never
// fails a run.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

type Journal struct {
	db *sql.DB
}

// Run is one recorded batch pass.
type Run struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt time.Time
	Processed  int
	Skipped    int
	Degraded   int
}

// Result is one journaled email analysis.
type Result struct {
	ID         int64
	RunID      int64
	EmailID    string
	Subject    string
	Tone       string
	Confidence float64
	Categories []string
	Degraded   []string
	CreatedAt  time.Time
}

// Open creates or opens the journal database and migrates the schema.
func Open(dbPath string) (*Journal, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	j := &Journal{db: db}
	if err := j.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

func (j *Journal) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		processed INTEGER DEFAULT 0,
		skipped INTEGER DEFAULT 0,
		degraded INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL,
		email_id TEXT NOT NULL,
		subject TEXT,
		tone TEXT,
		confidence REAL,
		categories TEXT,
		degraded TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_results_run_id ON results(run_id);
	CREATE INDEX IF NOT EXISTS idx_results_email_id ON results(email_id);
	`
	if _, err := j.db.Exec(query); err != nil {
		return fmt.Errorf("failed to migrate history schema: %w", err)
	}
	return nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// StartRun opens a new run row and returns its id.
func (j *Journal) StartRun(started time.Time) (int64, error) {
	res, err := j.db.Exec(`INSERT INTO runs (started_at) VALUES (?)`, started)
	if err != nil {
		return 0, fmt.Errorf("failed to start run: %w", err)
	}
	return res.LastInsertId()
}

// FinishRun closes out a run with its final counters.
func (j *Journal) FinishRun(runID int64, finished time.Time, processed, skipped, degraded int) error {
	_, err := j.db.Exec(
		`UPDATE runs SET finished_at = ?, processed = ?, skipped = ?, degraded = ? WHERE id = ?`,
		finished, processed, skipped, degraded, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// RecordResult journals one email's analysis outcome.
func (j *Journal) RecordResult(runID int64, emailID, subject, tone string, confidence float64, categories, degraded []string) error {
	_, err := j.db.Exec(
		`INSERT INTO results (run_id, email_id, subject, tone, confidence, categories, degraded)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, emailID, subject, tone, confidence,
		strings.Join(categories, ","), strings.Join(degraded, ","))
	if err != nil {
		return fmt.Errorf("failed to record result: %w", err)
	}
	return nil
}

func scanRun(scanner interface{ Scan(...any) error }) (*Run, error) {
	var r Run
	var finished sql.NullTime
	if err := scanner.Scan(&r.ID, &r.StartedAt, &finished, &r.Processed, &r.Skipped, &r.Degraded); err != nil {
		return nil, err
	}
	r.FinishedAt = finished.Time
	return &r, nil
}

// RecentRuns returns the newest runs first.
func (j *Journal) RecentRuns(limit int) ([]Run, error) {
	rows, err := j.db.Query(
		`SELECT id, started_at, finished_at, processed, skipped, degraded
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// RunResults returns the journaled results for one run.
func (j *Journal) RunResults(runID int64) ([]Result, error) {
	rows, err := j.db.Query(
		`SELECT id, run_id, email_id, subject, tone, confidence, categories, degraded, created_at
		 FROM results WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var categories, degraded sql.NullString
		var created sql.NullTime
		if err := rows.Scan(&r.ID, &r.RunID, &r.EmailID, &r.Subject, &r.Tone,
			&r.Confidence, &categories, &degraded, &created); err != nil {
			return nil, err
		}
		r.Categories = splitList(categories.String)
		r.Degraded = splitList(degraded.String)
		r.CreatedAt = created.Time
		results = append(results, r)
	}
	return results, rows.Err()
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
