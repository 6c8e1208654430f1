package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"github.com/rahul/synthetics/internal/journey"
)

// RunSummary is one stored journey run.
type RunSummary struct {
	ID           string
	Journey      string
	Started      time.Time
	Duration     time.Duration
	Passed       bool
	HardFailure  string
	SoftFailures int
}

// RunStore keeps journey run history in SQLite.
type RunStore struct {
	DB *sql.DB
}

func NewRunStore(dbPath string) (*RunStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// Create tables if not exist
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			journey TEXT NOT NULL,
			started DATETIME NOT NULL,
			duration_ms INTEGER NOT NULL,
			passed INTEGER NOT NULL,
			hard_failure TEXT,
			soft_failures INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS steps (
			run_id TEXT NOT NULL REFERENCES runs(id),
			number INTEGER NOT NULL,
			category TEXT NOT NULL,
			category_step INTEGER NOT NULL,
			description TEXT,
			policy TEXT NOT NULL,
			status TEXT NOT NULL,
			start_ms INTEGER NOT NULL,
			elapsed_ms INTEGER NOT NULL,
			error TEXT,
			PRIMARY KEY (run_id, number)
		);`,
		`CREATE INDEX IF NOT EXISTS runs_journey_started ON runs (journey, started);`,
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			db.Close()
			return nil, err
		}
	}

	return &RunStore{DB: db}, nil
}

func (s *RunStore) Close() error {
	return s.DB.Close()
}

// SaveRun stores res and its steps in one transaction.
func (s *RunStore) SaveRun(res *journey.Result) error {
	tx, err := s.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (id, journey, started, duration_ms, passed, hard_failure, soft_failures) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		res.RunID, res.Journey, res.Started.UTC(), res.Duration.Milliseconds(), res.Passed(), res.HardFailure, len(res.Failures),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for _, st := range res.Steps {
		_, err = tx.Exec(
			`INSERT INTO steps (run_id, number, category, category_step, description, policy, status, start_ms, elapsed_ms, error) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			res.RunID, st.Number, st.Category, st.CategoryStep, st.Description, string(st.Policy), string(st.Status),
			st.Start.Milliseconds(), st.Elapsed.Milliseconds(), st.Error,
		)
		if err != nil {
			return fmt.Errorf("failed to insert step %d: %w", st.Number, err)
		}
	}

	return tx.Commit()
}

// RecentRuns returns the latest runs of a journey, newest first.
func (s *RunStore) RecentRuns(journeyName string, limit int) ([]RunSummary, error) {
	query := `SELECT id, journey, started, duration_ms, passed, hard_failure, soft_failures
		FROM runs WHERE journey = ? ORDER BY started DESC LIMIT ?`
	rows, err := s.DB.Query(query, journeyName, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var durationMs int64
		var hard sql.NullString
		if err := rows.Scan(&r.ID, &r.Journey, &r.Started, &durationMs, &r.Passed, &hard, &r.SoftFailures); err != nil {
			return nil, err
		}
		r.Duration = time.Duration(durationMs) * time.Millisecond
		r.HardFailure = hard.String
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Steps returns the stored steps of a run in execution order.
func (s *RunStore) Steps(runID string) ([]journey.StepRecord, error) {
	query := `SELECT number, category, category_step, description, policy, status, start_ms, elapsed_ms, error
		FROM steps WHERE run_id = ? ORDER BY number`
	rows, err := s.DB.Query(query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var steps []journey.StepRecord
	for rows.Next() {
		var st journey.StepRecord
		var policy, status string
		var startMs, elapsedMs int64
		var stepErr sql.NullString
		if err := rows.Scan(&st.Number, &st.Category, &st.CategoryStep, &st.Description, &policy, &status, &startMs, &elapsedMs, &stepErr); err != nil {
			return nil, err
		}
		st.Policy = journey.Policy(policy)
		st.Status = journey.StepStatus(status)
		st.Start = time.Duration(startMs) * time.Millisecond
		st.Elapsed = time.Duration(elapsedMs) * time.Millisecond
		st.Error = stepErr.String
		steps = append(steps, st)
	}
	return steps, rows.Err()
}
