// Package experiment persists training run records.
//
// A Tracker owns a sqlite database holding one row per run and one row
// per periodic evaluation. Trackers observe a run from the outside;
// they never touch the training snapshot itself.
package experiment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/qvecrl/qvec/hpo"

	_ "modernc.org/sqlite"
)

// Tracker records training runs into a sqlite database
type Tracker struct {
	db      *sql.DB
	runID   string
	started time.Time
}

// Open opens or creates the tracker database at path
func Open(ctx context.Context, path string) (*Tracker, error) {
	if path == "" {
		return nil, errors.New("open: database path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open: %v", err)
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open: %v", err)
	}
	return &Tracker{db: db}, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id          TEXT PRIMARY KEY,
			algorithm   TEXT NOT NULL,
			config      TEXT NOT NULL,
			started_at  TEXT NOT NULL,
			finished_at TEXT,
			global_step INTEGER NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS evaluations (
			run_id      TEXT NOT NULL REFERENCES runs(id),
			global_step INTEGER NOT NULL,
			episodes    INTEGER NOT NULL,
			reward_mean REAL NOT NULL,
			reward_std  REAL NOT NULL
		);
	`)
	return err
}

// BeginRun registers a new run for an algorithm with its configuration
// and returns the run's id. Subsequent records go to this run.
func (t *Tracker) BeginRun(ctx context.Context, algorithm string,
	config hpo.Config) (string, error) {

	encoded, err := json.Marshal(config)
	if err != nil {
		return "", fmt.Errorf("beginrun: could not encode config: %v", err)
	}

	t.runID = uuid.NewString()
	t.started = time.Now()
	_, err = t.db.ExecContext(ctx, `
		INSERT INTO runs (id, algorithm, config, started_at)
		VALUES (?, ?, ?, ?)
	`, t.runID, algorithm, string(encoded), t.started.Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("beginrun: %v", err)
	}
	return t.runID, nil
}

// RecordEvaluation stores the summary of one periodic evaluation of
// the current run
func (t *Tracker) RecordEvaluation(ctx context.Context, globalStep int,
	rewards []float64) error {

	if t.runID == "" {
		return errors.New("recordevaluation: no run in progress")
	}
	if len(rewards) == 0 {
		return errors.New("recordevaluation: no rewards")
	}

	_, err := t.db.ExecContext(ctx, `
		INSERT INTO evaluations (run_id, global_step, episodes,
			reward_mean, reward_std)
		VALUES (?, ?, ?, ?, ?)
	`, t.runID, globalStep, len(rewards), stat.Mean(rewards, nil),
		stat.StdDev(rewards, nil))
	if err != nil {
		return fmt.Errorf("recordevaluation: %v", err)
	}
	return nil
}

// FinishRun marks the current run finished at the given global step
func (t *Tracker) FinishRun(ctx context.Context, globalStep int) error {
	if t.runID == "" {
		return errors.New("finishrun: no run in progress")
	}

	_, err := t.db.ExecContext(ctx, `
		UPDATE runs SET finished_at = ?, global_step = ? WHERE id = ?
	`, time.Now().Format(time.RFC3339), globalStep, t.runID)
	if err != nil {
		return fmt.Errorf("finishrun: %v", err)
	}
	return nil
}

// Evaluation is one stored evaluation summary
type Evaluation struct {
	GlobalStep int
	Episodes   int
	RewardMean float64
	RewardStd  float64
}

// Evaluations returns the stored evaluation summaries of a run in
// insertion order
func (t *Tracker) Evaluations(ctx context.Context,
	runID string) ([]Evaluation, error) {

	rows, err := t.db.QueryContext(ctx, `
		SELECT global_step, episodes, reward_mean, reward_std
		FROM evaluations WHERE run_id = ? ORDER BY rowid
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("evaluations: %v", err)
	}
	defer rows.Close()

	var evals []Evaluation
	for rows.Next() {
		var e Evaluation
		err := rows.Scan(&e.GlobalStep, &e.Episodes, &e.RewardMean,
			&e.RewardStd)
		if err != nil {
			return nil, fmt.Errorf("evaluations: %v", err)
		}
		evals = append(evals, e)
	}
	return evals, rows.Err()
}

// Summary returns a one-line human-readable description of the current
// run
func (t *Tracker) Summary(globalStep int) string {
	return fmt.Sprintf("run %v: %v steps in %v", t.runID,
		humanize.Comma(int64(globalStep)),
		time.Since(t.started).Round(time.Second))
}

// Close closes the tracker database
func (t *Tracker) Close() error {
	return t.db.Close()
}
