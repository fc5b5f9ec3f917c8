package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// Run kinds
const (
	RunTrain    = "train"
	RunEvaluate = "evaluate"
)

// Run is one recorded training or evaluation run
type Run struct {
	ID           string       `json:"id"`
	Kind         string       `json:"kind"`
	ModelRunID   string       `json:"model_run_id"`
	DataPath     string       `json:"data_path,omitempty"`
	Accuracy     float64      `json:"accuracy"`
	Precision    float64      `json:"precision"`
	Recall       float64      `json:"recall"`
	F1           float64      `json:"f1"`
	TrainSize    int          `json:"train_size"`
	TestSize     int          `json:"test_size"`
	ClassCount   int          `json:"class_count"`
	FeatureCount int          `json:"feature_count"`
	CreatedAt    time.Time    `json:"created_at"`
	Classes      []ClassScore `json:"classes,omitempty"`
}

// ClassScore is the per-class part of a run
type ClassScore struct {
	Label     string  `json:"label"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// SaveRun inserts a run and its class scores. An empty ID is filled with
// a new ULID and a zero CreatedAt with the current time.
func (db *DB) SaveRun(run *Run) error {
	if run.ID == "" {
		run.ID = ulid.Make().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (id, kind, model_run_id, data_path, accuracy, precision_weighted,
		                  recall_weighted, f1_weighted, train_size, test_size, class_count,
		                  feature_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Kind, run.ModelRunID, run.DataPath, run.Accuracy, run.Precision,
		run.Recall, run.F1, run.TrainSize, run.TestSize, run.ClassCount,
		run.FeatureCount, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	for _, s := range run.Classes {
		_, err := tx.Exec(`
			INSERT INTO run_class_scores (run_id, label, precision, recall, f1, support)
			VALUES (?, ?, ?, ?, ?, ?)
		`, run.ID, s.Label, s.Precision, s.Recall, s.F1, s.Support)
		if err != nil {
			return fmt.Errorf("failed to save class score for %s: %w", s.Label, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// GetRun retrieves a run with its class scores
func (db *DB) GetRun(id string) (*Run, error) {
	run := &Run{}
	var dataPath sql.NullString

	err := db.QueryRow(`
		SELECT id, kind, model_run_id, data_path, accuracy, precision_weighted, recall_weighted,
		       f1_weighted, train_size, test_size, class_count, feature_count, created_at
		FROM runs
		WHERE id = ?
	`, id).Scan(&run.ID, &run.Kind, &run.ModelRunID, &dataPath, &run.Accuracy, &run.Precision,
		&run.Recall, &run.F1, &run.TrainSize, &run.TestSize, &run.ClassCount,
		&run.FeatureCount, &run.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	run.DataPath = dataPath.String

	run.Classes, err = db.GetClassScores(id)
	if err != nil {
		return nil, err
	}
	return run, nil
}

// GetClassScores retrieves the per-class scores of a run, ordered by label
func (db *DB) GetClassScores(runID string) ([]ClassScore, error) {
	rows, err := db.Query(`
		SELECT label, precision, recall, f1, support
		FROM run_class_scores
		WHERE run_id = ?
		ORDER BY label
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query class scores: %w", err)
	}
	defer rows.Close()

	scores := []ClassScore{}
	for rows.Next() {
		var s ClassScore
		if err := rows.Scan(&s.Label, &s.Precision, &s.Recall, &s.F1, &s.Support); err != nil {
			return nil, fmt.Errorf("failed to scan class score: %w", err)
		}
		scores = append(scores, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating class scores: %w", err)
	}

	return scores, nil
}

// RunOptions filters ListRuns
type RunOptions struct {
	Since *time.Time
	Kind  string
	Limit int
}

// ListRuns returns runs newest first
func (db *DB) ListRuns(opts RunOptions) ([]*Run, error) {
	query := `
		SELECT id, kind, model_run_id, data_path, accuracy, precision_weighted, recall_weighted,
		       f1_weighted, train_size, test_size, class_count, feature_count, created_at
		FROM runs
		WHERE 1=1
	`
	args := []interface{}{}

	if opts.Since != nil {
		query += " AND created_at >= ?"
		args = append(args, opts.Since.UTC())
	}
	if opts.Kind != "" {
		query += " AND kind = ?"
		args = append(args, opts.Kind)
	}

	query += " ORDER BY created_at DESC, id DESC"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []*Run{}
	for rows.Next() {
		run := &Run{}
		var dataPath sql.NullString
		err := rows.Scan(&run.ID, &run.Kind, &run.ModelRunID, &dataPath, &run.Accuracy, &run.Precision,
			&run.Recall, &run.F1, &run.TrainSize, &run.TestSize, &run.ClassCount,
			&run.FeatureCount, &run.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.DataPath = dataPath.String
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}
