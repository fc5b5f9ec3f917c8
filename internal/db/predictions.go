package db

import (
	"database/sql"
	"fmt"
	"time"
)

// Prediction sources
const (
	SourcePredict = "predict"
	SourceBatch   = "batch"
)

// Prediction is one served classification
type Prediction struct {
	ID         int64     `json:"id"`
	ModelRunID string    `json:"model_run_id"`
	Source     string    `json:"source"`
	Text       string    `json:"text"`
	Label      string    `json:"label,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// SavePredictions inserts predictions in a single transaction
func (db *DB) SavePredictions(preds []*Prediction) error {
	if len(preds) == 0 {
		return nil // Nothing to save
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO predictions (model_run_id, source, text, label, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, p := range preds {
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		result, err := stmt.Exec(p.ModelRunID, p.Source, p.Text, nullable(p.Label), nullable(p.Error), p.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to save prediction: %w", err)
		}
		if id, err := result.LastInsertId(); err == nil {
			p.ID = id
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit predictions: %w", err)
	}
	return nil
}

// GetPredictions retrieves the most recent predictions made by a model
func (db *DB) GetPredictions(modelRunID string, limit int) ([]*Prediction, error) {
	query := `
		SELECT id, model_run_id, source, text, label, error, created_at
		FROM predictions
		WHERE model_run_id = ?
		ORDER BY id DESC
	`
	args := []interface{}{modelRunID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	preds := []*Prediction{}
	for rows.Next() {
		p := &Prediction{}
		var label, errText sql.NullString
		err := rows.Scan(&p.ID, &p.ModelRunID, &p.Source, &p.Text, &label, &errText, &p.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		p.Label = label.String
		p.Error = errText.String
		preds = append(preds, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating predictions: %w", err)
	}

	return preds, nil
}

// LabelCount is the number of predictions that received a label
type LabelCount struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// CountPredictionsByLabel tallies successful predictions of a model
func (db *DB) CountPredictionsByLabel(modelRunID string) ([]LabelCount, error) {
	rows, err := db.Query(`
		SELECT label, COUNT(*) AS n
		FROM predictions
		WHERE model_run_id = ? AND label IS NOT NULL
		GROUP BY label
		ORDER BY n DESC, label
	`, modelRunID)
	if err != nil {
		return nil, fmt.Errorf("failed to count predictions: %w", err)
	}
	defer rows.Close()

	counts := []LabelCount{}
	for rows.Next() {
		var c LabelCount
		if err := rows.Scan(&c.Label, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan label count: %w", err)
		}
		counts = append(counts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating label counts: %w", err)
	}

	return counts, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
