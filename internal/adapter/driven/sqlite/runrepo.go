package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"agentlens/internal/domain/model"
	"agentlens/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.RunStore = (*RunRepo)(nil)

// RunRepo is the SQLite implementation of the RunStore port interface.
type RunRepo struct {
	db *DB
}

// NewRunRepo creates a new RunRepo backed by the given DB.
func NewRunRepo(db *DB) *RunRepo {
	return &RunRepo{db: db}
}

// Upsert inserts or overwrites a run keyed by id. The write set is the
// intersection of record fields and the columns actually present on the runs
// table; last write wins on every included non-key column.
func (r *RunRepo) Upsert(ctx context.Context, run model.Run) error {
	if run.ID == "" {
		return fmt.Errorf("run has no id")
	}

	record := map[string]any{
		"id":               run.ID,
		"title":            nullIfEmpty(run.Title),
		"prompt":           nullIfEmpty(run.Prompt),
		"status":           nullIfEmpty(run.Status),
		"repo":             nullIfEmpty(run.Repo),
		"branch":           nullIfEmpty(run.Branch),
		"created_at":       timeValue(run.CreatedAt),
		"updated_at":       timeValue(run.UpdatedAt),
		"duration_seconds": int64Value(run.DurationSeconds),
		"pr_url":           nullIfEmpty(run.PRURL),
		"details_url":      nullIfEmpty(run.DetailsURL),
	}

	if run.Raw != nil {
		rawJSON, err := json.Marshal(run.Raw)
		if err != nil {
			return fmt.Errorf("marshal raw payload for run %s: %w", run.ID, err)
		}
		record["raw"] = string(rawJSON)
	} else {
		record["raw"] = nil
	}

	if err := upsertIntersect(ctx, r.db, "runs", "id", record); err != nil {
		return fmt.Errorf("upsert run %s: %w", run.ID, err)
	}

	return nil
}

// GetByID retrieves a single run. Returns nil, nil if the run does not exist.
func (r *RunRepo) GetByID(ctx context.Context, id string) (*model.Run, error) {
	rows, err := queryMaps(ctx, r.db.Reader, `SELECT * FROM runs WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	run := runFromRow(rows[0])
	return &run, nil
}

// ListRecent returns up to limit runs, most recently updated first. Runs
// without timestamps sort by id so the order stays deterministic.
func (r *RunRepo) ListRecent(ctx context.Context, limit int) ([]model.Run, error) {
	const query = `
		SELECT *
		FROM runs
		ORDER BY COALESCE(updated_at, created_at, id) DESC
		LIMIT ?
	`

	rows, err := queryMaps(ctx, r.db.Reader, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent runs: %w", err)
	}

	runs := make([]model.Run, 0, len(rows))
	for _, row := range rows {
		runs = append(runs, runFromRow(row))
	}

	return runs, nil
}

// LinkPR records a run↔PR association. Re-linking the same pair is a no-op.
func (r *RunRepo) LinkPR(ctx context.Context, runID, prID string) error {
	const query = `INSERT INTO run_prs (run_id, pr_id) VALUES (?, ?) ON CONFLICT(run_id, pr_id) DO NOTHING`

	if _, err := r.db.Writer.ExecContext(ctx, query, runID, prID); err != nil {
		return fmt.Errorf("link run %s to pr %s: %w", runID, prID, err)
	}

	return nil
}

func runFromRow(row map[string]any) model.Run {
	run := model.Run{
		ID:              rowString(row, "id"),
		Title:           rowString(row, "title"),
		Prompt:          rowString(row, "prompt"),
		Status:          rowString(row, "status"),
		Repo:            rowString(row, "repo"),
		Branch:          rowString(row, "branch"),
		CreatedAt:       rowTimePtr(row, "created_at"),
		UpdatedAt:       rowTimePtr(row, "updated_at"),
		DurationSeconds: rowInt64Ptr(row, "duration_seconds"),
		PRURL:           rowString(row, "pr_url"),
		DetailsURL:      rowString(row, "details_url"),
	}

	if rawJSON := rowString(row, "raw"); rawJSON != "" {
		var raw map[string]any
		if err := json.Unmarshal([]byte(rawJSON), &raw); err == nil {
			run.Raw = raw
		}
	}

	return run
}
