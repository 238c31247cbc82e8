package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"agentlens/internal/domain/model"
	"agentlens/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.PRStore = (*PRRepo)(nil)

// PRRepo is the SQLite implementation of the PRStore port interface.
type PRRepo struct {
	db *DB
}

// NewPRRepo creates a new PRRepo backed by the given DB.
func NewPRRepo(db *DB) *PRRepo {
	return &PRRepo{db: db}
}

// Upsert inserts or overwrites a pull request keyed by its owner/repo#number
// identity, following the same column-intersection discipline as RunRepo.
// Re-enriching a PR overwrites rather than duplicates.
func (r *PRRepo) Upsert(ctx context.Context, pr model.PR) error {
	if pr.ID == "" {
		return fmt.Errorf("pull request has no id")
	}

	record := map[string]any{
		"id":              pr.ID,
		"owner":           nullIfEmpty(pr.Owner),
		"repo":            nullIfEmpty(pr.Repo),
		"number":          int64(pr.Number),
		"title":           nullIfEmpty(pr.Title),
		"author":          nullIfEmpty(pr.Author),
		"state":           nullIfEmpty(string(pr.State)),
		"html_url":        nullIfEmpty(pr.HTMLURL),
		"created_at":      timeValue(pr.CreatedAt),
		"updated_at":      timeValue(pr.UpdatedAt),
		"merged_at":       timeValue(pr.MergedAt),
		"additions":       int64(pr.Additions),
		"deletions":       int64(pr.Deletions),
		"changed_files":   int64(pr.ChangedFiles),
		"draft":           boolValue(pr.Draft),
		"review_count":    int64(pr.ReviewCount),
		"ci_status":       nullIfEmpty(string(pr.CIStatus)),
		"has_tests":       boolValue(pr.HasTests),
		"doc_touch_ratio": pr.DocTouchRatio,
	}

	if pr.DiffStats != nil {
		diffJSON, err := json.Marshal(pr.DiffStats)
		if err != nil {
			return fmt.Errorf("marshal diff stats for %s: %w", pr.ID, err)
		}
		record["diff_stats"] = string(diffJSON)
	} else {
		record["diff_stats"] = nil
	}

	if err := upsertIntersect(ctx, r.db, "prs", "id", record); err != nil {
		return fmt.Errorf("upsert pr %s: %w", pr.ID, err)
	}

	return nil
}

// GetByID retrieves a single pull request. Returns nil, nil if absent.
func (r *PRRepo) GetByID(ctx context.Context, id string) (*model.PR, error) {
	rows, err := queryMaps(ctx, r.db.Reader, `SELECT * FROM prs WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get pr %s: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	pr := prFromRow(rows[0])
	return &pr, nil
}

// ListRecent returns up to limit pull requests, most recently updated first.
func (r *PRRepo) ListRecent(ctx context.Context, limit int) ([]model.PR, error) {
	const query = `
		SELECT *
		FROM prs
		ORDER BY COALESCE(updated_at, created_at) DESC
		LIMIT ?
	`

	rows, err := queryMaps(ctx, r.db.Reader, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent prs: %w", err)
	}

	prs := make([]model.PR, 0, len(rows))
	for _, row := range rows {
		prs = append(prs, prFromRow(row))
	}

	return prs, nil
}

func prFromRow(row map[string]any) model.PR {
	pr := model.PR{
		ID:            rowString(row, "id"),
		Owner:         rowString(row, "owner"),
		Repo:          rowString(row, "repo"),
		Number:        rowInt(row, "number"),
		Title:         rowString(row, "title"),
		Author:        rowString(row, "author"),
		State:         model.PRState(rowString(row, "state")),
		HTMLURL:       rowString(row, "html_url"),
		CreatedAt:     rowTimePtr(row, "created_at"),
		UpdatedAt:     rowTimePtr(row, "updated_at"),
		MergedAt:      rowTimePtr(row, "merged_at"),
		Additions:     rowInt(row, "additions"),
		Deletions:     rowInt(row, "deletions"),
		ChangedFiles:  rowInt(row, "changed_files"),
		Draft:         rowBool(row, "draft"),
		ReviewCount:   rowInt(row, "review_count"),
		CIStatus:      model.CIStatus(rowString(row, "ci_status")),
		HasTests:      rowBool(row, "has_tests"),
		DocTouchRatio: rowFloat(row, "doc_touch_ratio"),
	}

	if pr.CIStatus == "" {
		pr.CIStatus = model.CIStatusUnknown
	}

	if diffJSON := rowString(row, "diff_stats"); diffJSON != "" {
		var diffs []model.FileDiff
		if err := json.Unmarshal([]byte(diffJSON), &diffs); err == nil {
			pr.DiffStats = diffs
		}
	}

	return pr
}
