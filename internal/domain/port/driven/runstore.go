package driven

import (
	"context"

	"agentlens/internal/domain/model"
)

// RunStore defines the driven port for run persistence.
type RunStore interface {
	// Upsert inserts or overwrites a run keyed by its ID. A run with an empty
	// ID is rejected before reaching storage.
	Upsert(ctx context.Context, run model.Run) error

	// GetByID retrieves a single run. Returns nil, nil if absent.
	GetByID(ctx context.Context, id string) (*model.Run, error)

	// ListRecent returns up to limit runs, most recently updated first.
	ListRecent(ctx context.Context, limit int) ([]model.Run, error)

	// LinkPR records a run↔PR association. Idempotent under repetition.
	LinkPR(ctx context.Context, runID, prID string) error
}
