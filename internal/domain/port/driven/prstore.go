package driven

import (
	"context"

	"agentlens/internal/domain/model"
)

// PRStore defines the driven port for enriched pull request persistence.
type PRStore interface {
	// Upsert inserts or overwrites a pull request keyed by its ID
	// (owner/repo#number). A PR with an empty ID is rejected.
	Upsert(ctx context.Context, pr model.PR) error

	// GetByID retrieves a single pull request. Returns nil, nil if absent.
	GetByID(ctx context.Context, id string) (*model.PR, error)

	// ListRecent returns up to limit pull requests, most recently updated first.
	ListRecent(ctx context.Context, limit int) ([]model.PR, error)
}
