package driven

import (
	"context"

	"agentlens/internal/domain/model"
)

// GitHubClient defines the driven port for the pull request metadata API.
// All methods are read-only.
//
// A commit-status lookup keyed by head SHA would belong here when ci_status
// derivation is implemented; until then enrichment reports CIStatusUnknown.
type GitHubClient interface {
	// FetchPR returns metadata for a single pull request.
	FetchPR(ctx context.Context, owner, repo string, number int) (*model.PRMetadata, error)

	// FetchFiles returns a bounded sample of the PR's file-level changes.
	FetchFiles(ctx context.Context, owner, repo string, number int) ([]model.FileDiff, error)

	// FetchReviewCount returns the number of submitted reviews on the PR.
	FetchReviewCount(ctx context.Context, owner, repo string, number int) (int, error)
}
