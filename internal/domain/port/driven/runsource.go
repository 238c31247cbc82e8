package driven

import (
	"context"

	"agentlens/internal/domain/model"
)

// RunSource defines the driven port for the upstream run dashboard
// (source A). The source's structure may drift, so implementations must read
// every field defensively: a missing field yields its zero value, never an
// error for the whole item.
type RunSource interface {
	// ListRefs returns detail-reference tokens for the items currently on the
	// list view. Tokens may repeat; the extractor de-duplicates per pass.
	ListRefs(ctx context.Context) ([]string, error)

	// FetchDetail loads the detail view behind a reference token and returns
	// the observed run fields. The returned run's ID may be empty when no
	// identity can be derived from the token; callers skip such items.
	FetchDetail(ctx context.Context, ref string) (*model.Run, error)
}
