package application

import (
	"context"
	"errors"
	"sort"

	"agentlens/internal/domain/model"
)

// fakeRunStore is an in-memory RunStore for service tests.
type fakeRunStore struct {
	runs    map[string]model.Run
	links   map[[2]string]bool
	upserts int
}

func newFakeRunStore() *fakeRunStore {
	return &fakeRunStore{runs: make(map[string]model.Run), links: make(map[[2]string]bool)}
}

func (f *fakeRunStore) Upsert(_ context.Context, run model.Run) error {
	if run.ID == "" {
		return errors.New("run has no id")
	}
	f.runs[run.ID] = run
	f.upserts++
	return nil
}

func (f *fakeRunStore) GetByID(_ context.Context, id string) (*model.Run, error) {
	if run, ok := f.runs[id]; ok {
		return &run, nil
	}
	return nil, nil
}

func (f *fakeRunStore) ListRecent(_ context.Context, limit int) ([]model.Run, error) {
	ids := make([]string, 0, len(f.runs))
	for id := range f.runs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]model.Run, 0, limit)
	for _, id := range ids {
		if len(out) == limit {
			break
		}
		out = append(out, f.runs[id])
	}
	return out, nil
}

func (f *fakeRunStore) LinkPR(_ context.Context, runID, prID string) error {
	f.links[[2]string{runID, prID}] = true
	return nil
}

// fakePRStore is an in-memory PRStore for service tests.
type fakePRStore struct {
	prs     map[string]model.PR
	order   []string
	upserts int
}

func newFakePRStore() *fakePRStore {
	return &fakePRStore{prs: make(map[string]model.PR)}
}

func (f *fakePRStore) Upsert(_ context.Context, pr model.PR) error {
	if pr.ID == "" {
		return errors.New("pull request has no id")
	}
	if _, ok := f.prs[pr.ID]; !ok {
		f.order = append(f.order, pr.ID)
	}
	f.prs[pr.ID] = pr
	f.upserts++
	return nil
}

func (f *fakePRStore) GetByID(_ context.Context, id string) (*model.PR, error) {
	if pr, ok := f.prs[id]; ok {
		return &pr, nil
	}
	return nil, nil
}

func (f *fakePRStore) ListRecent(_ context.Context, limit int) ([]model.PR, error) {
	out := make([]model.PR, 0, limit)
	for _, id := range f.order {
		if len(out) == limit {
			break
		}
		out = append(out, f.prs[id])
	}
	return out, nil
}

// fakeSource scripts the run source for extraction tests.
type fakeSource struct {
	refs        []string
	details     map[string]*model.Run
	failures    map[string]int // remaining failures per ref
	fetchCounts map[string]int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		details:     make(map[string]*model.Run),
		failures:    make(map[string]int),
		fetchCounts: make(map[string]int),
	}
}

func (f *fakeSource) ListRefs(_ context.Context) ([]string, error) {
	return f.refs, nil
}

func (f *fakeSource) FetchDetail(_ context.Context, ref string) (*model.Run, error) {
	f.fetchCounts[ref]++
	if f.failures[ref] > 0 {
		f.failures[ref]--
		return nil, errors.New("navigation failed")
	}
	if run, ok := f.details[ref]; ok {
		copied := *run
		return &copied, nil
	}
	return &model.Run{}, nil
}

// fakeGitHub scripts the repository API for enrichment tests.
type fakeGitHub struct {
	meta       *model.PRMetadata
	metaErr    error
	files      []model.FileDiff
	filesErr   error
	reviews    int
	reviewsErr error
}

func (f *fakeGitHub) FetchPR(_ context.Context, _, _ string, _ int) (*model.PRMetadata, error) {
	if f.metaErr != nil {
		return nil, f.metaErr
	}
	return f.meta, nil
}

func (f *fakeGitHub) FetchFiles(_ context.Context, _, _ string, _ int) ([]model.FileDiff, error) {
	if f.filesErr != nil {
		return nil, f.filesErr
	}
	return f.files, nil
}

func (f *fakeGitHub) FetchReviewCount(_ context.Context, _, _ string, _ int) (int, error) {
	if f.reviewsErr != nil {
		return 0, f.reviewsErr
	}
	return f.reviews, nil
}
