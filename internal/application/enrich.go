package application

import (
	"context"
	"log/slog"
	"path"
	"strconv"
	"strings"

	"agentlens/internal/domain/model"
	"agentlens/internal/domain/port/driven"
)

// EnrichService fetches pull request metadata from the repository API,
// derives the heuristic signal fields, and persists the result.
type EnrichService struct {
	gh      driven.GitHubClient
	prStore driven.PRStore
	logger  *slog.Logger
}

// NewEnrichService creates a new EnrichService.
func NewEnrichService(gh driven.GitHubClient, prStore driven.PRStore) *EnrichService {
	return &EnrichService{
		gh:      gh,
		prStore: prStore,
		logger:  slog.Default(),
	}
}

// Enrich resolves a PR reference URL into a stored, enriched PR record.
// Returns nil, nil when the URL does not reference a pull request or when the
// API has no data for it — many runs have no PR yet, and one failed
// enrichment must not abort a batch. The error return is reserved for
// storage failures.
func (s *EnrichService) Enrich(ctx context.Context, prURL string) (*model.PR, error) {
	owner, repo, number, ok := model.ParsePRURL(prURL)
	if !ok {
		return nil, nil
	}

	meta, err := s.gh.FetchPR(ctx, owner, repo, number)
	if err != nil {
		s.logger.Warn("pr metadata unavailable", "owner", owner, "repo", repo, "number", number, "error", err)
		return nil, nil
	}

	// Files and review count degrade independently; metadata alone is enough
	// to produce a useful record.
	files, err := s.gh.FetchFiles(ctx, owner, repo, number)
	if err != nil {
		s.logger.Warn("pr file listing unavailable", "owner", owner, "repo", repo, "number", number, "error", err)
		files = nil
	}

	reviewCount, err := s.gh.FetchReviewCount(ctx, owner, repo, number)
	if err != nil {
		s.logger.Warn("pr review listing unavailable", "owner", owner, "repo", repo, "number", number, "error", err)
		reviewCount = 0
	}

	pr := buildPR(owner, repo, number, meta, files, reviewCount)

	if err := s.prStore.Upsert(ctx, pr); err != nil {
		return nil, err
	}

	return &pr, nil
}

// buildPR assembles the enriched record from API data.
func buildPR(owner, repo string, number int, meta *model.PRMetadata, files []model.FileDiff, reviewCount int) model.PR {
	state := model.PRState(meta.State)
	if meta.MergedAt != nil {
		state = model.PRStateMerged
	}

	htmlURL := meta.HTMLURL
	if htmlURL == "" {
		htmlURL = "https://github.com/" + owner + "/" + repo + "/pull/" + strconv.Itoa(number)
	}

	return model.PR{
		ID:            model.PRID(owner, repo, number),
		Owner:         owner,
		Repo:          repo,
		Number:        number,
		Title:         meta.Title,
		Author:        meta.Author,
		State:         state,
		HTMLURL:       htmlURL,
		CreatedAt:     meta.CreatedAt,
		UpdatedAt:     meta.UpdatedAt,
		MergedAt:      meta.MergedAt,
		Additions:     meta.Additions,
		Deletions:     meta.Deletions,
		ChangedFiles:  meta.ChangedFiles,
		Draft:         meta.Draft,
		ReviewCount:   reviewCount,
		CIStatus:      model.CIStatusUnknown, // no commit-status lookup yet
		HasTests:      anyTestFile(files),
		DocTouchRatio: docTouchRatio(files),
		DiffStats:     files,
	}
}

// anyTestFile reports whether any sampled file looks like a test across
// common ecosystem conventions.
func anyTestFile(files []model.FileDiff) bool {
	for _, f := range files {
		if isTestPath(strings.ToLower(f.Path)) {
			return true
		}
	}
	return false
}

func isTestPath(lower string) bool {
	for _, segment := range []string{"test/", "tests/", "__tests__/", "spec/"} {
		if strings.HasPrefix(lower, segment) || strings.Contains(lower, "/"+segment) {
			return true
		}
	}

	base := path.Base(lower)
	if strings.HasPrefix(base, "test_") {
		return true
	}
	for _, marker := range []string{"_test.go", ".test.", ".spec.", "_spec.rb", "test.java"} {
		if strings.Contains(base, marker) {
			return true
		}
	}

	return false
}

// docTouchRatio is the fraction of sampled files under a documentation
// convention, with a minimum denominator of 1.
func docTouchRatio(files []model.FileDiff) float64 {
	docTouches := 0
	for _, f := range files {
		if isDocPath(strings.ToLower(f.Path)) {
			docTouches++
		}
	}

	denominator := len(files)
	if denominator < 1 {
		denominator = 1
	}

	return float64(docTouches) / float64(denominator)
}

func isDocPath(lower string) bool {
	if strings.HasPrefix(lower, "docs/") || strings.HasPrefix(lower, "doc/") {
		return true
	}
	return strings.HasPrefix(path.Base(lower), "readme")
}
