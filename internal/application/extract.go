// Package application contains use-case orchestration services and the pure
// scoring/recommendation functions.
package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"agentlens/internal/domain/model"
	"agentlens/internal/domain/port/driven"
)

// detailAttempts bounds navigation retries per item. No backoff: the second
// attempt fires immediately, and a still-failing item is skipped.
const detailAttempts = 2

// ExtractStats summarizes one extraction pass.
type ExtractStats struct {
	PassID    string
	Extracted int
	Skipped   int
}

// ExtractService runs extraction passes against the upstream run source and
// persists the observed runs.
type ExtractService struct {
	source   driven.RunSource
	runStore driven.RunStore
	logger   *slog.Logger
}

// NewExtractService creates a new ExtractService.
func NewExtractService(source driven.RunSource, runStore driven.RunStore) *ExtractService {
	return &ExtractService{
		source:   source,
		runStore: runStore,
		logger:   slog.Default(),
	}
}

// RunPass performs one extraction pass: list the source, visit each detail
// reference once, and upsert every run that yields an identity. A failing or
// identity-less item is skipped, never aborts the pass; the skip count is
// reported back to the caller.
func (s *ExtractService) RunPass(ctx context.Context) (ExtractStats, error) {
	stats := ExtractStats{PassID: uuid.NewString()}
	start := time.Now()

	refs, err := s.source.ListRefs(ctx)
	if err != nil {
		return stats, err
	}

	seen := make(map[string]bool, len(refs))
	for _, ref := range refs {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		if seen[ref] {
			continue
		}
		seen[ref] = true

		run := s.fetchDetail(ctx, ref)
		if run == nil || run.ID == "" {
			stats.Skipped++
			continue
		}

		if err := s.runStore.Upsert(ctx, *run); err != nil {
			s.logger.Error("run upsert failed", "pass_id", stats.PassID, "run_id", run.ID, "error", err)
			stats.Skipped++
			continue
		}
		stats.Extracted++

		s.linkPR(ctx, *run)
	}

	s.logger.Info("extraction pass complete",
		"pass_id", stats.PassID,
		"refs", len(refs),
		"extracted", stats.Extracted,
		"skipped", stats.Skipped,
		"duration", time.Since(start).Round(time.Millisecond),
	)

	return stats, nil
}

// fetchDetail fetches one detail view with the bounded retry. Returns nil
// when all attempts fail.
func (s *ExtractService) fetchDetail(ctx context.Context, ref string) *model.Run {
	var lastErr error
	for attempt := 1; attempt <= detailAttempts; attempt++ {
		run, err := s.source.FetchDetail(ctx, ref)
		if err == nil {
			return run
		}
		lastErr = err
	}

	s.logger.Warn("detail fetch failed, skipping item", "ref", ref, "attempts", detailAttempts, "error", lastErr)
	return nil
}

// linkPR records the run↔PR association when the run references a parseable
// PR URL. Link failures are logged, not fatal: the association exists only
// for future attribution and scoring does not depend on it.
func (s *ExtractService) linkPR(ctx context.Context, run model.Run) {
	owner, repo, number, ok := model.ParsePRURL(run.PRURL)
	if !ok {
		return
	}

	prID := model.PRID(owner, repo, number)
	if err := s.runStore.LinkPR(ctx, run.ID, prID); err != nil {
		s.logger.Warn("run-pr link failed", "run_id", run.ID, "pr_id", prID, "error", err)
	}
}
