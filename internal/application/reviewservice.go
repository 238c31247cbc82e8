package application

import (
	"context"
	"log/slog"
	"sort"

	"agentlens/internal/domain/model"
	"agentlens/internal/domain/port/driven"
)

// backfillScanLimit bounds how many recent runs are scanned for PR references
// when the PR store is empty.
const backfillScanLimit = 100

// RankedPR is one entry of the ranked review output.
type RankedPR struct {
	PR        model.PR
	Scores    model.ScoreVector
	NextSteps []string
}

// ReviewReport is the ranked review over a batch of pull requests.
type ReviewReport struct {
	Ranked      []RankedPR
	RoadmapHint string
}

// ReviewService composes the stores, the enricher, and the pure scoring
// functions into the operations exposed to callers.
type ReviewService struct {
	runStore driven.RunStore
	prStore  driven.PRStore
	enricher *EnrichService
	logger   *slog.Logger
}

// NewReviewService creates a new ReviewService. enricher may be nil when no
// repository API client is configured; backfill is then skipped.
func NewReviewService(runStore driven.RunStore, prStore driven.PRStore, enricher *EnrichService) *ReviewService {
	return &ReviewService{
		runStore: runStore,
		prStore:  prStore,
		enricher: enricher,
		logger:   slog.Default(),
	}
}

// ListRecentRuns returns up to limit runs, most recently updated first.
func (s *ReviewService) ListRecentRuns(ctx context.Context, limit int) ([]model.Run, error) {
	return s.runStore.ListRecent(ctx, limit)
}

// GetRun returns a single run by id, nil when absent.
func (s *ReviewService) GetRun(ctx context.Context, id string) (*model.Run, error) {
	return s.runStore.GetByID(ctx, id)
}

// TopPRs is the read-only ranked review: score the most recent limit PRs and
// sort descending by attention. The sort is stable, so store order breaks ties.
func (s *ReviewService) TopPRs(ctx context.Context, limit int) (ReviewReport, error) {
	prs, err := s.prStore.ListRecent(ctx, limit)
	if err != nil {
		return ReviewReport{}, err
	}

	batch := make([]ScoredPR, 0, len(prs))
	for _, pr := range prs {
		batch = append(batch, ScoredPR{PR: pr, Scores: ScorePR(pr)})
	}

	sort.SliceStable(batch, func(i, j int) bool {
		return batch[i].Scores.Attention > batch[j].Scores.Attention
	})

	ranked := make([]RankedPR, 0, len(batch))
	for _, item := range batch {
		ranked = append(ranked, RankedPR{
			PR:        item.PR,
			Scores:    item.Scores,
			NextSteps: Recommendations(item.Scores, item.PR),
		})
	}

	return ReviewReport{Ranked: ranked, RoadmapHint: RoadmapHint(batch)}, nil
}

// ReviewTopPRs is the read-with-backfill variant of TopPRs. When the PR store
// is empty it derives PR references from recent runs and enriches up to limit
// of them sequentially before re-reading — best effort, not a completeness
// guarantee.
func (s *ReviewService) ReviewTopPRs(ctx context.Context, limit int) (ReviewReport, error) {
	report, err := s.TopPRs(ctx, limit)
	if err != nil {
		return ReviewReport{}, err
	}
	if len(report.Ranked) > 0 || s.enricher == nil {
		return report, nil
	}

	if err := s.backfillFromRuns(ctx, limit); err != nil {
		return ReviewReport{}, err
	}

	return s.TopPRs(ctx, limit)
}

// backfillFromRuns enriches distinct PR references found on recent runs.
func (s *ReviewService) backfillFromRuns(ctx context.Context, limit int) error {
	runs, err := s.runStore.ListRecent(ctx, backfillScanLimit)
	if err != nil {
		return err
	}

	seen := make(map[string]bool)
	enriched := 0
	for _, run := range runs {
		if enriched >= limit {
			break
		}
		if !run.HasPR() || seen[run.PRURL] {
			continue
		}
		seen[run.PRURL] = true

		pr, err := s.enricher.Enrich(ctx, run.PRURL)
		if err != nil {
			return err
		}
		if pr != nil {
			enriched++
		}
	}

	if enriched > 0 {
		s.logger.Info("backfilled pull requests from run references", "enriched", enriched)
	}

	return nil
}
