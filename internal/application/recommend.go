package application

import "agentlens/internal/domain/model"

// maxRecommendations caps the next-step list per pull request.
const maxRecommendations = 3

// EmptyBatchHint is the roadmap sentinel for an empty review batch.
const EmptyBatchHint = "No data yet."

// Next-step templates, keyed by trigger.
const (
	recTestsMissing = "Add/extend unit tests targeting new logic and edge cases; gate with CI."
	recDocsLow      = "Augment README/inline docs; explain rationale and trade-offs."
	recTooLarge     = "Split PR into cohesive commits/modules; isolate refactors from logic changes."
	recNeedsReview  = "Request review from owner of touched module; add checklists."
	recPerfRisk     = "Benchmark hotspots; add micro-bench or profiling notes."
)

// Recommendations derives up to three actionable next steps from a score
// vector and its source record. Pure; conditions are evaluated in a fixed
// order and the list is de-duplicated before capping.
func Recommendations(scores model.ScoreVector, pr model.PR) []string {
	var recs []string

	if scores.Stability < 6 || !pr.HasTests {
		recs = append(recs, recTestsMissing)
	}
	if scores.Verbosity < 5 {
		recs = append(recs, recDocsLow)
	}
	if scores.CleanCode < 6 {
		recs = append(recs, recTooLarge)
	}
	if scores.Attention > 60 {
		recs = append(recs, recNeedsReview)
	}
	if scores.Efficiency < 5 {
		recs = append(recs, recPerfRisk)
	}

	seen := make(map[string]bool, len(recs))
	deduped := make([]string, 0, maxRecommendations)
	for _, r := range recs {
		if seen[r] {
			continue
		}
		seen[r] = true
		deduped = append(deduped, r)
		if len(deduped) == maxRecommendations {
			break
		}
	}

	return deduped
}

// ScoredPR pairs a pull request with its computed scores.
type ScoredPR struct {
	PR     model.PR
	Scores model.ScoreVector
}

// RoadmapHint produces a single process-level nudge from a batch of scored
// pull requests. Branches are checked in priority order; the first match wins.
func RoadmapHint(batch []ScoredPR) string {
	if len(batch) == 0 {
		return EmptyBatchHint
	}

	total := len(batch)
	attnHigh, lowDocs, lowTests, perfRisk := 0, 0, 0, 0
	for _, item := range batch {
		if item.Scores.Attention > 70 {
			attnHigh++
		}
		if item.Scores.Verbosity < 5 {
			lowDocs++
		}
		if !item.PR.HasTests {
			lowTests++
		}
		if item.Scores.Efficiency < 5 {
			perfRisk++
		}
	}

	manyLarge := attnHigh >= max(2, total/3)
	manyLowDocs := lowDocs >= max(2, total/4)

	switch {
	case manyLarge && manyLowDocs:
		return "Prioritize a documentation and testing sprint; enforce PR size guardrails and module ownership."
	case manyLarge:
		return "Enforce PR size guardrails; require risk checklists on high-attention changes."
	case manyLowDocs:
		return "Invest in better documentation and rationale sections in PRs; adopt a docs checklist."
	case lowTests >= max(2, total/4):
		return "Schedule a testing push; add CI gates requiring targeted unit tests on changed modules."
	case perfRisk >= max(2, total/4):
		return "Add performance budgets and basic benchmarks for hotspots; profile critical paths."
	default:
		return "Steady state; continue current review process and incremental improvements."
	}
}
