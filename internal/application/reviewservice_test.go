package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentlens/internal/domain/model"
)

func TestTopPRs_EmptyStore(t *testing.T) {
	svc := NewReviewService(newFakeRunStore(), newFakePRStore(), nil)

	report, err := svc.TopPRs(context.Background(), 10)
	require.NoError(t, err)

	assert.Empty(t, report.Ranked)
	assert.Equal(t, EmptyBatchHint, report.RoadmapHint)
}

func TestTopPRs_RanksByAttentionDescending(t *testing.T) {
	prStore := newFakePRStore()
	calm := model.PR{
		ID: "acme/widgets#1", Additions: 10, Deletions: 5, ChangedFiles: 2,
		HasTests: true, State: model.PRStateMerged, DocTouchRatio: 0.2,
	}
	risky := model.PR{
		ID: "acme/widgets#2", Additions: 800, Deletions: 200, ChangedFiles: 40,
		Draft: true, State: model.PRStateOpen,
	}
	middling := model.PR{
		ID: "acme/widgets#3", Additions: 100, Deletions: 50, ChangedFiles: 5,
		State: model.PRStateOpen,
	}
	for _, pr := range []model.PR{calm, risky, middling} {
		require.NoError(t, prStore.Upsert(context.Background(), pr))
	}

	svc := NewReviewService(newFakeRunStore(), prStore, nil)
	report, err := svc.TopPRs(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, report.Ranked, 3)

	assert.Equal(t, "acme/widgets#2", report.Ranked[0].PR.ID)
	assert.Equal(t, "acme/widgets#3", report.Ranked[1].PR.ID)
	assert.Equal(t, "acme/widgets#1", report.Ranked[2].PR.ID)

	assert.NotEmpty(t, report.Ranked[0].NextSteps)
	assert.LessOrEqual(t, len(report.Ranked[0].NextSteps), maxRecommendations)
	assert.NotEmpty(t, report.RoadmapHint)
}

func TestReviewTopPRs_BackfillsFromRunReferences(t *testing.T) {
	runStore := newFakeRunStore()
	require.NoError(t, runStore.Upsert(context.Background(), model.Run{
		ID:    "run-1",
		PRURL: "https://github.com/acme/widgets/pull/42",
	}))
	require.NoError(t, runStore.Upsert(context.Background(), model.Run{
		ID:    "run-2",
		PRURL: "https://github.com/acme/widgets/pull/42", // same PR twice
	}))
	require.NoError(t, runStore.Upsert(context.Background(), model.Run{
		ID: "run-3", // no PR reference
	}))

	prStore := newFakePRStore()
	gh := &fakeGitHub{
		meta:    &model.PRMetadata{Title: "Backfilled", State: "open", Additions: 20, Deletions: 5, ChangedFiles: 2},
		reviews: 1,
	}
	svc := NewReviewService(runStore, prStore, NewEnrichService(gh, prStore))

	report, err := svc.ReviewTopPRs(context.Background(), 10)
	require.NoError(t, err)

	require.Len(t, report.Ranked, 1)
	assert.Equal(t, "acme/widgets#42", report.Ranked[0].PR.ID)
	assert.Equal(t, "Backfilled", report.Ranked[0].PR.Title)
	assert.Equal(t, 1, prStore.upserts)
}

func TestReviewTopPRs_NoBackfillWhenStorePopulated(t *testing.T) {
	runStore := newFakeRunStore()
	require.NoError(t, runStore.Upsert(context.Background(), model.Run{
		ID:    "run-1",
		PRURL: "https://github.com/acme/widgets/pull/42",
	}))

	prStore := newFakePRStore()
	require.NoError(t, prStore.Upsert(context.Background(), model.PR{ID: "acme/widgets#1"}))
	before := prStore.upserts

	svc := NewReviewService(runStore, prStore, NewEnrichService(&fakeGitHub{}, prStore))
	report, err := svc.ReviewTopPRs(context.Background(), 10)
	require.NoError(t, err)

	assert.Len(t, report.Ranked, 1)
	assert.Equal(t, before, prStore.upserts)
}

func TestReviewTopPRs_NilEnricherSkipsBackfill(t *testing.T) {
	runStore := newFakeRunStore()
	require.NoError(t, runStore.Upsert(context.Background(), model.Run{
		ID:    "run-1",
		PRURL: "https://github.com/acme/widgets/pull/42",
	}))

	svc := NewReviewService(runStore, newFakePRStore(), nil)
	report, err := svc.ReviewTopPRs(context.Background(), 10)
	require.NoError(t, err)

	assert.Empty(t, report.Ranked)
	assert.Equal(t, EmptyBatchHint, report.RoadmapHint)
}

func TestListRecentRunsAndGetRun(t *testing.T) {
	runStore := newFakeRunStore()
	require.NoError(t, runStore.Upsert(context.Background(), model.Run{ID: "run-1", Title: "first"}))
	require.NoError(t, runStore.Upsert(context.Background(), model.Run{ID: "run-2", Title: "second"}))

	svc := NewReviewService(runStore, newFakePRStore(), nil)

	runs, err := svc.ListRecentRuns(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	run, err := svc.GetRun(context.Background(), "run-2")
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, "second", run.Title)

	missing, err := svc.GetRun(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
