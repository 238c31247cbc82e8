package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentlens/internal/domain/model"
)

func makePR(number int, updatedAt time.Time) model.PR {
	created := updatedAt.Add(-24 * time.Hour)
	return model.PR{
		ID:            model.PRID("octocat", "hello-world", number),
		Owner:         "octocat",
		Repo:          "hello-world",
		Number:        number,
		Title:         "Add retry to login flow",
		Author:        "agent-bot",
		State:         model.PRStateOpen,
		HTMLURL:       "https://github.com/octocat/hello-world/pull/7",
		CreatedAt:     &created,
		UpdatedAt:     &updatedAt,
		Additions:     120,
		Deletions:     30,
		ChangedFiles:  4,
		ReviewCount:   1,
		CIStatus:      model.CIStatusUnknown,
		HasTests:      true,
		DocTouchRatio: 0.25,
		DiffStats: []model.FileDiff{
			{Path: "auth/login.go", Status: "modified", Additions: 80, Deletions: 20},
			{Path: "auth/login_test.go", Status: "added", Additions: 40, Deletions: 10},
		},
	}
}

func TestPRRepo_Upsert_Insert(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPRRepo(db)
	ctx := context.Background()

	pr := makePR(7, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Upsert(ctx, pr))

	got, err := repo.GetByID(ctx, "octocat/hello-world#7")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "octocat", got.Owner)
	assert.Equal(t, 7, got.Number)
	assert.Equal(t, model.PRStateOpen, got.State)
	assert.Equal(t, 120, got.Additions)
	assert.True(t, got.HasTests)
	assert.InDelta(t, 0.25, got.DocTouchRatio, 1e-9)
	require.Len(t, got.DiffStats, 2)
	assert.Equal(t, "auth/login.go", got.DiffStats[0].Path)
}

func TestPRRepo_Upsert_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPRRepo(db)
	ctx := context.Background()

	pr := makePR(7, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Upsert(ctx, pr))
	require.NoError(t, repo.Upsert(ctx, pr))

	assert.Equal(t, 1, countRows(t, db, "prs"))
}

func TestPRRepo_Upsert_OverwritesOnReenrich(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPRRepo(db)
	ctx := context.Background()

	pr := makePR(7, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Upsert(ctx, pr))

	merged := time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC)
	pr.State = model.PRStateMerged
	pr.MergedAt = &merged
	pr.ReviewCount = 3
	require.NoError(t, repo.Upsert(ctx, pr))

	got, err := repo.GetByID(ctx, pr.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.PRStateMerged, got.State)
	assert.Equal(t, 3, got.ReviewCount)
	require.NotNil(t, got.MergedAt)
	assert.Equal(t, 1, countRows(t, db, "prs"))
}

func TestPRRepo_Upsert_MissingID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPRRepo(db)

	err := repo.Upsert(context.Background(), model.PR{Owner: "octocat"})
	require.Error(t, err)
}

func TestPRRepo_CIStatusDefaultsToUnknown(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPRRepo(db)
	ctx := context.Background()

	pr := makePR(7, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	pr.CIStatus = ""
	require.NoError(t, repo.Upsert(ctx, pr))

	got, err := repo.GetByID(ctx, pr.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.CIStatusUnknown, got.CIStatus)
}

func TestPRRepo_ListRecent_Order(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPRRepo(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Upsert(ctx, makePR(1, base)))
	require.NoError(t, repo.Upsert(ctx, makePR(3, base.Add(2*time.Hour))))
	require.NoError(t, repo.Upsert(ctx, makePR(2, base.Add(time.Hour))))

	prs, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, prs, 3)
	assert.Equal(t, 3, prs[0].Number)
	assert.Equal(t, 2, prs[1].Number)
	assert.Equal(t, 1, prs[2].Number)
}

func TestPRRepo_ListRecent_Empty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPRRepo(db)

	prs, err := repo.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, prs)
}
