// Package github implements the GitHubClient port using the go-github library.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"agentlens/internal/domain/model"
	"agentlens/internal/domain/port/driven"
)

// maxSampledFiles bounds the file-change listing fetched per PR. changed_files
// on the PR itself stays authoritative; the listing is a sample for heuristics.
const maxSampledFiles = 100

// Compile-time interface satisfaction check.
var _ driven.GitHubClient = (*Client)(nil)

// Client implements the driven.GitHubClient port using the go-github library.
type Client struct {
	gh *gh.Client
}

// NewClient creates a new GitHub API client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client)
//
// An empty token is allowed; the client then works unauthenticated at the
// lower anonymous rate limits.
func NewClient(token string) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)

	client := gh.NewClient(rateLimitClient)
	if token != "" {
		client = client.WithAuthToken(token)
	}

	return &Client{gh: client}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) (*Client, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return &Client{gh: client}, nil
}

// FetchPR retrieves metadata for a single pull request and maps it to the
// domain model. GetXxx() helpers are used exclusively to avoid nil panics.
func (c *Client) FetchPR(ctx context.Context, owner, repo string, number int) (*model.PRMetadata, error) {
	pr, resp, err := c.gh.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return nil, fmt.Errorf("fetching PR %s/%s#%d: %w", owner, repo, number, err)
	}

	logRateLimit(resp, fmt.Sprintf("%s/%s/pr-detail", owner, repo), 0, 1)

	meta := &model.PRMetadata{
		Title:        pr.GetTitle(),
		Author:       pr.GetUser().GetLogin(),
		State:        pr.GetState(),
		HTMLURL:      pr.GetHTMLURL(),
		Draft:        pr.GetDraft(),
		Additions:    pr.GetAdditions(),
		Deletions:    pr.GetDeletions(),
		ChangedFiles: pr.GetChangedFiles(),
	}

	if t := pr.GetCreatedAt().Time; !t.IsZero() {
		t = t.UTC()
		meta.CreatedAt = &t
	}
	if t := pr.GetUpdatedAt().Time; !t.IsZero() {
		t = t.UTC()
		meta.UpdatedAt = &t
	}
	if t := pr.GetMergedAt().Time; !t.IsZero() {
		t = t.UTC()
		meta.MergedAt = &t
	}

	return meta, nil
}

// FetchFiles retrieves the PR's file-change listing, bounded to a single page
// of maxSampledFiles entries.
func (c *Client) FetchFiles(ctx context.Context, owner, repo string, number int) ([]model.FileDiff, error) {
	opts := &gh.ListOptions{PerPage: maxSampledFiles}

	files, resp, err := c.gh.PullRequests.ListFiles(ctx, owner, repo, number, opts)
	if err != nil {
		return nil, fmt.Errorf("listing files for %s/%s#%d: %w", owner, repo, number, err)
	}

	logRateLimit(resp, fmt.Sprintf("%s/%s/pr-files", owner, repo), 0, len(files))

	diffs := make([]model.FileDiff, 0, len(files))
	for _, f := range files {
		diffs = append(diffs, model.FileDiff{
			Path:      f.GetFilename(),
			Status:    f.GetStatus(),
			Additions: f.GetAdditions(),
			Deletions: f.GetDeletions(),
		})
	}

	return diffs, nil
}

// FetchReviewCount returns the number of submitted reviews on a pull request.
// It handles pagination automatically.
func (c *Client) FetchReviewCount(ctx context.Context, owner, repo string, number int) (int, error) {
	opts := &gh.ListOptions{PerPage: 100}
	count := 0

	for {
		reviews, resp, err := c.gh.PullRequests.ListReviews(ctx, owner, repo, number, opts)
		if err != nil {
			return 0, fmt.Errorf("listing reviews for %s/%s#%d (page %d): %w", owner, repo, number, opts.Page, err)
		}

		count += len(reviews)

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return count, nil
}

// logRateLimit logs the GitHub API rate limit status after each call.
func logRateLimit(resp *gh.Response, endpoint string, page, count int) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"page", page,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Remaining < 100 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}
