// Package dashboard implements the RunSource port against the agent
// dashboard's HTTP endpoints. The upstream structure drifts, so every field
// read is defensive: a missing or oddly typed field becomes a zero value,
// never an error for the whole item.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"agentlens/internal/domain/model"
	"agentlens/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.RunSource = (*Client)(nil)

// Client fetches run listings and details from the dashboard, authenticated
// with an opaque session credential sent as a cookie header.
type Client struct {
	http    *http.Client
	baseURL string
	session string
}

// NewClient creates a dashboard client for the given base URL. session is the
// opaque credential blob from the login flow; empty means unauthenticated.
func NewClient(baseURL, session string) *Client {
	return &Client{
		// Per-item deadline so one hung detail fetch cannot stall a pass.
		http:    &http.Client{Timeout: 20 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		session: session,
	}
}

// ListRefs fetches the run list view and returns one detail-reference token
// per listed item. Items without any usable reference are dropped here;
// duplicate tokens are left for the extraction pass to de-duplicate.
func (c *Client) ListRefs(ctx context.Context) ([]string, error) {
	payload, err := c.getJSON(ctx, c.baseURL+"/api/agents")
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	items := listItems(payload)

	refs := make([]string, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if ref := firstString(obj, "details_url", "url", "href"); ref != "" {
			refs = append(refs, ref)
			continue
		}
		if id := firstString(obj, "id"); id != "" {
			refs = append(refs, "/api/agents/"+id)
		}
	}

	return refs, nil
}

// FetchDetail loads one detail view and maps its fields onto a Run. The run's
// ID derives from the reference token's trailing path segment and may be
// empty; callers skip identity-less items.
func (c *Client) FetchDetail(ctx context.Context, ref string) (*model.Run, error) {
	detailURL := ref
	if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
		detailURL = c.baseURL + "/" + strings.TrimLeft(ref, "/")
	}

	payload, err := c.getJSON(ctx, detailURL)
	if err != nil {
		return nil, fmt.Errorf("fetch detail %s: %w", ref, err)
	}

	obj, ok := payload.(map[string]any)
	if !ok {
		obj = map[string]any{}
	}

	run := &model.Run{
		ID:         refID(ref),
		Title:      firstString(obj, "title", "name"),
		Prompt:     firstString(obj, "prompt", "task"),
		Status:     firstString(obj, "status", "state"),
		Repo:       firstString(obj, "repo", "repository"),
		Branch:     firstString(obj, "branch", "head_branch"),
		PRURL:      firstString(obj, "pr_url", "pull_request_url"),
		DetailsURL: ref,
		Raw:        obj,
	}

	if n, ok := optInt64(obj["duration_seconds"]); ok && n >= 0 {
		run.DurationSeconds = &n
	}

	// The first and last chronological markers on the detail view map to
	// created_at and updated_at. No ordering between them is validated; the
	// upstream may render markers newest-first for some items.
	markers := timeMarkers(obj)
	if len(markers) > 0 {
		run.CreatedAt = &markers[0]
		last := markers[len(markers)-1]
		run.UpdatedAt = &last
	}

	return run, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.session != "" {
		req.Header.Set("Cookie", c.session)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return payload, nil
}

// listItems accepts either a bare JSON array or an object wrapping one under
// a known key.
func listItems(payload any) []any {
	if items, ok := payload.([]any); ok {
		return items
	}

	obj, ok := payload.(map[string]any)
	if !ok {
		return nil
	}
	for _, key := range []string{"agents", "items", "runs"} {
		if items, ok := obj[key].([]any); ok {
			return items
		}
	}

	return nil
}

// refID derives the run identity from a reference token's trailing path
// segment. Empty when no segment can be derived.
func refID(ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) == 0 {
		return ""
	}

	last := segments[len(segments)-1]
	if last == "agents" || last == "api" {
		return ""
	}
	return last
}

// firstString returns the first present string-valued key.
func firstString(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := obj[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func optInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}

// timeMarkers collects the detail view's chronological markers in render
// order: an explicit timestamps array when present, otherwise the
// created_at/updated_at pair.
func timeMarkers(obj map[string]any) []time.Time {
	var markers []time.Time

	if raw, ok := obj["timestamps"].([]any); ok {
		for _, v := range raw {
			if s, ok := v.(string); ok {
				if t, err := parseTimestamp(s); err == nil {
					markers = append(markers, t)
				}
			}
		}
		if len(markers) > 0 {
			return markers
		}
	}

	for _, key := range []string{"created_at", "updated_at"} {
		if s, ok := obj[key].(string); ok {
			if t, err := parseTimestamp(s); err == nil {
				markers = append(markers, t)
			}
		}
	}

	return markers
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
