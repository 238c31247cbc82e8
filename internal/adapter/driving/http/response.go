package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"agentlens/internal/application"
	"agentlens/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// RunResponse is the JSON representation of an extracted run.
type RunResponse struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Prompt          string `json:"prompt,omitempty"`
	Status          string `json:"status"`
	Repo            string `json:"repo"`
	Branch          string `json:"branch"`
	CreatedAt       string `json:"created_at,omitempty"`
	UpdatedAt       string `json:"updated_at,omitempty"`
	DurationSeconds *int64 `json:"duration_seconds,omitempty"`
	PRURL           string `json:"pr_url,omitempty"`
	DetailsURL      string `json:"details_url,omitempty"`

	// Raw is the unmodified upstream detail payload.
	Raw map[string]any `json:"raw,omitempty"`
}

// PRResponse is the JSON representation of an enriched pull request.
type PRResponse struct {
	ID            string  `json:"id"`
	Owner         string  `json:"owner"`
	Repo          string  `json:"repo"`
	Number        int     `json:"number"`
	Title         string  `json:"title"`
	Author        string  `json:"author"`
	State         string  `json:"state"`
	URL           string  `json:"url"`
	CreatedAt     string  `json:"created_at,omitempty"`
	UpdatedAt     string  `json:"updated_at,omitempty"`
	MergedAt      string  `json:"merged_at,omitempty"`
	Additions     int     `json:"additions"`
	Deletions     int     `json:"deletions"`
	ChangedFiles  int     `json:"changed_files"`
	Draft         bool    `json:"draft"`
	ReviewCount   int     `json:"review_count"`
	CIStatus      string  `json:"ci_status"`
	HasTests      bool    `json:"has_tests"`
	DocTouchRatio float64 `json:"doc_touch_ratio"`
}

// ScoreResponse is the JSON representation of a score vector.
type ScoreResponse struct {
	CodeQuality float64 `json:"code_quality"`
	Verbosity   float64 `json:"verbosity"`
	Efficiency  float64 `json:"efficiency"`
	Stability   float64 `json:"stability"`
	Robustness  float64 `json:"robustness"`
	CleanCode   float64 `json:"clean_code"`
	Reusability float64 `json:"reusability"`
	Ingenuity   float64 `json:"ingenuity"`
	Attention   float64 `json:"attention"`
}

// RankedPRResponse is one entry of the ranked review.
type RankedPRResponse struct {
	PR        PRResponse    `json:"pr"`
	Scores    ScoreResponse `json:"scores"`
	NextSteps []string      `json:"next_steps"`
}

// ReviewResponse is the JSON representation of the ranked review endpoint.
type ReviewResponse struct {
	Ranked      []RankedPRResponse `json:"ranked"`
	RoadmapHint string             `json:"roadmap_hint"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// toRunResponse converts a domain Run to its JSON response representation.
func toRunResponse(run model.Run) RunResponse {
	return RunResponse{
		ID:              run.ID,
		Title:           run.Title,
		Prompt:          run.Prompt,
		Status:          run.Status,
		Repo:            run.Repo,
		Branch:          run.Branch,
		CreatedAt:       formatTime(run.CreatedAt),
		UpdatedAt:       formatTime(run.UpdatedAt),
		DurationSeconds: run.DurationSeconds,
		PRURL:           run.PRURL,
		DetailsURL:      run.DetailsURL,
		Raw:             run.Raw,
	}
}

// toPRResponse converts a domain PR to its JSON response representation.
func toPRResponse(pr model.PR) PRResponse {
	return PRResponse{
		ID:            pr.ID,
		Owner:         pr.Owner,
		Repo:          pr.Repo,
		Number:        pr.Number,
		Title:         pr.Title,
		Author:        pr.Author,
		State:         string(pr.State),
		URL:           pr.HTMLURL,
		CreatedAt:     formatTime(pr.CreatedAt),
		UpdatedAt:     formatTime(pr.UpdatedAt),
		MergedAt:      formatTime(pr.MergedAt),
		Additions:     pr.Additions,
		Deletions:     pr.Deletions,
		ChangedFiles:  pr.ChangedFiles,
		Draft:         pr.Draft,
		ReviewCount:   pr.ReviewCount,
		CIStatus:      string(pr.CIStatus),
		HasTests:      pr.HasTests,
		DocTouchRatio: pr.DocTouchRatio,
	}
}

// toScoreResponse converts a domain ScoreVector to its JSON representation.
func toScoreResponse(s model.ScoreVector) ScoreResponse {
	return ScoreResponse{
		CodeQuality: s.CodeQuality,
		Verbosity:   s.Verbosity,
		Efficiency:  s.Efficiency,
		Stability:   s.Stability,
		Robustness:  s.Robustness,
		CleanCode:   s.CleanCode,
		Reusability: s.Reusability,
		Ingenuity:   s.Ingenuity,
		Attention:   s.Attention,
	}
}

// toReviewResponse converts an application ReviewReport to its JSON representation.
func toReviewResponse(report application.ReviewReport) ReviewResponse {
	ranked := make([]RankedPRResponse, 0, len(report.Ranked))
	for _, item := range report.Ranked {
		steps := item.NextSteps
		if steps == nil {
			steps = []string{}
		}
		ranked = append(ranked, RankedPRResponse{
			PR:        toPRResponse(item.PR),
			Scores:    toScoreResponse(item.Scores),
			NextSteps: steps,
		})
	}

	return ReviewResponse{
		Ranked:      ranked,
		RoadmapHint: report.RoadmapHint,
	}
}

// formatTime renders an optional timestamp as RFC 3339 UTC, empty when absent.
func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
