package model

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// PR represents an external pull request associated with zero or more runs,
// enriched from the hosting platform's API.
type PR struct {
	ID            string // owner/repo#number
	Owner         string
	Repo          string
	Number        int
	Title         string
	Author        string
	State         PRState
	HTMLURL       string
	CreatedAt     *time.Time
	UpdatedAt     *time.Time
	MergedAt      *time.Time
	Additions     int
	Deletions     int
	ChangedFiles  int
	Draft         bool
	ReviewCount   int
	CIStatus      CIStatus
	HasTests      bool
	DocTouchRatio float64 // always in [0, 1]

	// DiffStats is a bounded sample of file-level diffs, cached at enrichment
	// time. Persisted as a JSON text column.
	DiffStats []FileDiff
}

// FileDiff is one sampled file-level change from a pull request.
type FileDiff struct {
	Path      string `json:"path"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// Churn returns the total line churn of the pull request.
func (pr PR) Churn() int {
	return pr.Additions + pr.Deletions
}

// PRID formats the canonical pull request identity "owner/repo#number".
func PRID(owner, repo string, number int) string {
	return fmt.Sprintf("%s/%s#%d", owner, repo, number)
}

var prURLPattern = regexp.MustCompile(`^https?://[^/]+/([^/]+)/([^/]+)/pull/(\d+)`)

// ParsePRURL extracts (owner, repo, number) from a pull request URL of the
// form https://<host>/<owner>/<repo>/pull/<number>. ok is false for any
// non-matching input; many runs have no PR yet, so this is not an error.
func ParsePRURL(rawURL string) (owner, repo string, number int, ok bool) {
	m := prURLPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return "", "", 0, false
	}

	number, err := strconv.Atoi(m[3])
	if err != nil {
		return "", "", 0, false
	}

	return m[1], m[2], number, true
}

// PRMetadata is the raw per-PR metadata fetched from the repository API,
// before derivation of heuristic fields.
type PRMetadata struct {
	Title        string
	Author       string
	State        string // API state: "open" or "closed"
	HTMLURL      string
	Draft        bool
	CreatedAt    *time.Time
	UpdatedAt    *time.Time
	MergedAt     *time.Time
	Additions    int
	Deletions    int
	ChangedFiles int
}
