package model

import "time"

// Run represents one observed unit of autonomous agent work, extracted from
// the upstream dashboard. Every field except ID is optional: absent values
// stay at their zero value (or nil for pointers) and are never guessed.
type Run struct {
	ID              string
	Title           string
	Prompt          string
	Status          string
	Repo            string
	Branch          string
	CreatedAt       *time.Time
	UpdatedAt       *time.Time
	DurationSeconds *int64
	PRURL           string
	DetailsURL      string

	// Raw holds the unmodified detail payload for forward compatibility and
	// debugging. Persisted as a JSON text column.
	Raw map[string]any
}

// HasPR reports whether the run references a pull request.
func (r Run) HasPR() bool {
	return r.PRURL != ""
}
