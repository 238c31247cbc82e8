package model

// PRState represents the state of a pull request.
type PRState string

const (
	PRStateOpen   PRState = "open"
	PRStateClosed PRState = "closed"
	PRStateMerged PRState = "merged"
)

// CIStatus represents the aggregate CI state of a pull request head.
// The enricher currently always produces CIStatusUnknown; a commit-SHA-keyed
// status lookup is a declared extension point, not implemented.
type CIStatus string

const (
	CIStatusSuccess CIStatus = "success"
	CIStatusFailure CIStatus = "failure"
	CIStatusPending CIStatus = "pending"
	CIStatusUnknown CIStatus = "unknown"
)
