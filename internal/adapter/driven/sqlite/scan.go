package sqlite

import "time"

// nullIfEmpty maps an absent optional string to NULL so that COALESCE-based
// recency ordering is not confused by empty strings.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// timeValue formats an optional timestamp for storage, NULL when absent.
func timeValue(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

// int64Value stores an optional integer, NULL when absent.
func int64Value(n *int64) any {
	if n == nil {
		return nil
	}
	return *n
}

// boolValue stores a boolean as the 0/1 integer convention.
func boolValue(b bool) any {
	if b {
		return int64(1)
	}
	return int64(0)
}
