package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// queryMaps runs a query and returns each row as a column-name keyed map.
// Reads stay tolerant of externally extended or trimmed schemas the same way
// writes do: unknown columns are carried along, missing ones read as absent.
func queryMaps(ctx context.Context, db *sql.DB, query string, args ...any) ([]map[string]any, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		m := make(map[string]any, len(cols))
		for i, name := range cols {
			m[name] = values[i]
		}
		out = append(out, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return out, nil
}

func rowString(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}

func rowInt(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func rowInt64Ptr(m map[string]any, key string) *int64 {
	switch v := m[key].(type) {
	case int64:
		return &v
	case float64:
		n := int64(v)
		return &n
	default:
		return nil
	}
}

func rowFloat(m map[string]any, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	default:
		return 0
	}
}

func rowBool(m map[string]any, key string) bool {
	switch v := m[key].(type) {
	case int64:
		return v != 0
	case bool:
		return v
	default:
		return false
	}
}

func rowTimePtr(m map[string]any, key string) *time.Time {
	raw := rowString(m, key)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}
