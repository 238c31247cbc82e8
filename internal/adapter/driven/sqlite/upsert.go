package sqlite

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// upsertIntersect writes record into table as a single INSERT ... ON CONFLICT
// statement, restricted to the columns that actually exist on the table.
// Fields without a matching column are silently dropped; a schema that lacks
// the primary key column is an incompatible configuration and fails loudly.
//
// The whole upsert is one statement, so a row is never observed with some
// columns from the new write and some from the old one.
func upsertIntersect(ctx context.Context, db *DB, table, pk string, record map[string]any) error {
	allowed, err := db.Columns(ctx, table)
	if err != nil {
		return err
	}

	if !allowed[pk] {
		return fmt.Errorf("schema for table %s is missing primary key column %s: incompatible schema artifact", table, pk)
	}
	if _, ok := record[pk]; !ok {
		return fmt.Errorf("record for table %s has no %s value", table, pk)
	}

	cols := make([]string, 0, len(record))
	for name := range record {
		if allowed[name] {
			cols = append(cols, name)
		}
	}
	sort.Strings(cols)

	args := make([]any, 0, len(cols))
	updates := make([]string, 0, len(cols))
	for _, name := range cols {
		args = append(args, record[name])
		if name != pk {
			updates = append(updates, fmt.Sprintf("%s = excluded.%s", name, name))
		}
	}

	var query string
	if len(updates) == 0 {
		query = fmt.Sprintf(
			"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(%s) DO NOTHING",
			table, strings.Join(cols, ", "), placeholders(len(cols)), pk,
		)
	} else {
		query = fmt.Sprintf(
			"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(%s) DO UPDATE SET %s",
			table, strings.Join(cols, ", "), placeholders(len(cols)), pk, strings.Join(updates, ", "),
		)
	}

	if _, err := db.Writer.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert into %s: %w", table, err)
	}

	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
