package engine

import (
	"context"
	"database/sql"
	"fmt"

	"db-cloak/internal/dialect"
)

// Replicate clones a table's structure from source to destination by
// replaying the source CREATE TABLE statement. A same-named destination
// table is dropped first; replaced reports whether that happened so the
// caller can surface it. Contents are never touched here.
func Replicate(ctx context.Context, dst *sql.DB, d dialect.Dialect, dstSchema, table, createSQL string) (replaced bool, err error) {
	var count int
	if err := dst.QueryRowContext(ctx, d.TableExistsQuery(), dstSchema, table).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check destination table %s: %w", table, err)
	}
	replaced = count > 0

	if _, err := dst.ExecContext(ctx, d.DropTableQuery(table)); err != nil {
		return replaced, fmt.Errorf("failed to drop destination table %s: %w", table, err)
	}
	if _, err := dst.ExecContext(ctx, createSQL); err != nil {
		return replaced, fmt.Errorf("failed to create destination table %s: %w", table, err)
	}
	return replaced, nil
}
