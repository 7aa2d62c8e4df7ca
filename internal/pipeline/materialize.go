//-------------------------------------------------------------------------
//
// pgEdge Mart Generator
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package pipeline

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// buildSuffix names the table a stage builds into before the swap.
const buildSuffix = "__build"

// Materialize writes rows into schema.table with replace-on-success
// semantics: the rows are copied into a build table inside a single
// transaction, and the previous table is only dropped and replaced
// once the copy succeeds. Any failure rolls the transaction back,
// leaving the prior table visible.
//
// ddl must be a CREATE TABLE template with one %s placeholder for the
// qualified table name.
func Materialize(ctx context.Context, pool *pgxpool.Pool, schema, table, ddl string,
	columns []string, rows [][]any) (int64, error) {

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	buildTable := table + buildSuffix

	if _, err := tx.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)); err != nil {
		return 0, fmt.Errorf("failed to create schema %s: %w", schema, err)
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s.%s", schema, buildTable)); err != nil {
		return 0, fmt.Errorf("failed to drop stale build table: %w", err)
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf(ddl, schema+"."+buildTable)); err != nil {
		return 0, fmt.Errorf("failed to create build table: %w", err)
	}

	copied, err := tx.CopyFrom(ctx,
		pgx.Identifier{schema, buildTable},
		columns,
		pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("failed to copy rows into %s.%s: %w", schema, buildTable, err)
	}

	if _, err := tx.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s.%s", schema, table)); err != nil {
		return 0, fmt.Errorf("failed to drop previous table: %w", err)
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf("ALTER TABLE %s.%s RENAME TO %s", schema, buildTable, table)); err != nil {
		return 0, fmt.Errorf("failed to rename build table: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit materialization: %w", err)
	}

	return copied, nil
}
