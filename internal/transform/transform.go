// Copyright (c) 2025 Veil
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package transform runs a researcher's transformation query against the
// database. The transformed table is dropped and recreated inside a single
// transaction so a failed recreate never leaves the table missing.
package transform

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"veil/engine/internal/tablename"
)

// DB is the subset of pgxpool.Pool the transformation step needs.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Run executes the transformation query. The target table is extracted from
// the query text via the schema prefix; any previous version of it is dropped
// first. Both statements commit together or not at all.
func Run(ctx context.Context, db DB, schemaPrefix, transformationQuery string) error {
	table, err := tablename.Extract(transformationQuery, schemaPrefix)
	if err != nil {
		return fmt.Errorf("transformation query: %w", err)
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transformation transaction: %w", err)
	}
	defer tx.Rollback(ctx) // no-op after commit

	if _, err := tx.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
		return fmt.Errorf("failed to drop %s: %w", table, err)
	}
	if _, err := tx.Exec(ctx, transformationQuery); err != nil {
		return fmt.Errorf("transformation of %s failed: %w", table, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transformation of %s: %w", table, err)
	}
	return nil
}
