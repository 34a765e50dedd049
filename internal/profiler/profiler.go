// Copyright (c) 2025 Veil
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package profiler derives table metadata from a live PostgreSQL table.
// It queries information_schema for the column inventory, then issues one
// aggregate statement per column to learn bounds and distinct-value counts.
// The resulting metadata bounds the privacy mechanism's behavior, so every
// statement here reads the real table rather than trusting caller input.
package profiler

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"veil/engine/internal/errors"
	"veil/engine/internal/metadata"
)

// CardinalityCutoff is the distinct-value count under which a column is
// treated as a small enumerable set rather than continuous.
const CardinalityCutoff = 100

// IdentifierColumn is the designated per-record private identifier. It is
// always recorded as an int private id regardless of its native storage type.
const IdentifierColumn = "recid"

// DB is the subset of pgxpool.Pool the profiler needs.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Profiler introspects tables and produces column-level statistical metadata.
type Profiler struct {
	db DB
	// database names the database in the emitted snapshot document.
	database string
}

// New creates a Profiler over a database handle.
func New(db DB, database string) *Profiler {
	return &Profiler{db: db, database: database}
}

// Profile introspects schema.table and returns its metadata.
func (p *Profiler) Profile(ctx context.Context, schema, table string) (*metadata.Table, error) {
	cols, err := p.scanColumns(ctx, schema, table)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, errors.New(errors.SchemaIntrospection, fmt.Sprintf("table %s.%s does not exist or has no columns", schema, table))
	}

	t := &metadata.Table{
		Database:   p.database,
		Name:       table,
		CensorDims: false,
		Columns:    make(map[string]metadata.Column, len(cols)),
	}

	qualified := pgx.Identifier{schema, table}.Sanitize()
	for _, c := range cols {
		col, err := p.profileColumn(ctx, qualified, c)
		if err != nil {
			return nil, err
		}
		t.Columns[c.name] = col
	}

	// The identifier column is forced to an int private id regardless of
	// what the generic scan produced.
	t.Columns[IdentifierColumn] = metadata.Column{Type: metadata.TypeInt, PrivateID: true}

	rows, err := p.rowCount(ctx, qualified)
	if err != nil {
		return nil, err
	}
	t.Rows = rows

	return t, nil
}

// nativeColumn is one information_schema entry.
type nativeColumn struct {
	name       string
	nativeType string
}

// scanColumns enumerates the table's columns and native types.
func (p *Profiler) scanColumns(ctx context.Context, schema, table string) ([]nativeColumn, error) {
	const q = `
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`

	rows, err := p.db.Query(ctx, q, schema, table)
	if err != nil {
		return nil, errors.Wrap(errors.SchemaIntrospection, fmt.Sprintf("failed to enumerate columns of %s.%s", schema, table), err)
	}
	defer rows.Close()

	var cols []nativeColumn
	for rows.Next() {
		var c nativeColumn
		if err := rows.Scan(&c.name, &c.nativeType); err != nil {
			return nil, errors.Wrap(errors.SchemaIntrospection, "failed to scan column inventory", err)
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.SchemaIntrospection, "failed reading column inventory", err)
	}
	return cols, nil
}

// profileColumn runs the per-column aggregate statement and builds the
// column metadata. Bounds are collected for numeric columns only.
func (p *Profiler) profileColumn(ctx context.Context, qualifiedTable string, c nativeColumn) (metadata.Column, error) {
	col := metadata.Column{Type: CanonicalType(c.nativeType)}
	ident := pgx.Identifier{c.name}.Sanitize()

	var (
		lower, upper       *float64
		ndistinct, nonNull int64
	)
	if col.Numeric() {
		q := fmt.Sprintf(`
			SELECT
				min(%[1]s)::double precision,
				max(%[1]s)::double precision,
				count(distinct(%[1]s)),
				count(%[1]s)
			FROM %[2]s`, ident, qualifiedTable)
		if err := p.db.QueryRow(ctx, q).Scan(&lower, &upper, &ndistinct, &nonNull); err != nil {
			return col, errors.Wrap(errors.SchemaIntrospection, fmt.Sprintf("statistics query for column %s failed", c.name), err)
		}
		col.Lower = lower
		col.Upper = upper
	} else {
		q := fmt.Sprintf(`
			SELECT
				count(distinct(%[1]s)),
				count(%[1]s)
			FROM %[2]s`, ident, qualifiedTable)
		if err := p.db.QueryRow(ctx, q).Scan(&ndistinct, &nonNull); err != nil {
			return col, errors.Wrap(errors.SchemaIntrospection, fmt.Sprintf("statistics query for column %s failed", c.name), err)
		}
	}

	if ndistinct < CardinalityCutoff {
		n := int(ndistinct)
		col.Cardinality = &n
	}
	return col, nil
}

// rowCount computes the table's row count with one dedicated query.
func (p *Profiler) rowCount(ctx context.Context, qualifiedTable string) (int64, error) {
	var n int64
	q := fmt.Sprintf("SELECT count(*) FROM %s", qualifiedTable)
	if err := p.db.QueryRow(ctx, q).Scan(&n); err != nil {
		return 0, errors.Wrap(errors.SchemaIntrospection, "row count query failed", err)
	}
	return n, nil
}

// CanonicalType maps a PostgreSQL native type to one of the four canonical
// metadata types. Anything not recognized as numeric or boolean is a string;
// the column keeps its own name either way.
func CanonicalType(nativeType string) metadata.ColumnType {
	switch nativeType {
	case "smallint", "integer", "bigint":
		return metadata.TypeInt
	case "decimal", "numeric", "real", "double precision":
		return metadata.TypeFloat
	case "boolean":
		return metadata.TypeBoolean
	default:
		return metadata.TypeString
	}
}
