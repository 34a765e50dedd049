// Copyright (c) 2025 Veil
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package metadata models the column-level statistical metadata that bounds the
// privacy mechanism. A Table is either decoded from a baseline snapshot document
// or regenerated by the profiler after a transformation; it never outlives one
// request handling.
package metadata

import (
	"fmt"
	"sort"
)

// ColumnType is one of the four canonical column types the mechanism understands.
type ColumnType string

const (
	TypeInt     ColumnType = "int"
	TypeFloat   ColumnType = "float"
	TypeBoolean ColumnType = "boolean"
	TypeString  ColumnType = "string"
)

// Column is the statistical shape of one table column.
type Column struct {
	Type ColumnType
	// Lower and Upper bound the column's values; set for numeric types only.
	Lower *float64
	Upper *float64
	// Cardinality is the distinct-value count, present only when it falls
	// under the categorical cutoff.
	Cardinality *int
	// PrivateID marks the single per-record identifier column.
	PrivateID bool
}

// Numeric reports whether the column carries bounds.
func (c Column) Numeric() bool {
	return c.Type == TypeInt || c.Type == TypeFloat
}

// Table is the metadata for one researcher table.
type Table struct {
	// Database is the database the table lives in.
	Database string
	// Name is the bare table name without the schema qualifier.
	Name string
	// Rows is the table's row count from one dedicated count query.
	Rows int64
	// CensorDims controls dimension censoring in the mechanism; always false
	// for this dataset.
	CensorDims bool
	Columns    map[string]Column
}

// ColumnNames returns the column names in sorted order.
func (t *Table) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for name := range t.Columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasColumn reports whether the table knows the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.Columns[name]
	return ok
}

// RequireColumns fails with a schema-mismatch error when any of the named
// columns is missing from the table metadata.
func (t *Table) RequireColumns(names []string) error {
	for _, name := range names {
		if !t.HasColumn(name) {
			return fmt.Errorf("column %q is not present in metadata for table %s", name, t.Name)
		}
	}
	return nil
}

// PrivateIdentifier returns the name of the private identifier column and
// whether exactly one exists.
func (t *Table) PrivateIdentifier() (string, bool) {
	found := ""
	count := 0
	for name, col := range t.Columns {
		if col.PrivateID {
			found = name
			count++
		}
	}
	return found, count == 1
}
