// Copyright (c) 2025 Veil
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package privexec defines the contract with the differentially private
// execution capability. The engine never implements the noise mechanism
// itself; it hands the mechanism a query, metadata bounding every column it
// may touch, and privacy parameters, and receives noised results plus an
// accuracy report back.
package privexec

import (
	"context"

	"veil/engine/internal/metadata"
)

// Privacy carries the mechanism-facing privacy parameters for one execution.
type Privacy struct {
	// Epsilon is the per-column budget, not the request total.
	Epsilon float64   `json:"epsilon"`
	Delta   float64   `json:"delta"`
	Alphas  []float64 `json:"alphas"`
}

// ColumnCost is one column-level privacy cost reported by a dry-run probe.
type ColumnCost struct {
	Column  string  `json:"column"`
	Epsilon float64 `json:"epsilon"`
}

// ResultSet is the noised query result.
type ResultSet struct {
	Columns []string
	Rows    [][]any
}

// Records renders the rows as column-keyed records, the shape the result is
// serialized in on the wire.
func (rs *ResultSet) Records() []map[string]any {
	records := make([]map[string]any, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		rec := make(map[string]any, len(rs.Columns))
		for i, col := range rs.Columns {
			if i < len(row) {
				rec[col] = row[i]
			}
		}
		records = append(records, rec)
	}
	return records
}

// AccuracyReport is the mechanism's primary accuracy table: per-cell interval
// half-widths at the requested confidence levels. Cells are nil where the
// mechanism reports no accuracy for a value.
type AccuracyReport struct {
	Columns []string
	Rows    [][]*float64
}

// Executor executes queries under differential privacy, bounded by the
// supplied metadata. Implementations must never be retried on failure:
// re-executing spends privacy budget again.
type Executor interface {
	// PrivacyCost probes the query at the given nominal per-column epsilon
	// and reports the column-level costs it would incur. The probe itself
	// spends no budget.
	PrivacyCost(ctx context.Context, query string, meta *metadata.Table, nominalEpsilon float64) ([]ColumnCost, error)

	// Execute runs the query under the given privacy parameters and returns
	// the noised result set together with its accuracy report.
	Execute(ctx context.Context, query string, meta *metadata.Table, p Privacy) (*ResultSet, *AccuracyReport, error)
}

// Factory builds one executor session per request handling. Sessions are not
// shared across handlings; each gets an independent resource set.
type Factory func(ctx context.Context, dsn, database string) (Executor, error)
