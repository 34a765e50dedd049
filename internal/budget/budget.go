// Copyright (c) 2025 Veil
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package budget splits a request's total privacy budget across the columns
// its query touches. The column-touch count depends on the query's internal
// structure (joins, aggregates), so instead of parsing SQL the allocator asks
// the execution capability for a dry-run privacy cost at a nominal epsilon
// and uses the number of reported column costs as the divisor.
package budget

import (
	"context"
	"fmt"
	"math"

	"veil/engine/internal/errors"
	"veil/engine/internal/metadata"
	"veil/engine/internal/privexec"
)

// NominalEpsilon is the per-column epsilon used for the cost probe. The probe
// only counts column accesses; the value itself is arbitrary but fixed.
const NominalEpsilon = 1.0

// DefaultDelta bounds the probability the epsilon guarantee is violated.
var DefaultDelta = 1.0 / (1000 * math.Sqrt(1000))

// DefaultAlphas are the confidence levels the accuracy report is computed at.
var DefaultAlphas = []float64{0.05}

// Budget is the privacy budget allocated to one query execution.
type Budget struct {
	// TotalEpsilon is the request's full budget.
	TotalEpsilon float64
	Delta        float64
	Alphas       []float64
	// ColumnAccesses is the divisor derived from the cost probe.
	ColumnAccesses int
	// EpsilonPerColumn is TotalEpsilon split evenly across the accesses.
	EpsilonPerColumn float64
}

// Privacy returns the mechanism-facing parameters for this budget.
func (b Budget) Privacy() privexec.Privacy {
	return privexec.Privacy{
		Epsilon: b.EpsilonPerColumn,
		Delta:   b.Delta,
		Alphas:  b.Alphas,
	}
}

// Allocate derives the per-column epsilon for a query. It fails when the
// total budget is not positive, when the cost probe reports zero column
// accesses (nothing to divide the budget across), or when the probe names a
// column the table metadata does not know.
func Allocate(ctx context.Context, exec privexec.Executor, meta *metadata.Table, query string, totalEpsilon float64) (Budget, error) {
	if totalEpsilon <= 0 {
		return Budget{}, errors.New(errors.BudgetAllocation, fmt.Sprintf("total epsilon must be positive, got %g", totalEpsilon))
	}

	costs, err := exec.PrivacyCost(ctx, query, meta, NominalEpsilon)
	if err != nil {
		return Budget{}, errors.Wrap(errors.BudgetAllocation, "privacy cost probe failed", err)
	}
	multiplier := len(costs)
	if multiplier == 0 {
		return Budget{}, errors.New(errors.BudgetAllocation, "query touches no privacy-relevant columns")
	}

	names := make([]string, 0, len(costs))
	seen := make(map[string]struct{}, len(costs))
	for _, c := range costs {
		if c.Column == "" {
			continue
		}
		if _, ok := seen[c.Column]; ok {
			continue
		}
		seen[c.Column] = struct{}{}
		names = append(names, c.Column)
	}
	if err := meta.RequireColumns(names); err != nil {
		return Budget{}, errors.Wrap(errors.BudgetAllocation, "cost probe reported a column missing from metadata", err)
	}

	return Budget{
		TotalEpsilon:     totalEpsilon,
		Delta:            DefaultDelta,
		Alphas:           DefaultAlphas,
		ColumnAccesses:   multiplier,
		EpsilonPerColumn: totalEpsilon / float64(multiplier),
	}, nil
}
