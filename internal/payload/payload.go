// Copyright (c) 2025 Veil
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package payload shapes query results and failures into the wire payload
// posted back to the validation API.
//
// The result and accuracy fields are JSON documents carried as strings inside
// the outer payload. Consumers decode the outer payload first and then decode
// those fields separately, so the nesting is part of the wire contract.
package payload

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"

	"veil/engine/internal/privexec"
	"veil/engine/internal/request"
)

// Quantiles reported for the accuracy intervals of a successful run.
var Quantiles = []float64{0.10, 0.50, 0.90}

// ResultPayload is the outbound payload for one handled request. Result and
// Accuracy hold JSON text, not nested structures.
type ResultPayload struct {
	CommandID         int     `json:"command_id"`
	RunID             int     `json:"run_id"`
	ResearcherID      string  `json:"researcher_id"`
	PrivacyBudgetUsed float64 `json:"privacy_budget_used"`
	Result            string  `json:"result"`
	Accuracy          string  `json:"accuracy"`
}

// FormValues renders the payload as the form fields the API expects.
func (p *ResultPayload) FormValues() url.Values {
	return url.Values{
		"command_id":          {strconv.Itoa(p.CommandID)},
		"run_id":              {strconv.Itoa(p.RunID)},
		"researcher_id":       {p.ResearcherID},
		"privacy_budget_used": {strconv.FormatFloat(p.PrivacyBudgetUsed, 'g', -1, 64)},
		"result":              {p.Result},
		"accuracy":            {p.Accuracy},
	}
}

type quantileRecord struct {
	Quantiles float64 `json:"quantiles"`
	Accuracy  float64 `json:"accuracy"`
}

// Format builds the success payload for a completed private execution.
func Format(req *request.Request, data *privexec.ResultSet, acc *privexec.AccuracyReport) (*ResultPayload, error) {
	values := pruneAccuracy(acc)
	if len(values) == 0 {
		return nil, fmt.Errorf("accuracy report has no complete rows")
	}

	records := make([]quantileRecord, len(Quantiles))
	for i, q := range Quantiles {
		records[i] = quantileRecord{Quantiles: q, Accuracy: quantile(values, q)}
	}
	accuracyDoc, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encoding accuracy report: %w", err)
	}
	// The accuracy field carries the document twice encoded: the record array
	// is serialized to text, and that text is serialized again as a JSON
	// string. The API decodes both layers.
	accuracyField, err := json.Marshal(string(accuracyDoc))
	if err != nil {
		return nil, fmt.Errorf("encoding accuracy field: %w", err)
	}

	rows, err := json.Marshal(data.Records())
	if err != nil {
		return nil, fmt.Errorf("encoding result rows: %w", err)
	}
	resultField, err := json.Marshal(map[string]any{
		"ok":   true,
		"data": string(rows),
	})
	if err != nil {
		return nil, fmt.Errorf("encoding result field: %w", err)
	}

	return &ResultPayload{
		CommandID:         req.CommandID,
		RunID:             req.RunID,
		ResearcherID:      req.ResearcherID,
		PrivacyBudgetUsed: float64(req.Epsilon),
		Result:            string(resultField),
		Accuracy:          string(accuracyField),
	}, nil
}

// FormatError builds the failure payload. The shape matches the success path
// except for the result body and an empty accuracy document, so the API can
// decode both uniformly.
func FormatError(req *request.Request, failure error) *ResultPayload {
	resultField, _ := json.Marshal(map[string]any{
		"ok":    false,
		"error": failure.Error(),
	})
	return &ResultPayload{
		CommandID:         req.CommandID,
		RunID:             req.RunID,
		ResearcherID:      req.ResearcherID,
		PrivacyBudgetUsed: float64(req.Epsilon),
		Result:            string(resultField),
		Accuracy:          "{}",
	}
}

// pruneAccuracy flattens the report to the values that survive pruning:
// columns with no values at all are dropped first, then any row still missing
// a value is dropped whole.
func pruneAccuracy(acc *privexec.AccuracyReport) []float64 {
	if acc == nil {
		return nil
	}

	keep := make([]int, 0, len(acc.Columns))
	for c := range acc.Columns {
		for _, row := range acc.Rows {
			if c < len(row) && row[c] != nil {
				keep = append(keep, c)
				break
			}
		}
	}

	var values []float64
	for _, row := range acc.Rows {
		complete := true
		for _, c := range keep {
			if c >= len(row) || row[c] == nil {
				complete = false
				break
			}
		}
		if !complete {
			continue
		}
		for _, c := range keep {
			values = append(values, *row[c])
		}
	}
	return values
}

// quantile computes the q-th quantile of values with linear interpolation
// between the two nearest order statistics.
func quantile(values []float64, q float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
