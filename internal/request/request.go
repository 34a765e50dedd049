// Copyright (c) 2025 Veil
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package request defines the inbound query request event and its parsing rules.
// A request is immutable for the lifetime of one handling: every downstream
// stage reads from it, none mutates it.
package request

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Request is one researcher-submitted query event.
type Request struct {
	// AnalysisQuery is the SQL to answer under differential privacy.
	AnalysisQuery string `json:"analysis_query"`
	// TransformationQuery optionally rewrites the underlying table before
	// analysis. Empty means no transformation step.
	TransformationQuery string `json:"transformation_query"`
	CommandID           int    `json:"command_id"`
	RunID               int    `json:"run_id"`
	// ResearcherID is only present on confidential requests.
	ResearcherID string `json:"researcher_id,omitempty"`
	// Epsilon is the total privacy budget. The wire format allows both a
	// JSON number and a numeric string.
	Epsilon Epsilon `json:"epsilon"`
	// ConfidentialQuery routes the result to the confidential endpoint and
	// forbids destructive transformation.
	ConfidentialQuery bool `json:"confidential_query"`
	// Debug halts the pipeline before delivery, for local verification.
	Debug bool `json:"debug"`
}

// Epsilon is a privacy budget value that unmarshals from either a JSON
// number or a numeric string.
type Epsilon float64

func (e *Epsilon) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return fmt.Errorf("epsilon must not be null")
	}
	if len(s) >= 2 && s[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		s = strings.TrimSpace(str)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("epsilon %q is not numeric: %w", s, err)
	}
	*e = Epsilon(v)
	return nil
}

func (e Epsilon) MarshalJSON() ([]byte, error) {
	return json.Marshal(float64(e))
}

// Parse decodes and validates a request event.
func Parse(data []byte) (*Request, error) {
	var r Request
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("malformed request event: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Validate checks the fields every handleable request must carry.
// Epsilon is deliberately not range-checked here: a non-positive budget is a
// budget-allocation failure that must produce a delivered error payload, not
// an ingress rejection.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.AnalysisQuery) == "" {
		return fmt.Errorf("analysis_query is required")
	}
	if r.CommandID == 0 {
		return fmt.Errorf("command_id is required")
	}
	if r.RunID == 0 {
		return fmt.Errorf("run_id is required")
	}
	return nil
}

// HasTransformation reports whether a transformation step was requested.
func (r *Request) HasTransformation() bool {
	return strings.TrimSpace(r.TransformationQuery) != ""
}
