// Copyright (c) 2025 Veil
// Licensed under the MIT License. See LICENSE file in the project root for details.

package privexec

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"veil/engine/internal/errors"
	"veil/engine/internal/metadata"
)

// HTTPExecutor consumes the privacy mechanism as a REST service. The service
// owns the noise math; this client ships it the query, the metadata document
// and the connection it should read through.
type HTTPExecutor struct {
	baseURL  string
	conn     string
	database string
	client   *http.Client
}

// NewHTTPFactory returns a Factory producing executors bound to the mechanism
// service at baseURL.
func NewHTTPFactory(baseURL string) Factory {
	return func(ctx context.Context, conn, database string) (Executor, error) {
		return &HTTPExecutor{
			baseURL:  strings.TrimRight(baseURL, "/"),
			conn:     conn,
			database: database,
			client:   &http.Client{Timeout: 120 * time.Second},
		}, nil
	}
}

type costRequest struct {
	Query    string          `json:"query"`
	Metadata json.RawMessage `json:"metadata"`
	Epsilon  float64         `json:"epsilon"`
	DSN      string          `json:"dsn"`
	Database string          `json:"database"`
}

type executeRequest struct {
	Query    string          `json:"query"`
	Metadata json.RawMessage `json:"metadata"`
	Privacy  Privacy         `json:"privacy"`
	DSN      string          `json:"dsn"`
	Database string          `json:"database"`
}

type executeResponse struct {
	Result struct {
		Columns []string `json:"columns"`
		Rows    [][]any  `json:"rows"`
	} `json:"result"`
	Accuracy struct {
		Columns []string     `json:"columns"`
		Rows    [][]*float64 `json:"rows"`
	} `json:"accuracy"`
}

// PrivacyCost asks the mechanism service what a query would cost at the given
// nominal per-column epsilon, without spending any budget.
func (e *HTTPExecutor) PrivacyCost(ctx context.Context, query string, meta *metadata.Table, nominalEpsilon float64) ([]ColumnCost, error) {
	doc, err := metadata.EncodeJSON(meta)
	if err != nil {
		return nil, errors.Wrap(errors.PrivateExecution, "encoding metadata document", err)
	}
	body := costRequest{
		Query:    query,
		Metadata: json.RawMessage(doc),
		Epsilon:  nominalEpsilon,
		DSN:      e.conn,
		Database: e.database,
	}

	var costs []ColumnCost
	if err := e.post(ctx, "/privacy-cost", body, &costs); err != nil {
		return nil, err
	}
	return costs, nil
}

// Execute runs the query under the given privacy parameters and returns the
// noised result set and its accuracy report.
func (e *HTTPExecutor) Execute(ctx context.Context, query string, meta *metadata.Table, p Privacy) (*ResultSet, *AccuracyReport, error) {
	doc, err := metadata.EncodeJSON(meta)
	if err != nil {
		return nil, nil, errors.Wrap(errors.PrivateExecution, "encoding metadata document", err)
	}
	body := executeRequest{
		Query:    query,
		Metadata: json.RawMessage(doc),
		Privacy:  p,
		DSN:      e.conn,
		Database: e.database,
	}

	var resp executeResponse
	if err := e.post(ctx, "/execute", body, &resp); err != nil {
		return nil, nil, err
	}
	data := &ResultSet{Columns: resp.Result.Columns, Rows: resp.Result.Rows}
	acc := &AccuracyReport{Columns: resp.Accuracy.Columns, Rows: resp.Accuracy.Rows}
	return data, acc, nil
}

func (e *HTTPExecutor) post(ctx context.Context, endpoint string, body, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(errors.PrivateExecution, "encoding mechanism request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+endpoint, bytes.NewReader(encoded))
	if err != nil {
		return errors.Wrap(errors.PrivateExecution, "building mechanism request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return errors.Wrap(errors.PrivateExecution, "calling privacy mechanism", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := fmt.Sprintf("mechanism returned status %d", resp.StatusCode)
		if s := strings.TrimSpace(string(detail)); s != "" {
			msg = fmt.Sprintf("%s: %s", msg, s)
		}
		return errors.New(errors.PrivateExecution, msg)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(errors.PrivateExecution, "decoding mechanism response", err)
	}
	return nil
}
