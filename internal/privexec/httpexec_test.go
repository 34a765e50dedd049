// Copyright (c) 2025 Veil
// Licensed under the MIT License. See LICENSE file in the project root for details.

package privexec

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"veil/engine/internal/errors"
	"veil/engine/internal/metadata"
)

func demoTable() *metadata.Table {
	lower, upper := 0.0, 95.0
	card := 96
	return &metadata.Table{
		Database:   "puf",
		Name:       "puf_demo",
		Rows:       1000,
		CensorDims: false,
		Columns: map[string]metadata.Column{
			"age":   {Type: metadata.TypeInt, Lower: &lower, Upper: &upper, Cardinality: &card},
			"recid": {Type: metadata.TypeInt, PrivateID: true},
		},
	}
}

func newExecutor(t *testing.T, srv *httptest.Server) Executor {
	t.Helper()
	exec, err := NewHTTPFactory(srv.URL)(context.Background(), "postgres://svc:pw@db:5432/puf", "puf")
	if err != nil {
		t.Fatalf("factory error = %v", err)
	}
	return exec
}

func TestHTTPExecutorPrivacyCost(t *testing.T) {
	var got costRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/privacy-cost" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		json.NewEncoder(w).Encode([]ColumnCost{
			{Column: "age", Epsilon: 1.0},
			{Column: "age", Epsilon: 1.0},
		})
	}))
	defer srv.Close()

	costs, err := newExecutor(t, srv).PrivacyCost(context.Background(), "SELECT age FROM puf.puf_demo", demoTable(), 1.0)
	if err != nil {
		t.Fatalf("PrivacyCost() error = %v", err)
	}
	if len(costs) != 2 {
		t.Fatalf("got %d costs, want 2", len(costs))
	}
	if got.Epsilon != 1.0 {
		t.Errorf("probe epsilon = %v, want 1.0", got.Epsilon)
	}
	if got.Query != "SELECT age FROM puf.puf_demo" {
		t.Errorf("query = %q", got.Query)
	}

	// The metadata document travels as the full snapshot shape.
	var doc map[string]map[string]map[string]any
	if err := json.Unmarshal(got.Metadata, &doc); err != nil {
		t.Fatalf("metadata is not a snapshot document: %v", err)
	}
	if _, ok := doc["Database"]["puf"]["puf_demo"]; !ok {
		t.Errorf("metadata document missing the table entry: %s", got.Metadata)
	}
}

func TestHTTPExecutorExecute(t *testing.T) {
	var got executeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/execute" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Write([]byte(`{
			"result":   {"columns": ["age", "n"], "rows": [[30, 211], [31, 198]]},
			"accuracy": {"columns": ["age", "n"], "rows": [[0.5, 4.1], [null, 3.9]]}
		}`))
	}))
	defer srv.Close()

	p := Privacy{Epsilon: 0.5, Delta: 1e-5, Alphas: []float64{0.05}}
	data, acc, err := newExecutor(t, srv).Execute(context.Background(), "SELECT age, count(*) AS n FROM puf.puf_demo GROUP BY age", demoTable(), p)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if got.Privacy.Epsilon != 0.5 || got.Privacy.Delta != 1e-5 {
		t.Errorf("privacy sent = %+v", got.Privacy)
	}
	if len(data.Rows) != 2 || data.Columns[1] != "n" {
		t.Errorf("result = %+v", data)
	}
	if acc.Rows[1][0] != nil {
		t.Error("null accuracy cell must decode to nil")
	}
	if acc.Rows[0][1] == nil || *acc.Rows[0][1] != 4.1 {
		t.Errorf("accuracy cell = %v, want 4.1", acc.Rows[0][1])
	}
}

func TestHTTPExecutorMechanismFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "malformed query near GROUP", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, _, err := newExecutor(t, srv).Execute(context.Background(), "SELECT nope", demoTable(), Privacy{Epsilon: 1})
	if err == nil {
		t.Fatal("expected error for a mechanism rejection")
	}
	if errors.KindOf(err) != errors.PrivateExecution {
		t.Errorf("kind = %q, want %q", errors.KindOf(err), errors.PrivateExecution)
	}
}
