// Copyright (c) 2025 Veil
// Licensed under the MIT License. See LICENSE file in the project root for details.

package profiler

import (
	"context"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"veil/engine/internal/errors"
	"veil/engine/internal/metadata"
)

// fakeDB answers the profiler's statements from canned per-column stats.
type fakeDB struct {
	columns []fakeColumn
	rows    int64
}

type fakeColumn struct {
	name       string
	nativeType string
	lower      *float64
	upper      *float64
	ndistinct  int64
	nonNull    int64
}

func f64(v float64) *float64 { return &v }

func (db *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if !strings.Contains(sql, "information_schema.columns") {
		return nil, nil
	}
	rows := make([][]any, 0, len(db.columns))
	for _, c := range db.columns {
		rows = append(rows, []any{c.name, c.nativeType})
	}
	return &fakeRows{rows: rows}, nil
}

func (db *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if strings.Contains(sql, "count(*)") {
		return &fakeRow{values: []any{db.rows}}
	}
	for _, c := range db.columns {
		if !strings.Contains(sql, `"`+c.name+`"`) {
			continue
		}
		if strings.Contains(sql, "min(") {
			return &fakeRow{values: []any{c.lower, c.upper, c.ndistinct, c.nonNull}}
		}
		return &fakeRow{values: []any{c.ndistinct, c.nonNull}}
	}
	return &fakeRow{err: pgx.ErrNoRows}
}

type fakeRows struct {
	rows [][]any
	idx  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}
func (r *fakeRows) Scan(dest ...any) error { return assign(r.rows[r.idx-1], dest) }
func (r *fakeRows) Values() ([]any, error) { return r.rows[r.idx-1], nil }
func (r *fakeRows) RawValues() [][]byte    { return nil }
func (r *fakeRows) Conn() *pgx.Conn        { return nil }

type fakeRow struct {
	values []any
	err    error
}

func (r *fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(r.values, dest)
}

func assign(values []any, dest []any) error {
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = values[i].(string)
		case *int64:
			*p = values[i].(int64)
		case **float64:
			if v, ok := values[i].(*float64); ok {
				*p = v
			} else {
				*p = nil
			}
		}
	}
	return nil
}

func demoDB() *fakeDB {
	return &fakeDB{
		columns: []fakeColumn{
			{name: "age", nativeType: "integer", lower: f64(0), upper: f64(95), ndistinct: 96, nonNull: 998},
			{name: "income", nativeType: "double precision", lower: f64(0), upper: f64(250000.5), ndistinct: 412, nonNull: 1000},
			{name: "state", nativeType: "character varying", ndistinct: 51, nonNull: 1000},
			{name: "active", nativeType: "boolean", ndistinct: 2, nonNull: 990},
			{name: "recid", nativeType: "bigint", lower: f64(1), upper: f64(1000), ndistinct: 1000, nonNull: 1000},
		},
		rows: 1000,
	}
}

func TestProfile(t *testing.T) {
	p := New(demoDB(), "puf")
	table, err := p.Profile(context.Background(), "puf", "puf_demo")
	if err != nil {
		t.Fatalf("Profile() error = %v", err)
	}

	if table.Name != "puf_demo" || table.Database != "puf" {
		t.Errorf("table identity = %s.%s, want puf.puf_demo", table.Database, table.Name)
	}
	if table.Rows != 1000 {
		t.Errorf("Rows = %d, want 1000 from the dedicated count query", table.Rows)
	}
	if table.CensorDims {
		t.Error("CensorDims = true, want false")
	}

	age := table.Columns["age"]
	if age.Type != metadata.TypeInt {
		t.Errorf("age.Type = %v, want int", age.Type)
	}
	if age.Cardinality == nil || *age.Cardinality != 96 {
		t.Errorf("age.Cardinality = %v, want 96 (distinct count under cutoff)", age.Cardinality)
	}
	if age.Lower == nil || *age.Lower != 0 || age.Upper == nil || *age.Upper != 95 {
		t.Errorf("age bounds = %v..%v, want 0..95", age.Lower, age.Upper)
	}

	income := table.Columns["income"]
	if income.Cardinality != nil {
		t.Errorf("income.Cardinality = %v, want absent (distinct count over cutoff)", income.Cardinality)
	}

	state := table.Columns["state"]
	if state.Type != metadata.TypeString {
		t.Errorf("state.Type = %v, want string", state.Type)
	}
	if state.Lower != nil || state.Upper != nil {
		t.Error("string column must not carry bounds")
	}
	// The coercion-to-string branch must never rename the column.
	if !table.HasColumn("state") {
		t.Error("column state lost its identity during type coercion")
	}

	recid := table.Columns["recid"]
	if recid.Type != metadata.TypeInt || !recid.PrivateID {
		t.Errorf("recid = %+v, want forced int private id", recid)
	}

	id, ok := table.PrivateIdentifier()
	if !ok || id != "recid" {
		t.Errorf("PrivateIdentifier() = %q, %v; want recid, true", id, ok)
	}
}

func TestProfileMissingTable(t *testing.T) {
	p := New(&fakeDB{}, "puf")
	_, err := p.Profile(context.Background(), "puf", "puf_gone")
	if err == nil {
		t.Fatal("expected error for missing table")
	}
	if kind := errors.KindOf(err); kind != errors.SchemaIntrospection {
		t.Errorf("error kind = %v, want %v", kind, errors.SchemaIntrospection)
	}
}

func TestCanonicalType(t *testing.T) {
	tests := []struct {
		nativeType string
		want       metadata.ColumnType
	}{
		{"smallint", metadata.TypeInt},
		{"integer", metadata.TypeInt},
		{"bigint", metadata.TypeInt},
		{"decimal", metadata.TypeFloat},
		{"numeric", metadata.TypeFloat},
		{"real", metadata.TypeFloat},
		{"double precision", metadata.TypeFloat},
		{"boolean", metadata.TypeBoolean},
		{"text", metadata.TypeString},
		{"character varying", metadata.TypeString},
		{"timestamp without time zone", metadata.TypeString},
	}

	for _, tt := range tests {
		t.Run(tt.nativeType, func(t *testing.T) {
			if got := CanonicalType(tt.nativeType); got != tt.want {
				t.Errorf("CanonicalType(%q) = %v, want %v", tt.nativeType, got, tt.want)
			}
		})
	}
}
