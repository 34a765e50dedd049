// Copyright (c) 2025 Veil
// Licensed under the MIT License. See LICENSE file in the project root for details.

package tablename

import (
	"testing"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		prefix      string
		want        string
		expectError bool
	}{
		{
			name:   "simple select",
			query:  "SELECT age FROM puf.puf_demo",
			prefix: "puf.puf_",
			want:   "puf.puf_demo",
		},
		{
			name:   "trailing semicolon",
			query:  "SELECT age FROM puf.puf_demo;",
			prefix: "puf.puf_",
			want:   "puf.puf_demo",
		},
		{
			name:   "first reference wins",
			query:  "SELECT * INTO puf.puf_demo_v2 FROM puf.puf_demo",
			prefix: "puf.puf_",
			want:   "puf.puf_demo_v2",
		},
		{
			name:   "reference inside parens",
			query:  "SELECT count(*) FROM (SELECT age FROM puf.puf_demo) t",
			prefix: "puf.puf_",
			want:   "puf.puf_demo",
		},
		{
			name:        "no prefixed reference",
			query:       "SELECT age FROM other.table",
			prefix:      "puf.puf_",
			expectError: true,
		},
		{
			name:        "empty prefix",
			query:       "SELECT age FROM puf.puf_demo",
			prefix:      "",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(tt.query, tt.prefix)

			if tt.expectError {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Extract() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name       string
		qualified  string
		wantSchema string
		wantTable  string
	}{
		{name: "qualified", qualified: "puf.puf_demo", wantSchema: "puf", wantTable: "puf_demo"},
		{name: "unqualified", qualified: "puf_demo", wantSchema: "public", wantTable: "puf_demo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema, table := Split(tt.qualified)
			if schema != tt.wantSchema || table != tt.wantTable {
				t.Errorf("Split() = %v, %v; want %v, %v", schema, table, tt.wantSchema, tt.wantTable)
			}
		})
	}
}
