// Copyright (c) 2025 Veil
// Licensed under the MIT License. See LICENSE file in the project root for details.

package secrets

import (
	"testing"

	"veil/engine/internal/errors"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name        string
		data        string
		expectError bool
		wantPort    string
	}{
		{
			name:     "numeric port",
			data:     `{"host":"db.internal","username":"engine","password":"s3cret","port":5432,"token":"tok"}`,
			wantPort: "5432",
		},
		{
			name:     "string port",
			data:     `{"host":"db.internal","username":"engine","password":"s3cret","port":"5433","token":"tok"}`,
			wantPort: "5433",
		},
		{
			name:     "missing port",
			data:     `{"host":"db.internal","username":"engine","password":"s3cret","token":"tok"}`,
			wantPort: "",
		},
		{
			name:        "non-numeric port",
			data:        `{"host":"db.internal","username":"engine","port":"default"}`,
			expectError: true,
		},
		{
			name:        "missing host",
			data:        `{"username":"engine","password":"s3cret"}`,
			expectError: true,
		},
		{
			name:        "not json",
			data:        `host=db.internal`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := decode("validation-server-backend", []byte(tt.data))

			if tt.expectError {
				if err == nil {
					t.Fatal("expected error but got none")
				}
				if kind := errors.KindOf(err); kind != errors.SecretRetrieval {
					t.Errorf("error kind = %v, want %v", kind, errors.SecretRetrieval)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if c.Port.String() != tt.wantPort {
				t.Errorf("Port = %q, want %q", c.Port, tt.wantPort)
			}
		})
	}
}
