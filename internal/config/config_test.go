// Copyright (c) 2025 Veil
// Licensed under the MIT License. See LICENSE file in the project root for details.

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	c, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Database != "puf" || c.SchemaPrefix != "puf.puf_" {
		t.Errorf("defaults = %+v", c)
	}
	if c.SecretBackend != "aws" || c.SecretName != "validation-server-backend" {
		t.Errorf("secret defaults = %+v", c)
	}
	if c.Snapshot.Bucket == "" || c.Snapshot.Key == "" {
		t.Errorf("snapshot defaults = %+v", c.Snapshot)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	c := Defaults()
	c.Database = "census"
	c.SchemaPrefix = "census.census_"
	c.Snapshot.Path = "/var/lib/veil/census.json"
	if err := Save(c); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Database != "census" || got.SchemaPrefix != "census.census_" {
		t.Errorf("Load() = %+v", got)
	}
	if got.Snapshot.Path != "/var/lib/veil/census.json" {
		t.Errorf("Snapshot.Path = %q", got.Snapshot.Path)
	}
	// Unset fields keep their defaults.
	if got.APIBaseURL != Defaults().APIBaseURL {
		t.Errorf("APIBaseURL = %q", got.APIBaseURL)
	}
}

func TestSavePermissions(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	if err := Save(Defaults()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	info, err := os.Stat(filepath.Join(dir, "veil", "config.json"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config file mode = %o, want 600", perm)
	}
}
