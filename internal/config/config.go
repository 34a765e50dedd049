// Package config loads and stores engine configuration in the XDG config dir.
// Only non-secret settings are kept here; database and API credentials come
// from the secret store.
package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"veil/engine/internal/xdg"
)

// Config holds non-sensitive engine settings.
type Config struct {
	LogLevel string `json:"log_level"`
	// Database is the name of the database holding the researcher tables.
	Database string `json:"database"`
	// SchemaPrefix is the literal table-reference prefix queries must carry,
	// e.g. "puf.puf_". Table names are extracted from query text by matching it.
	SchemaPrefix string `json:"schema_prefix"`
	// SecretName is the key under which credentials live in the secret store.
	SecretName string `json:"secret_name"`
	// SecretBackend selects the secret store: "aws" or "keyring".
	SecretBackend string `json:"secret_backend"`
	// AWSRegion is used by the AWS secret and snapshot backends.
	AWSRegion string   `json:"aws_region"`
	Snapshot  Snapshot `json:"snapshot"`
	// APIBaseURL is the base URL results are posted to.
	APIBaseURL string `json:"api_base_url"`
	// ExecutorURL is the base URL of the privacy mechanism service.
	ExecutorURL string `json:"executor_url"`
}

// Snapshot locates the baseline metadata snapshot document.
// When Path is set the local file is used; otherwise the S3 object.
type Snapshot struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	Path   string `json:"path"`
}

// path returns the path to the config file.
func path() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Defaults returns the configuration used when no config file exists.
func Defaults() Config {
	return Config{
		LogLevel:      "info",
		Database:      "puf",
		SchemaPrefix:  "puf.puf_",
		SecretName:    "validation-server-backend",
		SecretBackend: "aws",
		AWSRegion:     "us-east-1",
		Snapshot: Snapshot{
			Bucket: "ui-validation-server",
			Key:    "data/puf.json",
		},
		APIBaseURL:  "https://validation-server-stg.urban.org/api/v1",
		ExecutorURL: "http://127.0.0.1:8990",
	}
}

// Load reads configuration; missing file returns defaults.
func Load() (Config, error) {
	p, err := path()
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Defaults(), nil
		}
		return Config{}, err
	}
	c := Defaults()
	if err := json.Unmarshal(data, &c); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Save writes configuration with 0600 permissions.
func Save(c Config) error {
	p, err := path()
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, b, 0o600)
}
