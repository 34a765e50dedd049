// Copyright (c) 2025 Veil
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"

	"veil/engine/internal/config"
	"veil/engine/internal/metadata"
	"veil/engine/internal/orchestrator"
	"veil/engine/internal/privexec"
	"veil/engine/internal/secrets"
)

// secretStore builds the configured credentials backend.
func secretStore(cfg config.Config) (secrets.Store, error) {
	switch cfg.SecretBackend {
	case "aws":
		return secrets.NewAWSStore(cfg.AWSRegion)
	case "keyring":
		return secrets.NewKeyringStore()
	default:
		return nil, fmt.Errorf("unknown secret backend %q (want \"aws\" or \"keyring\")", cfg.SecretBackend)
	}
}

// snapshotStore builds the baseline metadata source. A configured local path
// takes precedence over the S3 object.
func snapshotStore(cfg config.Config) (metadata.Store, error) {
	if cfg.Snapshot.Path != "" {
		return metadata.NewFileStore(cfg.Snapshot.Path), nil
	}
	return metadata.NewS3Store(cfg.AWSRegion, cfg.Snapshot.Bucket, cfg.Snapshot.Key)
}

// buildOrchestrator wires the full pipeline from configuration.
func buildOrchestrator(cfg config.Config) (*orchestrator.Orchestrator, error) {
	sec, err := secretStore(cfg)
	if err != nil {
		return nil, err
	}
	snaps, err := snapshotStore(cfg)
	if err != nil {
		return nil, err
	}
	return orchestrator.New(
		cfg,
		sec,
		snaps,
		orchestrator.PoolConnector,
		privexec.NewHTTPFactory(cfg.ExecutorURL),
		orchestrator.APIDeliverer(cfg.APIBaseURL),
	), nil
}
