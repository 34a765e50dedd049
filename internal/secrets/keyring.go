// Copyright (c) 2025 Veil
// Licensed under the MIT License. See LICENSE file in the project root for details.

package secrets

import (
	"context"
	"fmt"
	"sync"

	"github.com/99designs/keyring"

	"veil/engine/internal/errors"
	"veil/engine/internal/xdg"
)

// ServiceName identifies our keychain/credential store namespace.
const ServiceName = "veil"

// KeyringStore resolves credentials from the OS keychain. It stores the same
// JSON payload AWS Secrets Manager would hold, under the secret name as the
// item key. Intended for local development against a private database copy.
type KeyringStore struct {
	mu   sync.Mutex
	ring keyring.Keyring
}

// NewKeyringStore opens the OS keyring for the veil namespace.
func NewKeyringStore() (*KeyringStore, error) {
	fileDir, err := xdg.StateDir()
	if err != nil {
		return nil, errors.Wrap(errors.SecretRetrieval, "failed to resolve keyring state dir", err)
	}
	ring, err := keyring.Open(keyring.Config{
		ServiceName: ServiceName,
		// File fallback keeps headless development machines working.
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.WinCredBackend,
			keyring.SecretServiceBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		PassPrefix:       ServiceName,
		FileDir:          fileDir,
		FilePasswordFunc: keyring.TerminalPrompt,
	})
	if err != nil {
		return nil, errors.Wrap(errors.SecretRetrieval, "failed to open OS keyring", err)
	}
	return &KeyringStore{ring: ring}, nil
}

// Retrieve loads and decodes the named secret item. This method is thread-safe.
func (s *KeyringStore) Retrieve(ctx context.Context, name string) (Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, err := s.ring.Get(name)
	if err != nil {
		return Credentials{}, errors.Wrap(errors.SecretRetrieval, fmt.Sprintf("failed to read keyring item %q", name), err)
	}
	if len(it.Data) == 0 {
		return Credentials{}, errors.New(errors.SecretRetrieval, fmt.Sprintf("keyring item %q is empty", name))
	}
	return decode(name, it.Data)
}

// Save stores the JSON secret payload under the given name.
// This method is thread-safe.
func (s *KeyringStore) Save(name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ring.Set(keyring.Item{Key: name, Data: data})
}
