// Copyright (c) 2025 Veil
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package secrets resolves the engine's credentials from a secret store.
// One secret, keyed by a fixed name, holds the database connection fields and
// the API token as a JSON object. Two backends are supported: AWS Secrets
// Manager for deployed environments and the OS keyring for local development.
package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"veil/engine/internal/errors"
)

// Credentials is the decoded secret payload.
type Credentials struct {
	Host     string `json:"host"`
	Username string `json:"username"`
	Password string `json:"password"`
	// Port accepts both a JSON number and a string, depending on how the
	// secret was provisioned.
	Port Port `json:"port"`
	// Token authenticates result delivery to the API.
	Token string `json:"token"`
}

// Port is a port value that unmarshals from either a JSON number or a string.
type Port string

func (p *Port) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		*p = ""
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		s = strings.TrimSpace(str)
	}
	if _, err := strconv.Atoi(s); err != nil {
		return fmt.Errorf("port %q is not numeric", s)
	}
	*p = Port(s)
	return nil
}

func (p Port) String() string { return string(p) }

// decode parses the secret payload and checks the fields the pipeline needs.
func decode(name string, data []byte) (Credentials, error) {
	var c Credentials
	if err := json.Unmarshal(data, &c); err != nil {
		return c, errors.Wrap(errors.SecretRetrieval, fmt.Sprintf("secret %q is not valid JSON", name), err)
	}
	if c.Host == "" || c.Username == "" {
		return c, errors.New(errors.SecretRetrieval, fmt.Sprintf("secret %q is missing host or username", name))
	}
	return c, nil
}

// Store retrieves credentials by secret name.
type Store interface {
	Retrieve(ctx context.Context, name string) (Credentials, error)
}
