// Copyright (c) 2025 Veil
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package delivery posts result payloads back to the validation API.
package delivery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"veil/engine/internal/errors"
	"veil/engine/internal/httperrors"
	"veil/engine/internal/payload"
)

const (
	confidentialEndpoint = "/confidential-data-result/"
	syntheticEndpoint    = "/synthetic-data-result/"
)

// Client submits payloads over REST with token authentication.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient creates a client for the API at baseURL. All requests carry the
// given token and use a 10-second timeout.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Submit posts the payload as a form body. Confidential runs go to the
// confidential-data endpoint, everything else to the synthetic-data endpoint.
// A single attempt is made; the caller decides what a failure means.
func (c *Client) Submit(ctx context.Context, p *payload.ResultPayload, confidential bool) error {
	endpoint := syntheticEndpoint
	if confidential {
		endpoint = confidentialEndpoint
	}

	body := strings.NewReader(p.FormValues().Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, body)
	if err != nil {
		return errors.Wrap(errors.Delivery, "building result request", err)
	}
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrap(errors.Delivery, httperrors.Reason(err), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := fmt.Sprintf("%s returned status %d", endpoint, resp.StatusCode)
		if s := strings.TrimSpace(string(detail)); s != "" {
			msg = fmt.Sprintf("%s: %s", msg, s)
		}
		return errors.New(errors.Delivery, msg)
	}
	return nil
}
