// Copyright (c) 2025 Veil
// Licensed under the MIT License. See LICENSE file in the project root for details.

package orchestrator

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"veil/engine/internal/delivery"
	"veil/engine/internal/dsn"
)

// PoolConnector opens a pgx connection pool and verifies it with a ping.
// The connection string is validated before any dial is attempted.
func PoolConnector(ctx context.Context, conn string) (DB, error) {
	if err := dsn.Validate(conn); err != nil {
		return nil, err
	}
	pool, err := pgxpool.New(ctx, conn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// APIDeliverer builds REST deliverers for the configured API base URL.
func APIDeliverer(baseURL string) DelivererFactory {
	return func(token string) Deliverer {
		return delivery.NewClient(baseURL, token)
	}
}
