package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/garanley/claims-intake/internal/api/router"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type redisPinger struct{ client *redis.Client }

func (p redisPinger) Ping(ctx context.Context) error { return p.client.Ping(ctx).Err() }

// readinessChecks covers the backing services that are actually wired.
func readinessChecks(pool *pgxpool.Pool, redisClient *redis.Client) map[string]router.Check {
	deps := map[string]pinger{}
	if pool != nil {
		deps["postgres"] = pool
	}
	if redisClient != nil {
		deps["redis"] = redisPinger{client: redisClient}
	}
	checks := make(map[string]router.Check, len(deps))
	for name, dep := range deps {
		checks[name] = dep.Ping
	}
	return checks
}
