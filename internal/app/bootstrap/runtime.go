// Package bootstrap turns configuration into wired dependencies for the
// binaries under cmd/.
package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/garanley/claims-intake/internal/config"
	"github.com/garanley/claims-intake/internal/sessions"
	"github.com/garanley/claims-intake/pkg/logging"
)

// Session backends accepted in SESSION_BACKEND.
const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err, "addr", cfg.RedisAddr)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildSessionStore picks the wizard/chat session backend. A Redis backend
// that cannot be reached is an error rather than a silent fallback, since
// sessions would otherwise vanish between replicas.
func BuildSessionStore(cfg *appconfig.Config, redisClient *redis.Client, logger *logging.Logger) (sessions.Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	switch cfg.SessionBackend {
	case "", SessionBackendMemory:
		logger.Info("using in-process session store", "ttl", cfg.SessionTTL.String())
		return sessions.NewMemoryStore(cfg.SessionTTL), nil
	case SessionBackendRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("bootstrap: redis session backend selected but redis is unavailable")
		}
		logger.Info("using redis session store", "ttl", cfg.SessionTTL.String())
		return sessions.NewRedisStore(redisClient, cfg.SessionTTL), nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown session backend %q", cfg.SessionBackend)
	}
}

// BuildPostgresPool connects to the lead archive. An empty URL disables the
// archive and returns nil without error.
func BuildPostgresPool(ctx context.Context, databaseURL string, logger *logging.Logger) (*pgxpool.Pool, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap: ping postgres: %w", err)
	}
	logger.Info("lead archive connected")
	return pool, nil
}
