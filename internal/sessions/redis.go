package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RedisStore shares sessions between API replicas.
type RedisStore struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if client == nil {
		panic("sessions: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{
		redis:  client,
		ttl:    ttl,
		tracer: otel.Tracer("claims-intake.internal.sessions"),
	}
}

func (s *RedisStore) Load(ctx context.Context, kind, id string, v any) error {
	ctx, span := s.tracer.Start(ctx, "sessions.load", trace.WithAttributes(attribute.String("session.kind", kind)))
	defer span.End()

	data, err := s.redis.Get(ctx, sessionKey(kind, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		span.RecordError(err)
		return fmt.Errorf("sessions: load %s/%s: %w", kind, id, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		span.RecordError(err)
		return fmt.Errorf("sessions: decode %s/%s: %w", kind, id, err)
	}
	return nil
}

func (s *RedisStore) Save(ctx context.Context, kind, id string, v any) error {
	ctx, span := s.tracer.Start(ctx, "sessions.save", trace.WithAttributes(attribute.String("session.kind", kind)))
	defer span.End()

	data, err := json.Marshal(v)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("sessions: encode %s/%s: %w", kind, id, err)
	}
	if err := s.redis.Set(ctx, sessionKey(kind, id), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("sessions: save %s/%s: %w", kind, id, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, kind, id string) error {
	ctx, span := s.tracer.Start(ctx, "sessions.delete")
	defer span.End()

	if err := s.redis.Del(ctx, sessionKey(kind, id)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("sessions: delete %s/%s: %w", kind, id, err)
	}
	return nil
}
