package kvstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Redis stores values as plain Redis strings without expiry.
type Redis struct {
	client *redis.Client
	tracer trace.Tracer
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client) *Redis {
	if client == nil {
		panic("kvstore: redis client cannot be nil")
	}
	return &Redis{
		client: client,
		tracer: otel.Tracer("ambu.internal.kvstore.redis"),
	}
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}
	ctx, span := r.tracer.Start(ctx, "kvstore.redis.get", trace.WithAttributes(attribute.String("kv.key", key)))
	defer span.End()

	value, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		span.RecordError(err)
		return "", false, fmt.Errorf("kvstore: redis get %s: %w", key, err)
	}
	return value, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	ctx, span := r.tracer.Start(ctx, "kvstore.redis.set", trace.WithAttributes(attribute.String("kv.key", key)))
	defer span.End()

	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("kvstore: redis set %s: %w", key, err)
	}
	return nil
}
