package mirror

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisPrefix = "storefront"

// Redis stores each (session, key) under storefront:<session>:<key>. A zero
// TTL keeps values forever; otherwise every write refreshes the expiry.
type Redis struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedis(client redis.Cmdable, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func redisKey(sessionID, key string) string {
	return redisPrefix + ":" + sessionID + ":" + key
}

func (r *Redis) Get(ctx context.Context, sessionID, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, redisKey(sessionID, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return v, true, nil
}

func (r *Redis) Set(ctx context.Context, sessionID, key, value string) error {
	if err := r.client.Set(ctx, redisKey(sessionID, key), value, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
