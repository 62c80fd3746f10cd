package blocklist

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "blocklist:"

// Redis stores revoked jtis as keys that expire together with the token,
// so the set survives restarts and is shared between processes.
type Redis struct {
	rdb *redis.Client
}

// NewRedis wraps an already connected client.
func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb}
}

var _ Blocklist = (*Redis)(nil)

func (r *Redis) Add(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		// Already expired tokens fail validation on their own.
		return nil
	}
	return r.rdb.Set(ctx, redisKeyPrefix+jti, 1, ttl).Err()
}

func (r *Redis) Contains(ctx context.Context, jti string) (bool, error) {
	n, err := r.rdb.Exists(ctx, redisKeyPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close releases the client's connection pool.
func (r *Redis) Close() error {
	return r.rdb.Close()
}
