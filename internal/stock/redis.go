package stock

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis implements Cache on a shared redis instance. INCRBY/DECRBY are single
// round-trip atomic adds, which is what makes concurrent admission safe.
type Redis struct {
	rdb *redis.Client
}

func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb}
}

func (r *Redis) Init(ctx context.Context, key string, ttl time.Duration) error {
	return r.rdb.SetNX(ctx, key, 0, ttl).Err()
}

func (r *Redis) IncrBy(ctx context.Context, key string, n int64) (int64, error) {
	return r.rdb.IncrBy(ctx, key, n).Result()
}

func (r *Redis) DecrBy(ctx context.Context, key string, n int64) (int64, error) {
	return r.rdb.DecrBy(ctx, key, n).Result()
}

func (r *Redis) Set(ctx context.Context, key string, val int64, ttl time.Duration) error {
	return r.rdb.Set(ctx, key, val, ttl).Err()
}

func (r *Redis) Get(ctx context.Context, key string) (int64, error) {
	val, err := r.rdb.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return val, err
}
