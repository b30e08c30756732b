package cachestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// incrInitScript increments and sets the expiry only when the key was created.
var incrInitScript = redis.NewScript(`
local v = redis.call('INCR', KEYS[1])
if v == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return v
`)

// incrIfBelowScript admits the increment only while the counter is below the
// limit in ARGV[1]. Returns {value, admitted}.
var incrIfBelowScript = redis.NewScript(`
local cur = tonumber(redis.call('GET', KEYS[1]) or '0')
if cur >= tonumber(ARGV[1]) then
  return {cur, 0}
end
local v = redis.call('INCR', KEYS[1])
if v == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return {v, 1}
`)

// Redis is a Backend over a go-redis client. Counters and locks use Lua
// scripts and SET NX so they stay atomic across server processes.
type Redis struct {
	client *redis.Client
}

// NewRedis parses redisURL (redis://host:port/db), connects and pings.
func NewRedis(ctx context.Context, redisURL string) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &Redis{client: client}, nil
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(c *redis.Client) *Redis { return &Redis{client: c} }

// Close releases the connection pool.
func (r *Redis) Close() error { return r.client.Close() }

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return b, err
}

func (r *Redis) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return r.client.Set(ctx, key, val, ttl).Err()
}

func (r *Redis) SetNX(ctx context.Context, key string, val []byte, ttl time.Duration) (bool, error) {
	if ttl < 0 {
		ttl = 0
	}
	return r.client.SetNX(ctx, key, val, ttl).Result()
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *Redis) GetInt(ctx context.Context, key string) (int64, error) {
	n, err := r.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

func (r *Redis) IncrInit(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	return incrInitScript.Run(ctx, r.client, []string{key}, ttlMillis(ttl)).Int64()
}

func (r *Redis) IncrIfBelow(ctx context.Context, key string, limit int64, ttl time.Duration) (int64, bool, error) {
	res, err := incrIfBelowScript.Run(ctx, r.client, []string{key}, limit, ttlMillis(ttl)).Result()
	if err != nil {
		return 0, false, err
	}
	vals, ok := res.([]interface{})
	if !ok || len(vals) != 2 {
		return 0, false, fmt.Errorf("unexpected script reply %T", res)
	}
	v, _ := vals[0].(int64)
	admitted, _ := vals[1].(int64)
	return v, admitted == 1, nil
}

// ttlMillis converts ttl for PEXPIRE. Redis rejects 0, so non-positive TTLs
// collapse to one day.
func ttlMillis(ttl time.Duration) int64 {
	if ttl <= 0 {
		return (24 * time.Hour).Milliseconds()
	}
	if ms := ttl.Milliseconds(); ms > 0 {
		return ms
	}
	return 1
}
