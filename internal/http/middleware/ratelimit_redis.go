// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements RedisWindowStore, a WindowStore shared by every
// instance pointing at the same Redis. The reset/check/increment sequence
// runs as one Lua script so concurrent hits on a key are serialized by Redis.
package middleware

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// hitScript returns {count, start_ms, admitted}.
var hitScript = redis.NewScript(`
local limit  = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local now    = tonumber(ARGV[3])
local start  = tonumber(redis.call('HGET', KEYS[1], 'start'))
local count  = tonumber(redis.call('HGET', KEYS[1], 'count'))
if start == nil or count == nil or now - start >= window then
  start = now
  count = 0
  redis.call('HSET', KEYS[1], 'start', start, 'count', 0)
  redis.call('PEXPIRE', KEYS[1], window)
end
if count >= limit then
  return {count, start, 0}
end
count = redis.call('HINCRBY', KEYS[1], 'count', 1)
return {count, start, 1}
`)

// RedisWindowStore keeps windows in Redis hashes under prefix.
type RedisWindowStore struct {
	rdb    redis.Scripter
	prefix string
}

// RedisWindowOption customizes a RedisWindowStore.
type RedisWindowOption func(*RedisWindowStore)

// WithWindowPrefix overrides the key prefix (default "ratelimit:window").
func WithWindowPrefix(prefix string) RedisWindowOption {
	return func(s *RedisWindowStore) { s.prefix = strings.Trim(prefix, ":") }
}

// NewRedisWindowStore returns a store backed by rdb.
func NewRedisWindowStore(rdb redis.Scripter, opts ...RedisWindowOption) *RedisWindowStore {
	s := &RedisWindowStore{rdb: rdb, prefix: "ratelimit:window"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hit implements WindowStore.
func (s *RedisWindowStore) Hit(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (Window, bool, error) {
	res, err := hitScript.Run(ctx, s.rdb,
		[]string{s.prefix + ":" + key},
		limit, window.Milliseconds(), now.UnixMilli(),
	).Int64Slice()
	if err != nil {
		return Window{}, false, fmt.Errorf("redis window hit: %w", err)
	}
	if len(res) != 3 {
		return Window{}, false, fmt.Errorf("redis window hit: unexpected reply %v", res)
	}
	return Window{Count: int(res[0]), Start: time.UnixMilli(res[1])}, res[2] == 1, nil
}
