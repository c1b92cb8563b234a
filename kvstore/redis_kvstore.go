// cartservice/kvstore/redis_kvstore.go

package kvstore

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// casScript swaps the stored value only if it still equals the expected prior
// bytes. GET of a missing key yields false in Lua, which never compares equal
// to a string argument, so the script also rejects writes against a key that
// was deleted in the meantime.
var casScript = redis.NewScript(`
local cur = redis.call("GET", KEYS[1])
if cur == ARGV[1] then
  redis.call("SET", KEYS[1], ARGV[2])
  return 1
end
return 0
`)

// RedisStore is a key-value backend backed by Redis.
type RedisStore struct {
	client *redis.Client
	log    logrus.FieldLogger
}

// NewRedisStore accepts a Redis connection string (e.g., "hostname:port" or a
// "redis://..." URL) and returns a store instance.
func NewRedisStore(redisAddr string, log logrus.FieldLogger) *RedisStore {
	opts, err := redis.ParseURL(redisAddr)
	if err != nil {
		// If not in "redis://..." format, use it as a simple Addr.
		opts = &redis.Options{
			Addr:         redisAddr,
			MinIdleConns: 1,
			MaxRetries:   30,
			DialTimeout:  30 * time.Second,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			PoolSize:     10,
			PoolTimeout:  4 * time.Second,
			IdleTimeout:  180 * time.Second,
		}
	}

	client := redis.NewClient(opts)
	client.AddHook(redisotel.NewTracingHook())

	if log == nil {
		log = logrus.StandardLogger()
	}
	return &RedisStore{client: client, log: log}
}

// Initialize waits for the Redis connection to come up.
func (r *RedisStore) Initialize(ctx context.Context) error {
	r.log.Info("RedisStore: initializing connection...")

	for i := 0; i < 30; i++ {
		if r.Ping(ctx) {
			r.log.Infof("RedisStore: connected on attempt %d", i+1)
			return nil
		}

		backoff := time.Duration(1000*(1<<uint(i))) * time.Millisecond
		if backoff > 30*time.Second {
			backoff = 30 * time.Second
		}
		r.log.Warnf("RedisStore: ping failed, waiting %v before next attempt", backoff)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
			continue
		}
	}

	return fmt.Errorf("failed to connect to Redis after 30 attempts")
}

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrKeyAbsent
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %q: %w", key, err)
	}
	return val, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %q: %w", key, err)
	}
	return nil
}

// CompareAndSet performs a conditional overwrite. Creation (expected == nil)
// maps to SETNX; replacement runs the GET/SET script atomically server-side.
func (r *RedisStore) CompareAndSet(ctx context.Context, key string, expected, value []byte) error {
	if expected == nil {
		ok, err := r.client.SetNX(ctx, key, value, 0).Result()
		if err != nil {
			return fmt.Errorf("redis setnx %q: %w", key, err)
		}
		if !ok {
			return ErrCASMismatch
		}
		return nil
	}

	res, err := casScript.Run(ctx, r.client, []string{key}, expected, value).Int()
	if err != nil {
		return fmt.Errorf("redis cas %q: %w", key, err)
	}
	if res == 0 {
		return ErrCASMismatch
	}
	return nil
}

// Ping checks if Redis is alive.
func (r *RedisStore) Ping(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.client.Ping(pingCtx).Result(); err != nil {
		r.log.Warnf("RedisStore: ping failed: %v", err)
		return false
	}
	return true
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
