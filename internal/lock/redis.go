package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultLockTTL   = 10 * time.Second
	defaultRetryWait = 25 * time.Millisecond
	keyPrefix        = "storefront:cart-lock:"
)

// redisStore defines the operations used by RedisLocker.
type redisStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	// CompareAndDelete deletes key only while it still holds owner, atomically.
	CompareAndDelete(ctx context.Context, key, owner string) (bool, error)
}

// RedisLocker implements Locker with SETNX + TTL so several API processes can
// share one database. The TTL bounds how long a crashed holder blocks a cart.
type RedisLocker struct {
	client    redisStore
	ttl       time.Duration
	retryWait time.Duration
}

func NewRedisLocker(client redisStore, ttl time.Duration) (*RedisLocker, error) {
	if client == nil {
		return nil, errors.New("redis client required for lock")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLocker{client: client, ttl: ttl, retryWait: defaultRetryWait}, nil
}

// Lock polls until the key is acquired or ctx ends.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	full := keyPrefix + key
	owner := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, full, owner, l.ttl)
		if err != nil {
			return nil, fmt.Errorf("setnx: %w", err)
		}
		if ok {
			break
		}

		timer := time.NewTimer(l.retryWait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return func() {
		// 呼び出し元のctxが切れていても解放はする
		_ = l.release(context.Background(), full, owner)
	}, nil
}

// release deletes the key only if the owner value still matches. The check and
// the delete run as one script, so a lock re-acquired by another process after
// the TTL expired is never removed.
func (l *RedisLocker) release(ctx context.Context, key, owner string) error {
	if _, err := l.client.CompareAndDelete(ctx, key, owner); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisClient adapts *redis.Client to the small surface the locker needs.
type RedisClient struct {
	raw *redis.Client
}

// NewRedisClient parses url, applies timeouts and verifies connectivity.
func NewRedisClient(ctx context.Context, url string, dialTimeout time.Duration) (*RedisClient, error) {
	if url == "" {
		return nil, errors.New("redis url is required")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	if dialTimeout > 0 {
		opts.DialTimeout = dialTimeout
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisClient{raw: raw}, nil
}

func (c *RedisClient) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	return c.raw.SetNX(ctx, key, value, ttl).Result()
}

func (c *RedisClient) CompareAndDelete(ctx context.Context, key, owner string) (bool, error) {
	n, err := releaseScript.Run(ctx, c.raw, []string{key}, owner).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (c *RedisClient) Ping(ctx context.Context) error {
	return c.raw.Ping(ctx).Err()
}

func (c *RedisClient) Close() error {
	return c.raw.Close()
}
