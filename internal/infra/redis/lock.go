// File: internal/infra/redis/lock.go
package redis

import (
	"context"
	"fmt"
	"time"

	"realty-marketplace/internal/domain"
	"realty-marketplace/internal/domain/ports/adapter"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

var _ adapter.TenantLocker = (*RedisLocker)(nil)

// RedisLocker is a SETNX lock with token-checked release. The TTL bounds how
// long a crashed holder can block a tenant.
type RedisLocker struct {
	cli   *redis.Client
	ttl   time.Duration
	retry time.Duration
}

func NewLocker(c *Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{cli: c.cli, ttl: ttl, retry: 50 * time.Millisecond}
}

func tenantKey(tenantID string) string { return "lock:agency:" + tenantID }

// Lock retries until the key is free or ctx ends.
func (l *RedisLocker) Lock(ctx context.Context, tenantID string) (func(), error) {
	key := tenantKey(tenantID)
	token := uuid.NewString()
	t := time.NewTicker(l.retry)
	defer t.Stop()
	for {
		ok, err := l.cli.SetNX(ctx, key, token, l.ttl).Result()
		if err == nil && ok {
			return func() {
				// release even when the request context is already gone
				_ = l.Unlock(context.WithoutCancel(ctx), key, token)
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", domain.ErrLockNotAcquired, ctx.Err())
		case <-t.C:
		}
	}
}

var luaUnlock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`)

func (l *RedisLocker) Unlock(ctx context.Context, key, token string) error {
	_, err := luaUnlock.Run(ctx, l.cli, []string{key}, token).Result()
	return err
}
