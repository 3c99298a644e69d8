// Package redis provides a cross-replica seed lock.
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/stargazer-events/internal/domain"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// Only the holder's token may delete the key.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Lock implements events.SeedLock with SET NX PX.
type Lock struct {
	client *goredis.Client
	logger *slog.Logger
}

// NewLock connects to addr. The connection is lazy; CheckReadiness pings.
func NewLock(addr string, logger *slog.Logger) *Lock {
	return &Lock{client: goredis.NewClient(&goredis.Options{Addr: addr}), logger: logger}
}

// Acquire tries once to take key for ttl.
func (l *Lock) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis lock %s: %w: %w", key, domain.ErrTransient, err)
	}
	if !ok {
		return nil, false, nil
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
				l.logger.Warn("release seed lock", "key", key, "error", err)
			}
		})
	}
	return release, true, nil
}

func (l *Lock) CheckReadiness(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

func (l *Lock) Close() error {
	return l.client.Close()
}
