package locks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Lua script releasing the lease only if the caller still owns it.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// RedisLocker is a Locker backed by a Redis lease, for deployments where wallet
// mutations can originate from more than one process. Each lock is a SET NX with a
// TTL; release is owner-checked via a Lua script.
type RedisLocker struct {
	rdb        redis.UniversalClient
	ttl        time.Duration
	retryDelay time.Duration
	scrRelease *redis.Script
}

// NewRedisLocker creates a new RedisLocker. The ttl bounds how long a crashed holder
// can block a wallet.
func NewRedisLocker(rdb redis.UniversalClient, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		rdb:        rdb,
		ttl:        ttl,
		retryDelay: 25 * time.Millisecond,
		scrRelease: redis.NewScript(releaseScript),
	}
}

// Make sure we conform to the interface
var _ Locker = (*RedisLocker)(nil)

func lockKey(walletID string) string {
	return fmt.Sprintf("wallet_lock:{%s}", walletID)
}

// Lock acquires the wallet lease, polling until acquired or the context is done.
func (l *RedisLocker) Lock(ctx context.Context, walletID string) (Unlocker, error) {
	owner := uuid.New().String()
	key := lockKey(walletID)

	for {
		ok, err := l.rdb.SetNX(ctx, key, owner, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire wallet lock: %w", err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retryDelay):
		}
	}

	return unlockFunc(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := l.scrRelease.Run(ctx, l.rdb, []string{key}, owner).Err(); err != nil {
			slog.Error("failed to release wallet lock", "wallet_id", walletID, "error", err)
		}
	}), nil
}
