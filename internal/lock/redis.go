package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyLock is the Redis key pattern for a held lock: lock:{key}.
const KeyLock = "lock:%s"

// Defaults for RedisLocker.
const (
	DefaultLockTTL   = 10 * time.Second
	DefaultLockRetry = 25 * time.Millisecond
)

// releaseScript deletes the lock only if this holder still owns it, so a
// holder whose TTL already expired cannot free someone else's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// NewRedisClient returns a client for addr.
func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

// RedisLocker is a Locker shared by every process pointed at the same Redis.
// A lock is a key set with NX and a TTL; a crashed holder's lock expires on
// its own after TTL.
type RedisLocker struct {
	rdb   redis.UniversalClient
	ttl   time.Duration
	retry time.Duration
	log   *slog.Logger
}

// NewRedisLocker returns a RedisLocker using the default TTL and retry interval.
func NewRedisLocker(rdb redis.UniversalClient, log *slog.Logger) *RedisLocker {
	return &RedisLocker{rdb: rdb, ttl: DefaultLockTTL, retry: DefaultLockRetry, log: log}
}

// WithTTL overrides how long a lock survives without being released.
func (l *RedisLocker) WithTTL(ttl time.Duration) *RedisLocker {
	l.ttl = ttl
	return l
}

var _ Locker = (*RedisLocker)(nil)

// Lock polls SET NX until it wins or ctx is done.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	token, err := newToken()
	if err != nil {
		return nil, fmt.Errorf("lock.RedisLocker.Lock: %w", err)
	}
	redisKey := fmt.Sprintf(KeyLock, key)

	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()
	for {
		ok, err := l.rdb.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("lock.RedisLocker.Lock: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrNotAcquired, ctx.Err())
		case <-ticker.C:
		}
	}

	return func() {
		// The caller's context may already be cancelled; release regardless.
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(rctx, l.rdb, []string{redisKey}, token).Err(); err != nil {
			l.log.Warn("release lock", "key", redisKey, "error", err)
		}
	}, nil
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
