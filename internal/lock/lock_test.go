package lock_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/rv-park/backend/internal/lock"
)

func TestKeyedMutex_SerialisesSameKey(t *testing.T) {
	k := lock.NewKeyedMutex()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := k.Lock(ctx, "site-101")
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen, "only one holder at a time")
	assert.Equal(t, 0, k.Held(), "slots are dropped once released")
}

func TestKeyedMutex_DifferentKeysDoNotBlock(t *testing.T) {
	k := lock.NewKeyedMutex()
	ctx := context.Background()

	unlockA, err := k.Lock(ctx, "site-101")
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	unlockB, err := k.Lock(ctx, "site-102")
	require.NoError(t, err)
	unlockB()
}

func TestKeyedMutex_ContextCancelled(t *testing.T) {
	k := lock.NewKeyedMutex()
	unlock, err := k.Lock(context.Background(), "site-101")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = k.Lock(ctx, "site-101")
	assert.ErrorIs(t, err, lock.ErrNotAcquired)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	assert.Equal(t, 0, k.Held())
}

func TestKeyedMutex_UnlockTwiceIsHarmless(t *testing.T) {
	k := lock.NewKeyedMutex()
	unlock, err := k.Lock(context.Background(), "site-101")
	require.NoError(t, err)

	unlock()
	unlock()

	again, err := k.Lock(context.Background(), "site-101")
	require.NoError(t, err)
	again()
}

// TestRedisLocker runs against a real Redis and is skipped unless
// TEST_REDIS_ADDR is set, the same way repo tests need TEST_DATABASE_URL.
func TestRedisLocker(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set; skipping integration test")
	}
	rdb := lock.NewRedisClient(addr)
	t.Cleanup(func() { _ = rdb.Close() })
	l := lock.NewRedisLocker(rdb, slog.New(slog.NewTextHandler(io.Discard, nil)))

	key := "test-" + time.Now().Format("150405.000000000")
	unlock, err := l.Lock(context.Background(), key)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, key)
	assert.ErrorIs(t, err, lock.ErrNotAcquired)

	unlock()

	again, err := l.Lock(context.Background(), key)
	require.NoError(t, err)
	again()
}
