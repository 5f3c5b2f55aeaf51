package lock

import (
	"context"
	"net"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLocker_ExcludesSecondHolder(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	release, err := l.Acquire(ctx, "inventory", time.Minute)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "inventory", time.Minute)
	assert.ErrorIs(t, err, ErrBusy)

	other, err := l.Acquire(ctx, "prices", time.Minute)
	require.NoError(t, err, "keys are independent")
	other()

	release()
	release()

	again, err := l.Acquire(ctx, "inventory", time.Minute)
	require.NoError(t, err)
	again()
}

func TestLocalLocker_ExpiredHolderDoesNotReleaseSuccessor(t *testing.T) {
	l := NewLocalLocker()
	now := time.Unix(0, 0)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	stale, err := l.Acquire(ctx, "inventory", time.Second)
	require.NoError(t, err)

	now = now.Add(2 * time.Second)
	fresh, err := l.Acquire(ctx, "inventory", time.Minute)
	require.NoError(t, err)

	stale()
	_, err = l.Acquire(ctx, "inventory", time.Minute)
	assert.ErrorIs(t, err, ErrBusy)
	fresh()
}

func TestLocalLocker_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLocalLocker().Acquire(ctx, "inventory", time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}

// Runs against a real server when TEST_REDIS_ADDR (host:port) is set.
func TestRedisLocker(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	_, _, err := net.SplitHostPort(addr)
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	l := NewRedisLocker(rdb, "skinvault-test-"+time.Now().Format("150405.000000"))
	ctx := context.Background()

	release, err := l.Acquire(ctx, "inventory", 10*time.Second)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "inventory", 10*time.Second)
	assert.ErrorIs(t, err, ErrBusy)

	release()
	again, err := l.Acquire(ctx, "inventory", 10*time.Second)
	require.NoError(t, err)
	again()
}
