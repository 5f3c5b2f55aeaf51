// Package lock keeps two runs of the same pipeline from interleaving.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ErrBusy is returned when another run holds the lock.
var ErrBusy = errors.New("pipeline run already in progress")

// Locker hands out named locks.
type Locker interface {
	// Acquire obtains key for at most ttl. The returned release function is safe to call once.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// RedisLocker coordinates runs across processes sharing one Redis.
type RedisLocker struct {
	client *redislock.Client
	prefix string
}

var _ Locker = (*RedisLocker)(nil)

// NewRedisLocker creates a locker on a connected client.
func NewRedisLocker(rdb *redis.Client, prefix string) *RedisLocker {
	if prefix == "" {
		prefix = "skinvault"
	}
	return &RedisLocker{client: redislock.New(rdb), prefix: prefix}
}

// Acquire obtains the lock once; it never waits for a holder.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	lk, err := l.client.Obtain(ctx, l.prefix+":lock:"+key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrBusy
	}
	if err != nil {
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// Released with a fresh context; the run's context may already be done.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = lk.Release(ctx)
		})
	}, nil
}

// LocalLocker coordinates runs inside one process.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]time.Time
	now  func() time.Time
}

var _ Locker = (*LocalLocker)(nil)

// NewLocalLocker creates an in-process locker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]time.Time), now: time.Now}
}

// Acquire obtains the lock unless a holder's ttl has not yet run out.
func (l *LocalLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if until, ok := l.held[key]; ok && now.Before(until) {
		return nil, ErrBusy
	}
	until := now.Add(ttl)
	l.held[key] = until

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			// A holder whose ttl ran out must not release its successor.
			if l.held[key].Equal(until) {
				delete(l.held, key)
			}
		})
	}, nil
}
