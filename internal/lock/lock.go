// Package lock provides keyed mutual exclusion with a lease, serializing
// concurrent callback processing for the same order. Acquisition is
// non-blocking: a held key answers Busy immediately, and the lease bounds the
// damage of a crashed holder.
package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultLease bounds how long a crashed handler can wedge an order key.
const DefaultLease = 30 * time.Second

// Locker acquires an exclusive lease on key. ok is false when the key is
// already held; release is non-nil only on success and is safe to call once.
type Locker interface {
	Acquire(ctx context.Context, key string, lease time.Duration) (release func(), ok bool, err error)
}

// RedisLocker backs the lock with Redis SET NX EX, so the lease survives a
// process crash and is shared across replicas.
type RedisLocker struct {
	Client redis.UniversalClient
}

func NewRedisLocker(client redis.UniversalClient) *RedisLocker {
	return &RedisLocker{Client: client}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, lease time.Duration) (func(), bool, error) {
	token := uuid.NewString()

	ok, err := l.Client.SetNX(ctx, key, token, lease).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		// Only delete our own lease; after expiry the key may belong to a
		// newer holder.
		current, err := l.Client.Get(ctx, key).Result()
		if err != nil || current != token {
			return
		}
		l.Client.Del(ctx, key)
	}
	return release, true, nil
}

// MemoryLocker is the in-process fallback used when Redis is not configured,
// and by tests. Same contract, no cross-process exclusion.
type MemoryLocker struct {
	mu    sync.Mutex
	held  map[string]memoryLease
	clock func() time.Time
}

type memoryLease struct {
	token   string
	expires time.Time
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]memoryLease), clock: time.Now}
}

// SetClock injects a clock for tests.
func (l *MemoryLocker) SetClock(clock func() time.Time) {
	l.clock = clock
}

func (l *MemoryLocker) Acquire(ctx context.Context, key string, lease time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if cur, ok := l.held[key]; ok && now.Before(cur.expires) {
		return nil, false, nil
	}

	token := uuid.NewString()
	l.held[key] = memoryLease{token: token, expires: now.Add(lease)}

	release := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if cur, ok := l.held[key]; ok && cur.token == token {
			delete(l.held, key)
		}
	}
	return release, true, nil
}
