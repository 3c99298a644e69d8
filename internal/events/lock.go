package events

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// LocalLock is an in-process SeedLock with lease expiry.
type LocalLock struct {
	mu     sync.Mutex
	clock  clockwork.Clock
	leases map[string]lease
	next   uint64
}

type lease struct {
	token   uint64
	expires time.Time
}

// NewLocalLock returns an empty lock table.
func NewLocalLock(clock clockwork.Clock) *LocalLock {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &LocalLock{clock: clock, leases: make(map[string]lease)}
}

// Acquire takes key for ttl unless an unexpired lease exists. The returned
// release only frees the lease it created.
func (l *LocalLock) Acquire(_ context.Context, key string, ttl time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if cur, ok := l.leases[key]; ok && now.Before(cur.expires) {
		return nil, false, nil
	}

	l.next++
	token := l.next
	l.leases[key] = lease{token: token, expires: now.Add(ttl)}

	var once sync.Once
	release := func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			if cur, ok := l.leases[key]; ok && cur.token == token {
				delete(l.leases, key)
			}
		})
	}
	return release, true, nil
}
