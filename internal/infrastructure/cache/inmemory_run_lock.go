package cache

import (
	"context"
	"sync"
	"time"
)

// InMemoryRunLock implements RunLock with a process-local map.
// It only guards a single instance.
type InMemoryRunLock struct {
	mu    sync.Mutex
	held  map[string]time.Time
	clock func() time.Time
}

// NewInMemoryRunLock creates an in-memory lock
func NewInMemoryRunLock() *InMemoryRunLock {
	return &InMemoryRunLock{
		held:  make(map[string]time.Time),
		clock: time.Now,
	}
}

// Acquire takes the lock unless it is held and not yet expired
func (l *InMemoryRunLock) Acquire(_ context.Context, name string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if expiresAt, ok := l.held[name]; ok && now.Before(expiresAt) {
		return false, nil
	}
	l.held[name] = now.Add(ttl)
	return true, nil
}

// Release drops the lock
func (l *InMemoryRunLock) Release(_ context.Context, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, name)
	return nil
}

// Close is a no-op
func (l *InMemoryRunLock) Close() error {
	return nil
}

// Ensure InMemoryRunLock implements RunLock
var _ RunLock = (*InMemoryRunLock)(nil)
