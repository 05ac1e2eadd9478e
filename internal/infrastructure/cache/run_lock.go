package cache

import (
	"context"
	"time"
)

// RunLock guards a named critical section across scheduler ticks and, with
// Redis, across process instances.
type RunLock interface {
	// Acquire takes the lock for ttl. It returns false if another holder has it.
	Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error)
	// Release drops the lock if this holder still owns it
	Release(ctx context.Context, name string) error
	Close() error
}
