package port

import (
	"context"
	"time"
)

// Lock is an acquired advisory lock. The token fences the release so an
// expired lock taken over by another holder is never deleted by mistake.
type Lock struct {
	Resource   string
	Token      string
	AcquiredAt time.Time
}

// LockStore provides named mutual exclusion. Acquire blocks up to timeout and
// returns *domain.LockAcquisitionError when the lock is held by a concurrent
// in-flight mutation for the same resource. Release reports whether the lock
// was still held by this token.
type LockStore interface {
	Acquire(ctx context.Context, resource string, ttl, timeout time.Duration) (*Lock, error)
	Release(ctx context.Context, lock *Lock) (bool, error)
}
