package core

import (
	"context"
	"errors"
	"time"

	"github.com/olyamironova/ledger-engine/internal/domain"
)

func userLockKey(username string) string { return "balance:" + username }

// withUserLock serializes all balance-affecting operations for one user.
// The lock is released on every exit path, panics included; the hold duration
// is returned for the TransactionResult. A release failure after the guarded
// section committed is logged and swallowed — the TTL expires the lock, and
// propagating it would report failure for a mutation that already happened.
func (m *TransactionManager) withUserLock(ctx context.Context, username string, fn func(ctx context.Context) error) (time.Duration, error) {
	resource := userLockKey(username)

	start := time.Now()
	lock, err := m.locks.Acquire(ctx, resource, m.lockTTL, m.lockTimeout)
	if err != nil {
		m.metrics.LockTimeout()
		var lae *domain.LockAcquisitionError
		if !errors.As(err, &lae) {
			err = &domain.LockAcquisitionError{Resource: resource, Timeout: m.lockTimeout, Err: err}
		}
		return 0, err
	}
	wait := time.Since(start)

	var hold time.Duration
	opErr := func() error {
		held := time.Now()
		defer func() {
			hold = time.Since(held)
			released, relErr := m.locks.Release(ctx, lock)
			if relErr != nil || !released {
				m.metrics.ReleaseFailed()
				m.log.Warn().
					Err(relErr).
					Str("resource", resource).
					Bool("released", released).
					Msg("lock release failed; relying on TTL expiry")
			}
		}()
		return fn(ctx)
	}()

	m.metrics.ObserveLock(wait, hold)
	return hold, opErr
}
