package in_memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/olyamironova/ledger-engine/internal/domain"
	"github.com/olyamironova/ledger-engine/internal/port"
)

// LockStore is the in-process lock used in tests. TTL expiry is honoured so
// an abandoned lock does not block the resource forever.
type LockStore struct {
	mu      sync.Mutex
	held    map[string]heldLock
	retryIn time.Duration
}

type heldLock struct {
	token     string
	expiresAt time.Time
}

var _ port.LockStore = (*LockStore)(nil)

func NewLockStore() *LockStore {
	return &LockStore{
		held:    make(map[string]heldLock),
		retryIn: time.Millisecond,
	}
}

func (s *LockStore) Acquire(ctx context.Context, resource string, ttl, timeout time.Duration) (*port.Lock, error) {
	deadline := time.Now().Add(timeout)
	for {
		if l, ok := s.tryAcquire(resource, ttl); ok {
			return l, nil
		}
		if time.Now().After(deadline) {
			return nil, &domain.LockAcquisitionError{Resource: resource, Timeout: timeout}
		}
		select {
		case <-ctx.Done():
			return nil, &domain.LockAcquisitionError{Resource: resource, Timeout: timeout, Err: ctx.Err()}
		case <-time.After(s.retryIn):
		}
	}
}

func (s *LockStore) tryAcquire(resource string, ttl time.Duration) (*port.Lock, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if h, ok := s.held[resource]; ok && now.Before(h.expiresAt) {
		return nil, false
	}
	token := uuid.NewString()
	s.held[resource] = heldLock{token: token, expiresAt: now.Add(ttl)}
	return &port.Lock{Resource: resource, Token: token, AcquiredAt: now}, true
}

func (s *LockStore) Release(ctx context.Context, lock *port.Lock) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.held[lock.Resource]
	if !ok || h.token != lock.Token {
		return false, nil
	}
	delete(s.held, lock.Resource)
	return true, nil
}
