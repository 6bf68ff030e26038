package redislock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/olyamironova/ledger-engine/internal/domain"
	"github.com/olyamironova/ledger-engine/internal/port"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while the caller still owns it, so a
// lock that expired and was re-acquired by another holder is never removed.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`)

const retryInterval = 25 * time.Millisecond

// Store implements port.LockStore on Redis SET NX with per-holder tokens.
type Store struct {
	client *redis.Client
}

var _ port.LockStore = (*Store)(nil)

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Acquire(ctx context.Context, resource string, ttl, timeout time.Duration) (*port.Lock, error) {
	token := uuid.NewString()
	deadline := time.Now().Add(timeout)

	for {
		ok, err := s.client.SetNX(ctx, resource, token, ttl).Result()
		if err != nil {
			return nil, &domain.LockAcquisitionError{Resource: resource, Timeout: timeout, Err: err}
		}
		if ok {
			return &port.Lock{Resource: resource, Token: token, AcquiredAt: time.Now()}, nil
		}
		if time.Now().After(deadline) {
			return nil, &domain.LockAcquisitionError{Resource: resource, Timeout: timeout}
		}
		select {
		case <-ctx.Done():
			return nil, &domain.LockAcquisitionError{Resource: resource, Timeout: timeout, Err: ctx.Err()}
		case <-time.After(retryInterval):
		}
	}
}

func (s *Store) Release(ctx context.Context, lock *port.Lock) (bool, error) {
	n, err := releaseScript.Run(ctx, s.client, []string{lock.Resource}, lock.Token).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
