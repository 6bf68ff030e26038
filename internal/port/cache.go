package port

import (
	"context"

	"github.com/olyamironova/ledger-engine/internal/domain"
)

// Cache is a read-through cache for balance rows. Get returns (nil, nil) on a
// miss; mutations invalidate inside the locked section.
type Cache interface {
	GetBalance(ctx context.Context, username string) (*domain.Balance, error)
	SetBalance(ctx context.Context, b *domain.Balance) error
	InvalidateBalance(ctx context.Context, username string) error
}
