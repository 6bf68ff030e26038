package port

import (
	"context"
	"errors"

	"github.com/olyamironova/ledger-engine/internal/domain"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by any repository method when the requested entity
// does not exist. The transaction manager maps it contextually.
var ErrNotFound = errors.New("entity not found")

// Each repository is assumed atomic at the single-item level but not across
// entities; cross-entity consistency is the transaction manager's job.

type BalanceRepository interface {
	GetBalance(ctx context.Context, username string) (*domain.Balance, error)
	CreateBalance(ctx context.Context, username string) (*domain.Balance, error)
	UpdateBalance(ctx context.Context, username string, newBalance decimal.Decimal) (*domain.Balance, error)
	CreateTransaction(ctx context.Context, tx *domain.BalanceTransaction) error
	ListTransactions(ctx context.Context, username string, limit int) ([]*domain.BalanceTransaction, error)
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, o *domain.Order) error
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error)
}

type AssetBalanceRepository interface {
	GetAssetBalance(ctx context.Context, username, assetID string) (*domain.AssetBalance, error)
	UpsertAssetBalance(ctx context.Context, username, assetID string, delta decimal.Decimal) (*domain.AssetBalance, error)
	ListAssetBalances(ctx context.Context, username string) ([]*domain.AssetBalance, error)
}

type AssetTransactionRepository interface {
	CreateAssetTransaction(ctx context.Context, tx *domain.AssetTransaction) error
	ListAssetTransactions(ctx context.Context, username string, limit int) ([]*domain.AssetTransaction, error)
}

// Repository aggregates the per-entity DAOs; concrete adapters implement all
// of them over one backing store.
type Repository interface {
	BalanceRepository
	OrderRepository
	AssetBalanceRepository
	AssetTransactionRepository
}
