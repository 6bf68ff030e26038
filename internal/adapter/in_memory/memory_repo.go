package in_memory

import (
	"context"
	"sync"
	"time"

	"github.com/olyamironova/ledger-engine/internal/domain"
	"github.com/olyamironova/ledger-engine/internal/port"
	"github.com/shopspring/decimal"
)

// MemoryRepo is the in-process Repository used in tests. The exported *Err
// fields inject failures into individual DAO calls.
type MemoryRepo struct {
	mu                sync.Mutex
	balances          map[string]*domain.Balance
	transactions      map[string][]*domain.BalanceTransaction
	orders            map[string]*domain.Order
	assetBalances     map[string]map[string]*domain.AssetBalance
	assetTransactions map[string][]*domain.AssetTransaction

	GetBalanceErr             error
	CreateBalanceErr          error
	UpdateBalanceErr          error
	CreateTransactionErr      error
	CreateOrderErr            error
	UpdateOrderStatusErr      error
	UpsertAssetBalanceErr     error
	CreateAssetTransactionErr error
}

var _ port.Repository = (*MemoryRepo)(nil)

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		balances:          make(map[string]*domain.Balance),
		transactions:      make(map[string][]*domain.BalanceTransaction),
		orders:            make(map[string]*domain.Order),
		assetBalances:     make(map[string]map[string]*domain.AssetBalance),
		assetTransactions: make(map[string][]*domain.AssetTransaction),
	}
}

func (r *MemoryRepo) GetBalance(ctx context.Context, username string) (*domain.Balance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.GetBalanceErr != nil {
		return nil, r.GetBalanceErr
	}
	b, ok := r.balances[username]
	if !ok {
		return nil, port.ErrNotFound
	}
	copyBal := *b
	return &copyBal, nil
}

func (r *MemoryRepo) CreateBalance(ctx context.Context, username string) (*domain.Balance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CreateBalanceErr != nil {
		return nil, r.CreateBalanceErr
	}
	now := time.Now().UTC()
	b := &domain.Balance{
		Username:       username,
		CurrentBalance: decimal.Zero,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	r.balances[username] = b
	copyBal := *b
	return &copyBal, nil
}

func (r *MemoryRepo) UpdateBalance(ctx context.Context, username string, newBalance decimal.Decimal) (*domain.Balance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.UpdateBalanceErr != nil {
		return nil, r.UpdateBalanceErr
	}
	b, ok := r.balances[username]
	if !ok {
		return nil, port.ErrNotFound
	}
	b.CurrentBalance = newBalance
	b.UpdatedAt = time.Now().UTC()
	copyBal := *b
	return &copyBal, nil
}

func (r *MemoryRepo) CreateTransaction(ctx context.Context, tx *domain.BalanceTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CreateTransactionErr != nil {
		return r.CreateTransactionErr
	}
	copyTx := *tx
	r.transactions[tx.Username] = append(r.transactions[tx.Username], &copyTx)
	return nil
}

func (r *MemoryRepo) ListTransactions(ctx context.Context, username string, limit int) ([]*domain.BalanceTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	txs := r.transactions[username]
	res := make([]*domain.BalanceTransaction, 0, len(txs))
	// newest first
	for i := len(txs) - 1; i >= 0; i-- {
		if limit > 0 && len(res) >= limit {
			break
		}
		copyTx := *txs[i]
		res = append(res, &copyTx)
	}
	return res, nil
}

func (r *MemoryRepo) CreateOrder(ctx context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CreateOrderErr != nil {
		return r.CreateOrderErr
	}
	copyOrder := *o
	r.orders[o.OrderID] = &copyOrder
	return nil
}

func (r *MemoryRepo) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return nil, port.ErrNotFound
	}
	copyOrder := *o
	return &copyOrder, nil
}

func (r *MemoryRepo) UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.UpdateOrderStatusErr != nil {
		return nil, r.UpdateOrderStatusErr
	}
	o, ok := r.orders[orderID]
	if !ok {
		return nil, port.ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	copyOrder := *o
	return &copyOrder, nil
}

func (r *MemoryRepo) GetAssetBalance(ctx context.Context, username, assetID string) (*domain.AssetBalance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ab, ok := r.assetBalances[username][assetID]
	if !ok {
		return nil, port.ErrNotFound
	}
	copyBal := *ab
	return &copyBal, nil
}

func (r *MemoryRepo) UpsertAssetBalance(ctx context.Context, username, assetID string, delta decimal.Decimal) (*domain.AssetBalance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.UpsertAssetBalanceErr != nil {
		return nil, r.UpsertAssetBalanceErr
	}
	now := time.Now().UTC()
	byAsset, ok := r.assetBalances[username]
	if !ok {
		byAsset = make(map[string]*domain.AssetBalance)
		r.assetBalances[username] = byAsset
	}
	ab, ok := byAsset[assetID]
	if !ok {
		ab = &domain.AssetBalance{
			Username:  username,
			AssetID:   assetID,
			Quantity:  decimal.Zero,
			CreatedAt: now,
		}
		byAsset[assetID] = ab
	}
	ab.Quantity = ab.Quantity.Add(delta)
	ab.UpdatedAt = now
	copyBal := *ab
	return &copyBal, nil
}

func (r *MemoryRepo) ListAssetBalances(ctx context.Context, username string) ([]*domain.AssetBalance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []*domain.AssetBalance
	for _, ab := range r.assetBalances[username] {
		copyBal := *ab
		res = append(res, &copyBal)
	}
	return res, nil
}

func (r *MemoryRepo) CreateAssetTransaction(ctx context.Context, tx *domain.AssetTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CreateAssetTransactionErr != nil {
		return r.CreateAssetTransactionErr
	}
	copyTx := *tx
	r.assetTransactions[tx.Username] = append(r.assetTransactions[tx.Username], &copyTx)
	return nil
}

func (r *MemoryRepo) ListAssetTransactions(ctx context.Context, username string, limit int) ([]*domain.AssetTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	txs := r.assetTransactions[username]
	res := make([]*domain.AssetTransaction, 0, len(txs))
	for i := len(txs) - 1; i >= 0; i-- {
		if limit > 0 && len(res) >= limit {
			break
		}
		copyTx := *txs[i]
		res = append(res, &copyTx)
	}
	return res, nil
}
