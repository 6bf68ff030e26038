package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/olyamironova/ledger-engine/internal/domain"
	"github.com/olyamironova/ledger-engine/internal/port"
	"github.com/shopspring/decimal"
)

var _ port.Repository = (*PgRepo)(nil)

type PgRepo struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PgRepo {
	return &PgRepo{pool: pool}
}

// call Close when finished working with the database.
func (p *PgRepo) Close(ctx context.Context) {
	if p.pool != nil {
		p.pool.Close()
	}
}

func (p *PgRepo) GetBalance(ctx context.Context, username string) (*domain.Balance, error) {
	var b domain.Balance
	err := p.pool.QueryRow(ctx, `
SELECT username, current_balance, created_at, updated_at
FROM balances
WHERE username = $1
`, username).Scan(&b.Username, &b.CurrentBalance, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (p *PgRepo) CreateBalance(ctx context.Context, username string) (*domain.Balance, error) {
	var b domain.Balance
	err := p.pool.QueryRow(ctx, `
INSERT INTO balances(username, current_balance, created_at, updated_at)
VALUES($1, 0, NOW(), NOW())
ON CONFLICT (username) DO UPDATE SET updated_at = balances.updated_at
RETURNING username, current_balance, created_at, updated_at
`, username).Scan(&b.Username, &b.CurrentBalance, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (p *PgRepo) UpdateBalance(ctx context.Context, username string, newBalance decimal.Decimal) (*domain.Balance, error) {
	var b domain.Balance
	err := p.pool.QueryRow(ctx, `
UPDATE balances
SET current_balance = $1, updated_at = NOW()
WHERE username = $2
RETURNING username, current_balance, created_at, updated_at
`, newBalance, username).Scan(&b.Username, &b.CurrentBalance, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (p *PgRepo) CreateTransaction(ctx context.Context, tx *domain.BalanceTransaction) error {
	if tx == nil {
		return errors.New("nil transaction")
	}
	_, err := p.pool.Exec(ctx, `
INSERT INTO balance_transactions(transaction_id, username, transaction_type, amount, description, status, reference_id, created_at)
VALUES($1,$2,$3,$4,$5,$6,NULLIF($7,''),$8)
`, tx.TransactionID, tx.Username, string(tx.Type), tx.Amount, tx.Description, string(tx.Status), tx.ReferenceID, tx.CreatedAt)
	return err
}

func (p *PgRepo) ListTransactions(ctx context.Context, username string, limit int) ([]*domain.BalanceTransaction, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := p.pool.Query(ctx, `
SELECT transaction_id, username, transaction_type, amount, description, status, COALESCE(reference_id, ''), created_at
FROM balance_transactions
WHERE username = $1
ORDER BY created_at DESC
LIMIT $2
`, username, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.BalanceTransaction
	for rows.Next() {
		var tx domain.BalanceTransaction
		var txType, status string
		if err := rows.Scan(&tx.TransactionID, &tx.Username, &txType, &tx.Amount, &tx.Description, &status, &tx.ReferenceID, &tx.CreatedAt); err != nil {
			return nil, err
		}
		tx.Type = domain.TransactionType(txType)
		tx.Status = domain.TransactionStatus(status)
		res = append(res, &tx)
	}
	return res, rows.Err()
}

func (p *PgRepo) CreateOrder(ctx context.Context, o *domain.Order) error {
	if o == nil {
		return errors.New("nil order")
	}
	_, err := p.pool.Exec(ctx, `
INSERT INTO orders(order_id, username, order_type, asset_id, quantity, price, total_amount, status, created_at, updated_at)
VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`, o.OrderID, o.Username, string(o.Type), o.AssetID, o.Quantity, o.Price, o.TotalAmount, string(o.Status), o.CreatedAt, o.UpdatedAt)
	return err
}

func (p *PgRepo) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	var o domain.Order
	var oType, status string
	err := p.pool.QueryRow(ctx, `
SELECT order_id, username, order_type, asset_id, quantity, price, total_amount, status, created_at, updated_at
FROM orders
WHERE order_id = $1
`, orderID).Scan(&o.OrderID, &o.Username, &oType, &o.AssetID, &o.Quantity, &o.Price, &o.TotalAmount, &status, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	o.Type = domain.OrderType(oType)
	o.Status = domain.OrderStatus(status)
	return &o, nil
}

func (p *PgRepo) UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	var o domain.Order
	var oType, st string
	err := p.pool.QueryRow(ctx, `
UPDATE orders
SET status = $1, updated_at = NOW()
WHERE order_id = $2
RETURNING order_id, username, order_type, asset_id, quantity, price, total_amount, status, created_at, updated_at
`, string(status), orderID).Scan(&o.OrderID, &o.Username, &oType, &o.AssetID, &o.Quantity, &o.Price, &o.TotalAmount, &st, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	o.Type = domain.OrderType(oType)
	o.Status = domain.OrderStatus(st)
	return &o, nil
}

func (p *PgRepo) GetAssetBalance(ctx context.Context, username, assetID string) (*domain.AssetBalance, error) {
	var ab domain.AssetBalance
	err := p.pool.QueryRow(ctx, `
SELECT username, asset_id, quantity, created_at, updated_at
FROM asset_balances
WHERE username = $1 AND asset_id = $2
`, username, assetID).Scan(&ab.Username, &ab.AssetID, &ab.Quantity, &ab.CreatedAt, &ab.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ab, nil
}

// UpsertAssetBalance applies quantity_delta atomically at the row level.
func (p *PgRepo) UpsertAssetBalance(ctx context.Context, username, assetID string, delta decimal.Decimal) (*domain.AssetBalance, error) {
	var ab domain.AssetBalance
	err := p.pool.QueryRow(ctx, `
INSERT INTO asset_balances(username, asset_id, quantity, created_at, updated_at)
VALUES($1,$2,$3,NOW(),NOW())
ON CONFLICT (username, asset_id) DO UPDATE SET
  quantity = asset_balances.quantity + EXCLUDED.quantity,
  updated_at = NOW()
RETURNING username, asset_id, quantity, created_at, updated_at
`, username, assetID, delta).Scan(&ab.Username, &ab.AssetID, &ab.Quantity, &ab.CreatedAt, &ab.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &ab, nil
}

func (p *PgRepo) ListAssetBalances(ctx context.Context, username string) ([]*domain.AssetBalance, error) {
	rows, err := p.pool.Query(ctx, `
SELECT username, asset_id, quantity, created_at, updated_at
FROM asset_balances
WHERE username = $1
ORDER BY asset_id
`, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.AssetBalance
	for rows.Next() {
		var ab domain.AssetBalance
		if err := rows.Scan(&ab.Username, &ab.AssetID, &ab.Quantity, &ab.CreatedAt, &ab.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, &ab)
	}
	return res, rows.Err()
}

func (p *PgRepo) CreateAssetTransaction(ctx context.Context, tx *domain.AssetTransaction) error {
	if tx == nil {
		return errors.New("nil asset transaction")
	}
	_, err := p.pool.Exec(ctx, `
INSERT INTO asset_transactions(transaction_id, username, asset_id, transaction_type, quantity, price, total_amount, order_id, status, created_at)
VALUES($1,$2,$3,$4,$5,$6,$7,NULLIF($8,''),$9,$10)
`, tx.TransactionID, tx.Username, tx.AssetID, string(tx.Type), tx.Quantity, tx.Price, tx.TotalAmount, tx.OrderID, string(tx.Status), tx.CreatedAt)
	return err
}

func (p *PgRepo) ListAssetTransactions(ctx context.Context, username string, limit int) ([]*domain.AssetTransaction, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := p.pool.Query(ctx, `
SELECT transaction_id, username, asset_id, transaction_type, quantity, price, total_amount, COALESCE(order_id, ''), status, created_at
FROM asset_transactions
WHERE username = $1
ORDER BY created_at DESC
LIMIT $2
`, username, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.AssetTransaction
	for rows.Next() {
		var tx domain.AssetTransaction
		var txType, status string
		if err := rows.Scan(&tx.TransactionID, &tx.Username, &tx.AssetID, &txType, &tx.Quantity, &tx.Price, &tx.TotalAmount, &tx.OrderID, &status, &tx.CreatedAt); err != nil {
			return nil, err
		}
		tx.Type = domain.AssetTransactionType(txType)
		tx.Status = domain.TransactionStatus(status)
		res = append(res, &tx)
	}
	return res, rows.Err()
}
