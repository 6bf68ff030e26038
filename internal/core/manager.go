package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/olyamironova/ledger-engine/internal/domain"
	"github.com/olyamironova/ledger-engine/internal/observability"
	"github.com/olyamironova/ledger-engine/internal/port"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	defaultLockTTL     = 30 * time.Second
	defaultLockTimeout = 5 * time.Second
)

// TransactionManager orchestrates locked, multi-entity balance and order
// mutations. All cross-entity consistency lives here: the repositories are
// atomic per item only, and the per-user lock is the sole serialization
// mechanism.
type TransactionManager struct {
	repo    port.Repository
	locks   port.LockStore
	cache   port.Cache
	pub     port.EventPublisher
	metrics *observability.Metrics
	log     zerolog.Logger

	lockTTL     time.Duration
	lockTimeout time.Duration
}

// ManagerOptions carries the optional collaborators; zero values disable the
// corresponding concern.
type ManagerOptions struct {
	Cache       port.Cache
	Publisher   port.EventPublisher
	Metrics     *observability.Metrics
	Logger      *zerolog.Logger
	LockTTL     time.Duration
	LockTimeout time.Duration
}

func NewTransactionManager(repo port.Repository, locks port.LockStore, opts ManagerOptions) *TransactionManager {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	ttl := opts.LockTTL
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	timeout := opts.LockTimeout
	if timeout <= 0 {
		timeout = defaultLockTimeout
	}
	return &TransactionManager{
		repo:        repo,
		locks:       locks,
		cache:       opts.Cache,
		pub:         opts.Publisher,
		metrics:     opts.Metrics,
		log:         log,
		lockTTL:     ttl,
		lockTimeout: timeout,
	}
}

// DepositFunds credits amount to the user's cash balance and appends one
// COMPLETED ledger entry, all under the per-user lock. A missing balance row
// is created at zero first.
func (m *TransactionManager) DepositFunds(ctx context.Context, username string, amount decimal.Decimal) (*TransactionResult, error) {
	if err := validateUsername(username); err != nil {
		m.metrics.RejectTx(string(domain.TxDeposit), "validation")
		return nil, err
	}
	if !amount.IsPositive() {
		m.metrics.RejectTx(string(domain.TxDeposit), "validation")
		return nil, &domain.ValidationError{Field: "amount", Reason: "must be positive"}
	}

	start := time.Now()
	var data TransactionData
	hold, err := m.withUserLock(ctx, username, func(ctx context.Context) error {
		bal, err := m.getOrCreateBalance(ctx, username)
		if err != nil {
			return m.daoErr("deposit", err)
		}
		tx := m.newTransaction(username, domain.TxDeposit, amount, "cash deposit", "")
		if err := m.repo.CreateTransaction(ctx, tx); err != nil {
			return m.daoErr("deposit", err)
		}
		updated, err := m.repo.UpdateBalance(ctx, username, bal.CurrentBalance.Add(amount))
		if err != nil {
			return m.daoErr("deposit", err)
		}
		m.invalidateBalance(ctx, username)
		data = TransactionData{Transaction: tx, Balance: updated, Amount: amount}
		return nil
	})
	if err != nil {
		m.reject(domain.TxDeposit, err)
		return nil, err
	}

	m.metrics.ObserveTx(string(domain.TxDeposit), time.Since(start))
	m.publishTx(ctx, data.Transaction)
	return &TransactionResult{Success: true, Data: data, LockDuration: hold}, nil
}

// WithdrawFunds debits amount from the user's cash balance. The sufficiency
// check and the decrement are evaluated against the same locked read; an
// unlocked pre-check would reintroduce the race the lock exists to prevent.
func (m *TransactionManager) WithdrawFunds(ctx context.Context, username string, amount decimal.Decimal) (*TransactionResult, error) {
	if err := validateUsername(username); err != nil {
		m.metrics.RejectTx(string(domain.TxWithdraw), "validation")
		return nil, err
	}
	if !amount.IsPositive() {
		m.metrics.RejectTx(string(domain.TxWithdraw), "validation")
		return nil, &domain.ValidationError{Field: "amount", Reason: "must be positive"}
	}

	start := time.Now()
	var data TransactionData
	hold, err := m.withUserLock(ctx, username, func(ctx context.Context) error {
		// A missing balance row is deliberately folded into the generic
		// withdrawal failure; the not-found detail stays at this layer.
		bal, err := m.repo.GetBalance(ctx, username)
		if err != nil {
			return m.daoErr("withdrawal", err)
		}
		if bal.CurrentBalance.LessThan(amount) {
			return &domain.InsufficientBalanceError{
				Username:  username,
				Available: bal.CurrentBalance,
				Requested: amount,
			}
		}
		tx := m.newTransaction(username, domain.TxWithdraw, amount, "cash withdrawal", "")
		if err := m.repo.CreateTransaction(ctx, tx); err != nil {
			return m.daoErr("withdrawal", err)
		}
		updated, err := m.repo.UpdateBalance(ctx, username, bal.CurrentBalance.Sub(amount))
		if err != nil {
			return m.daoErr("withdrawal", err)
		}
		m.invalidateBalance(ctx, username)
		data = TransactionData{Transaction: tx, Balance: updated, Amount: amount}
		return nil
	})
	if err != nil {
		m.reject(domain.TxWithdraw, err)
		return nil, err
	}

	m.metrics.ObserveTx(string(domain.TxWithdraw), time.Since(start))
	m.publishTx(ctx, data.Transaction)
	return &TransactionResult{Success: true, Data: data, LockDuration: hold}, nil
}

// CreateBuyOrderWithBalanceUpdate creates the order, debits totalCost from
// the cash balance, credits the asset balance and appends both ledger
// entries. The steps run as a saga: a failure after the order row exists
// unwinds the already-applied steps before the error propagates.
func (m *TransactionManager) CreateBuyOrderWithBalanceUpdate(ctx context.Context, username, assetID string, quantity, price decimal.Decimal, orderType domain.OrderType, totalCost decimal.Decimal) (*TransactionResult, error) {
	if err := validateOrderInput(username, assetID, quantity, price); err != nil {
		m.metrics.RejectTx(string(domain.TxBuyOrder), "validation")
		return nil, err
	}
	if !orderType.IsBuy() {
		m.metrics.RejectTx(string(domain.TxBuyOrder), "validation")
		return nil, &domain.ValidationError{Field: "order_type", Reason: "not a buy order type"}
	}
	totalCost, err := normalizeTotal(totalCost, quantity, price, "total_cost")
	if err != nil {
		m.metrics.RejectTx(string(domain.TxBuyOrder), "validation")
		return nil, err
	}

	start := time.Now()
	var data TransactionData
	hold, err := m.withUserLock(ctx, username, func(ctx context.Context) error {
		bal, err := m.repo.GetBalance(ctx, username)
		if errors.Is(err, port.ErrNotFound) {
			return &domain.InsufficientBalanceError{
				Username:  username,
				Available: decimal.Zero,
				Requested: totalCost,
			}
		}
		if err != nil {
			return m.daoErr("buy order", err)
		}
		if bal.CurrentBalance.LessThan(totalCost) {
			return &domain.InsufficientBalanceError{
				Username:  username,
				Available: bal.CurrentBalance,
				Requested: totalCost,
			}
		}

		order := m.newOrder(username, assetID, orderType, quantity, price, totalCost)
		tx := m.newTransaction(username, domain.TxBuyOrder,
			totalCost, fmt.Sprintf("buy %s %s", quantity, assetID), order.OrderID)

		var updated *domain.Balance
		sg := newSaga(m.log)
		sg.add("create order",
			func(ctx context.Context) error { return m.repo.CreateOrder(ctx, order) },
			func(ctx context.Context) error {
				_, err := m.repo.UpdateOrderStatus(ctx, order.OrderID, domain.OrderCancelled)
				return err
			})
		sg.add("append debit ledger entry",
			func(ctx context.Context) error { return m.repo.CreateTransaction(ctx, tx) },
			func(ctx context.Context) error {
				return m.repo.CreateTransaction(ctx, m.newTransaction(username, domain.TxRefund,
					totalCost, "reversal of "+tx.TransactionID, order.OrderID))
			})
		sg.add("apply balance debit",
			func(ctx context.Context) error {
				var err error
				updated, err = m.repo.UpdateBalance(ctx, username, bal.CurrentBalance.Sub(totalCost))
				return err
			},
			func(ctx context.Context) error {
				_, err := m.repo.UpdateBalance(ctx, username, bal.CurrentBalance)
				return err
			})
		sg.add("credit asset balance",
			func(ctx context.Context) error {
				_, err := m.repo.UpsertAssetBalance(ctx, username, assetID, quantity)
				return err
			},
			func(ctx context.Context) error {
				_, err := m.repo.UpsertAssetBalance(ctx, username, assetID, quantity.Neg())
				return err
			})
		sg.add("append asset ledger entry",
			func(ctx context.Context) error {
				return m.repo.CreateAssetTransaction(ctx, m.newAssetTransaction(
					username, assetID, domain.AssetTxBuy, quantity, price, totalCost, order.OrderID))
			},
			nil)

		if err := sg.run(ctx); err != nil {
			return m.daoErr("buy order", err)
		}
		m.invalidateBalance(ctx, username)
		data = TransactionData{Order: order, Transaction: tx, Balance: updated, Amount: totalCost}
		return nil
	})
	if err != nil {
		m.reject(domain.TxBuyOrder, err)
		return nil, err
	}

	m.metrics.ObserveTx(string(domain.TxBuyOrder), time.Since(start))
	m.publishTx(ctx, data.Transaction)
	return &TransactionResult{Success: true, Data: data, LockDuration: hold}, nil
}

// CreateSellOrderWithBalanceUpdate creates the order, credits assetAmount to
// the cash balance and debits the asset balance. Asset sufficiency is
// validated under the lock before the order row is created.
func (m *TransactionManager) CreateSellOrderWithBalanceUpdate(ctx context.Context, username, assetID string, quantity, price decimal.Decimal, orderType domain.OrderType, assetAmount decimal.Decimal) (*TransactionResult, error) {
	if err := validateOrderInput(username, assetID, quantity, price); err != nil {
		m.metrics.RejectTx(string(domain.TxSellOrder), "validation")
		return nil, err
	}
	if orderType.IsBuy() {
		m.metrics.RejectTx(string(domain.TxSellOrder), "validation")
		return nil, &domain.ValidationError{Field: "order_type", Reason: "not a sell order type"}
	}
	assetAmount, err := normalizeTotal(assetAmount, quantity, price, "asset_amount")
	if err != nil {
		m.metrics.RejectTx(string(domain.TxSellOrder), "validation")
		return nil, err
	}

	start := time.Now()
	var data TransactionData
	hold, err := m.withUserLock(ctx, username, func(ctx context.Context) error {
		held, err := m.repo.GetAssetBalance(ctx, username, assetID)
		if errors.Is(err, port.ErrNotFound) {
			return &domain.InsufficientAssetBalanceError{
				Username:  username,
				AssetID:   assetID,
				Available: decimal.Zero,
				Requested: quantity,
			}
		}
		if err != nil {
			return m.daoErr("sell order", err)
		}
		if held.Quantity.LessThan(quantity) {
			return &domain.InsufficientAssetBalanceError{
				Username:  username,
				AssetID:   assetID,
				Available: held.Quantity,
				Requested: quantity,
			}
		}
		bal, err := m.getOrCreateBalance(ctx, username)
		if err != nil {
			return m.daoErr("sell order", err)
		}

		order := m.newOrder(username, assetID, orderType, quantity, price, assetAmount)
		tx := m.newTransaction(username, domain.TxSellOrder,
			assetAmount, fmt.Sprintf("sell %s %s", quantity, assetID), order.OrderID)

		var updated *domain.Balance
		sg := newSaga(m.log)
		sg.add("create order",
			func(ctx context.Context) error { return m.repo.CreateOrder(ctx, order) },
			func(ctx context.Context) error {
				_, err := m.repo.UpdateOrderStatus(ctx, order.OrderID, domain.OrderCancelled)
				return err
			})
		sg.add("append credit ledger entry",
			func(ctx context.Context) error { return m.repo.CreateTransaction(ctx, tx) },
			func(ctx context.Context) error {
				return m.repo.CreateTransaction(ctx, m.newTransaction(username, domain.TxRefund,
					assetAmount, "reversal of "+tx.TransactionID, order.OrderID))
			})
		sg.add("apply balance credit",
			func(ctx context.Context) error {
				var err error
				updated, err = m.repo.UpdateBalance(ctx, username, bal.CurrentBalance.Add(assetAmount))
				return err
			},
			func(ctx context.Context) error {
				_, err := m.repo.UpdateBalance(ctx, username, bal.CurrentBalance)
				return err
			})
		sg.add("debit asset balance",
			func(ctx context.Context) error {
				_, err := m.repo.UpsertAssetBalance(ctx, username, assetID, quantity.Neg())
				return err
			},
			func(ctx context.Context) error {
				_, err := m.repo.UpsertAssetBalance(ctx, username, assetID, quantity)
				return err
			})
		sg.add("append asset ledger entry",
			func(ctx context.Context) error {
				return m.repo.CreateAssetTransaction(ctx, m.newAssetTransaction(
					username, assetID, domain.AssetTxSell, quantity, price, assetAmount, order.OrderID))
			},
			nil)

		if err := sg.run(ctx); err != nil {
			return m.daoErr("sell order", err)
		}
		m.invalidateBalance(ctx, username)
		data = TransactionData{Order: order, Transaction: tx, Balance: updated, Amount: assetAmount}
		return nil
	})
	if err != nil {
		m.reject(domain.TxSellOrder, err)
		return nil, err
	}

	m.metrics.ObserveTx(string(domain.TxSellOrder), time.Since(start))
	m.publishTx(ctx, data.Transaction)
	return &TransactionResult{Success: true, Data: data, LockDuration: hold}, nil
}

// UpdateOrderStatus advances an order through the fulfillment state machine.
// An illegal transition is rejected without mutating the order row.
// Cancelling a still-PENDING order releases the funds it reserved: the cash
// debit and asset credit of a buy are reversed, and vice versa for a sell,
// with compensating ledger entries.
func (m *TransactionManager) UpdateOrderStatus(ctx context.Context, orderID string, next domain.OrderStatus) (*TransactionResult, error) {
	o, err := m.repo.GetOrder(ctx, orderID)
	if errors.Is(err, port.ErrNotFound) {
		return nil, &domain.EntityNotFoundError{Entity: "order", Key: orderID}
	}
	if err != nil {
		return nil, m.daoErr("order status update", err)
	}

	var data TransactionData
	hold, err := m.withUserLock(ctx, o.Username, func(ctx context.Context) error {
		o, err := m.repo.GetOrder(ctx, orderID)
		if err != nil {
			return m.daoErr("order status update", err)
		}
		if !o.Status.CanTransitionTo(next) {
			m.log.Warn().
				Str("order_id", orderID).
				Str("from", string(o.Status)).
				Str("to", string(next)).
				Msg("illegal order status transition rejected")
			return &domain.OrderStateError{OrderID: orderID, From: o.Status, To: next}
		}
		if next == domain.OrderCancelled && o.Status == domain.OrderPending {
			if err := m.releaseOrderReservation(ctx, o); err != nil {
				return err
			}
		}
		updated, err := m.repo.UpdateOrderStatus(ctx, orderID, next)
		if err != nil {
			return m.daoErr("order status update", err)
		}
		data = TransactionData{Order: updated}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &TransactionResult{Success: true, Data: data, LockDuration: hold}, nil
}

// releaseOrderReservation undoes the balance and asset movement a PENDING
// order applied at creation time. Runs inside the user's lock.
func (m *TransactionManager) releaseOrderReservation(ctx context.Context, o *domain.Order) error {
	bal, err := m.repo.GetBalance(ctx, o.Username)
	if err != nil {
		return m.daoErr("order cancellation", err)
	}

	if o.Type.IsBuy() {
		refund := m.newTransaction(o.Username, domain.TxRefund,
			o.TotalAmount, "refund for cancelled order", o.OrderID)
		if err := m.repo.CreateTransaction(ctx, refund); err != nil {
			return m.daoErr("order cancellation", err)
		}
		if _, err := m.repo.UpdateBalance(ctx, o.Username, bal.CurrentBalance.Add(o.TotalAmount)); err != nil {
			return m.daoErr("order cancellation", err)
		}
		if _, err := m.repo.UpsertAssetBalance(ctx, o.Username, o.AssetID, o.Quantity.Neg()); err != nil {
			return m.daoErr("order cancellation", err)
		}
	} else {
		// The sell credited cash up front; taking it back must not drive the
		// balance negative.
		if bal.CurrentBalance.LessThan(o.TotalAmount) {
			return &domain.InsufficientBalanceError{
				Username:  o.Username,
				Available: bal.CurrentBalance,
				Requested: o.TotalAmount,
			}
		}
		refund := m.newTransaction(o.Username, domain.TxRefund,
			o.TotalAmount, "reversal for cancelled order", o.OrderID)
		if err := m.repo.CreateTransaction(ctx, refund); err != nil {
			return m.daoErr("order cancellation", err)
		}
		if _, err := m.repo.UpdateBalance(ctx, o.Username, bal.CurrentBalance.Sub(o.TotalAmount)); err != nil {
			return m.daoErr("order cancellation", err)
		}
		if _, err := m.repo.UpsertAssetBalance(ctx, o.Username, o.AssetID, o.Quantity); err != nil {
			return m.daoErr("order cancellation", err)
		}
	}
	m.invalidateBalance(ctx, o.Username)
	return nil
}

// GetBalance serves reads cache-first; mutations invalidate the cache inside
// their locked section, so a hit is never staler than the last commit.
func (m *TransactionManager) GetBalance(ctx context.Context, username string) (*domain.Balance, error) {
	if m.cache != nil {
		if b, err := m.cache.GetBalance(ctx, username); err == nil && b != nil {
			m.metrics.CacheHit(true)
			return b, nil
		}
		m.metrics.CacheHit(false)
	}
	b, err := m.repo.GetBalance(ctx, username)
	if errors.Is(err, port.ErrNotFound) {
		return nil, &domain.EntityNotFoundError{Entity: "balance", Key: username}
	}
	if err != nil {
		return nil, m.daoErr("balance lookup", err)
	}
	if m.cache != nil {
		_ = m.cache.SetBalance(ctx, b)
	}
	return b, nil
}

func (m *TransactionManager) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	o, err := m.repo.GetOrder(ctx, orderID)
	if errors.Is(err, port.ErrNotFound) {
		return nil, &domain.EntityNotFoundError{Entity: "order", Key: orderID}
	}
	if err != nil {
		return nil, m.daoErr("order lookup", err)
	}
	return o, nil
}

func (m *TransactionManager) ListTransactions(ctx context.Context, username string, limit int) ([]*domain.BalanceTransaction, error) {
	txs, err := m.repo.ListTransactions(ctx, username, limit)
	if err != nil {
		return nil, m.daoErr("transaction history", err)
	}
	return txs, nil
}

func (m *TransactionManager) ListAssetBalances(ctx context.Context, username string) ([]*domain.AssetBalance, error) {
	bals, err := m.repo.ListAssetBalances(ctx, username)
	if err != nil {
		return nil, m.daoErr("asset balance lookup", err)
	}
	return bals, nil
}

func (m *TransactionManager) ListAssetTransactions(ctx context.Context, username string, limit int) ([]*domain.AssetTransaction, error) {
	txs, err := m.repo.ListAssetTransactions(ctx, username, limit)
	if err != nil {
		return nil, m.daoErr("asset transaction history", err)
	}
	return txs, nil
}

// --- helpers ---

func (m *TransactionManager) getOrCreateBalance(ctx context.Context, username string) (*domain.Balance, error) {
	bal, err := m.repo.GetBalance(ctx, username)
	if errors.Is(err, port.ErrNotFound) {
		return m.repo.CreateBalance(ctx, username)
	}
	return bal, err
}

func (m *TransactionManager) newTransaction(username string, txType domain.TransactionType, amount decimal.Decimal, description, referenceID string) *domain.BalanceTransaction {
	return &domain.BalanceTransaction{
		TransactionID: uuid.NewString(),
		Username:      username,
		Type:          txType,
		Amount:        amount,
		Description:   description,
		Status:        domain.TxCompleted,
		ReferenceID:   referenceID,
		CreatedAt:     time.Now().UTC(),
	}
}

func (m *TransactionManager) newAssetTransaction(username, assetID string, txType domain.AssetTransactionType, quantity, price, total decimal.Decimal, orderID string) *domain.AssetTransaction {
	return &domain.AssetTransaction{
		TransactionID: uuid.NewString(),
		Username:      username,
		AssetID:       assetID,
		Type:          txType,
		Quantity:      quantity,
		Price:         price,
		TotalAmount:   total,
		OrderID:       orderID,
		Status:        domain.TxCompleted,
		CreatedAt:     time.Now().UTC(),
	}
}

func (m *TransactionManager) newOrder(username, assetID string, orderType domain.OrderType, quantity, price, total decimal.Decimal) *domain.Order {
	now := time.Now().UTC()
	status := domain.OrderPending
	if orderType.IsMarket() {
		// Market orders execute against the quoted price immediately.
		status = domain.OrderCompleted
	}
	return &domain.Order{
		OrderID:     uuid.NewString(),
		Username:    username,
		Type:        orderType,
		AssetID:     assetID,
		Quantity:    quantity,
		Price:       price,
		TotalAmount: total,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// daoErr wraps an infrastructure failure, leaving already-typed domain errors
// untouched so business rejections keep their identity.
func (m *TransactionManager) daoErr(op string, err error) error {
	var (
		ib  *domain.InsufficientBalanceError
		iab *domain.InsufficientAssetBalanceError
		ose *domain.OrderStateError
		dbe *domain.DatabaseOperationError
	)
	if errors.As(err, &ib) || errors.As(err, &iab) || errors.As(err, &ose) || errors.As(err, &dbe) {
		return err
	}
	m.metrics.DAOError(op)
	m.log.Error().Err(err).Str("op", op).Msg("dao operation failed")
	return &domain.DatabaseOperationError{Op: op, Err: err}
}

func (m *TransactionManager) reject(txType domain.TransactionType, err error) {
	reason := "dao"
	var (
		ib  *domain.InsufficientBalanceError
		iab *domain.InsufficientAssetBalanceError
		lae *domain.LockAcquisitionError
	)
	switch {
	case errors.As(err, &ib), errors.As(err, &iab):
		reason = "insufficient_funds"
	case errors.As(err, &lae):
		reason = "lock_timeout"
	}
	m.metrics.RejectTx(string(txType), reason)
}

func (m *TransactionManager) invalidateBalance(ctx context.Context, username string) {
	if m.cache == nil {
		return
	}
	if err := m.cache.InvalidateBalance(ctx, username); err != nil {
		m.log.Warn().Err(err).Str("username", username).Msg("balance cache invalidation failed")
	}
}

func (m *TransactionManager) publishTx(ctx context.Context, tx *domain.BalanceTransaction) {
	if m.pub == nil || tx == nil {
		return
	}
	evt := port.TransactionEvent{
		TransactionID: tx.TransactionID,
		Username:      tx.Username,
		Type:          tx.Type,
		Amount:        tx.Amount,
		ReferenceID:   tx.ReferenceID,
		OccurredAt:    tx.CreatedAt,
	}
	if err := m.pub.PublishTransaction(ctx, evt); err != nil {
		m.metrics.PublishError()
		m.log.Warn().Err(err).Str("transaction_id", tx.TransactionID).Msg("event publish failed")
	}
}

func validateUsername(username string) error {
	if username == "" {
		return &domain.ValidationError{Field: "username", Reason: "must not be empty"}
	}
	return nil
}

func validateOrderInput(username, assetID string, quantity, price decimal.Decimal) error {
	if err := validateUsername(username); err != nil {
		return err
	}
	if assetID == "" {
		return &domain.ValidationError{Field: "asset_id", Reason: "must not be empty"}
	}
	if !quantity.IsPositive() {
		return &domain.ValidationError{Field: "quantity", Reason: "must be positive"}
	}
	if price.IsNegative() {
		return &domain.ValidationError{Field: "price", Reason: "must not be negative"}
	}
	return nil
}

// normalizeTotal derives the total from quantity x price when the caller
// omits it, and rejects a caller-supplied total that disagrees.
func normalizeTotal(total, quantity, price decimal.Decimal, field string) (decimal.Decimal, error) {
	expected := quantity.Mul(price)
	if total.IsZero() {
		return expected, nil
	}
	if total.IsNegative() {
		return decimal.Zero, &domain.ValidationError{Field: field, Reason: "must not be negative"}
	}
	if !price.IsZero() && !total.Equal(expected) {
		return decimal.Zero, &domain.ValidationError{Field: field, Reason: "does not equal quantity x price"}
	}
	return total, nil
}
