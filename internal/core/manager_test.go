package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olyamironova/ledger-engine/internal/adapter/in_memory"
	"github.com/olyamironova/ledger-engine/internal/domain"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newTestManager(repo *in_memory.MemoryRepo) *TransactionManager {
	return NewTransactionManager(repo, in_memory.NewLockStore(), ManagerOptions{
		Cache:       in_memory.NewCache(),
		LockTimeout: 2 * time.Second,
	})
}

func TestDepositCreatesBalanceAndLedgerEntry(t *testing.T) {
	repo := in_memory.NewMemoryRepo()
	mgr := newTestManager(repo)
	ctx := context.Background()

	res, err := mgr.DepositFunds(ctx, "alice", dec("100"))
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.True(t, res.Data.Balance.CurrentBalance.Equal(dec("100")))
	assert.Equal(t, domain.TxDeposit, res.Data.Transaction.Type)
	assert.Equal(t, domain.TxCompleted, res.Data.Transaction.Status)

	txs, err := mgr.ListTransactions(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.True(t, txs[0].Amount.Equal(dec("100")))
}

func TestDepositRejectsNonPositiveAmount(t *testing.T) {
	mgr := newTestManager(in_memory.NewMemoryRepo())
	ctx := context.Background()

	var valErr *domain.ValidationError
	_, err := mgr.DepositFunds(ctx, "alice", dec("0"))
	require.ErrorAs(t, err, &valErr)

	_, err = mgr.DepositFunds(ctx, "alice", dec("-5"))
	require.ErrorAs(t, err, &valErr)

	_, err = mgr.DepositFunds(ctx, "", dec("5"))
	require.ErrorAs(t, err, &valErr)
}

func TestWithdrawThenBalanceMatches(t *testing.T) {
	mgr := newTestManager(in_memory.NewMemoryRepo())
	ctx := context.Background()

	_, err := mgr.DepositFunds(ctx, "alice", dec("100"))
	require.NoError(t, err)

	res, err := mgr.WithdrawFunds(ctx, "alice", dec("25"))
	require.NoError(t, err)
	assert.True(t, res.Data.Balance.CurrentBalance.Equal(dec("75")))

	bal, err := mgr.GetBalance(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, bal.CurrentBalance.Equal(dec("75")))

	txs, err := mgr.ListTransactions(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, domain.TxWithdraw, txs[0].Type)
	assert.Equal(t, domain.TxDeposit, txs[1].Type)
}

func TestWithdrawInsufficientBalanceLeavesStateUntouched(t *testing.T) {
	mgr := newTestManager(in_memory.NewMemoryRepo())
	ctx := context.Background()

	_, err := mgr.DepositFunds(ctx, "alice", dec("10"))
	require.NoError(t, err)

	var insuffErr *domain.InsufficientBalanceError
	_, err = mgr.WithdrawFunds(ctx, "alice", dec("10.01"))
	require.ErrorAs(t, err, &insuffErr)
	assert.True(t, insuffErr.Available.Equal(dec("10")))
	assert.True(t, insuffErr.Requested.Equal(dec("10.01")))

	bal, err := mgr.GetBalance(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, bal.CurrentBalance.Equal(dec("10")))

	txs, err := mgr.ListTransactions(ctx, "alice", 10)
	require.NoError(t, err)
	assert.Len(t, txs, 1, "no withdrawal ledger entry on rejection")
}

func TestWithdrawUnknownUserReturnsGenericDatabaseError(t *testing.T) {
	mgr := newTestManager(in_memory.NewMemoryRepo())

	var dbErr *domain.DatabaseOperationError
	_, err := mgr.WithdrawFunds(context.Background(), "ghost", dec("5"))
	require.ErrorAs(t, err, &dbErr)
	assert.NotContains(t, err.Error(), "not found",
		"storage detail must not leak through the error message")
}

func TestConcurrentDepositsAndWithdrawalsSumCorrectly(t *testing.T) {
	mgr := newTestManager(in_memory.NewMemoryRepo())
	ctx := context.Background()

	_, err := mgr.DepositFunds(ctx, "alice", dec("1000"))
	require.NoError(t, err)

	const workers = 20
	var wg sync.WaitGroup
	wg.Add(2 * workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := mgr.DepositFunds(ctx, "alice", dec("10"))
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := mgr.WithdrawFunds(ctx, "alice", dec("5"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// 1000 + 20*10 - 20*5
	bal, err := mgr.GetBalance(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, bal.CurrentBalance.Equal(dec("1100")),
		"got %s", bal.CurrentBalance)

	txs, err := mgr.ListTransactions(ctx, "alice", 100)
	require.NoError(t, err)
	assert.Len(t, txs, 1+2*workers, "one ledger entry per committed mutation")
}

func TestLockReleasedAfterFailedOperation(t *testing.T) {
	repo := in_memory.NewMemoryRepo()
	mgr := newTestManager(repo)
	ctx := context.Background()

	_, err := mgr.DepositFunds(ctx, "alice", dec("50"))
	require.NoError(t, err)

	repo.CreateTransactionErr = errors.New("disk full")
	var dbErr *domain.DatabaseOperationError
	_, err = mgr.DepositFunds(ctx, "alice", dec("10"))
	require.ErrorAs(t, err, &dbErr)
	repo.CreateTransactionErr = nil

	// A leaked lock would make this time out.
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := mgr.DepositFunds(ctx, "alice", dec("10"))
		assert.NoError(t, err)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock was not released after the failed operation")
	}
}

func TestBuyOrderDebitsCashAndCreditsAsset(t *testing.T) {
	mgr := newTestManager(in_memory.NewMemoryRepo())
	ctx := context.Background()

	_, err := mgr.DepositFunds(ctx, "alice", dec("100000"))
	require.NoError(t, err)

	res, err := mgr.CreateBuyOrderWithBalanceUpdate(ctx,
		"alice", "BTC", dec("1.0"), dec("50000"), domain.MarketBuy, decimal.Zero)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.NotNil(t, res.Data.Order)
	assert.Equal(t, domain.OrderCompleted, res.Data.Order.Status)
	assert.True(t, res.Data.Amount.Equal(dec("50000")))
	assert.True(t, res.Data.Balance.CurrentBalance.Equal(dec("50000")))

	ab, err := mgr.ListAssetBalances(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, ab, 1)
	assert.Equal(t, "BTC", ab[0].AssetID)
	assert.True(t, ab[0].Quantity.Equal(dec("1.0")))

	txs, err := mgr.ListTransactions(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, domain.TxBuyOrder, txs[0].Type)
	assert.Equal(t, res.Data.Order.OrderID, txs[0].ReferenceID)

	atxs, err := mgr.ListAssetTransactions(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, atxs, 1)
	assert.Equal(t, domain.AssetTxBuy, atxs[0].Type)
	assert.Equal(t, res.Data.Order.OrderID, atxs[0].OrderID)
}

func TestBuyOrderInsufficientFundsWritesNothing(t *testing.T) {
	mgr := newTestManager(in_memory.NewMemoryRepo())
	ctx := context.Background()

	_, err := mgr.DepositFunds(ctx, "alice", dec("10"))
	require.NoError(t, err)

	var insuffErr *domain.InsufficientBalanceError
	_, err = mgr.CreateBuyOrderWithBalanceUpdate(ctx,
		"alice", "BTC", dec("1.0"), dec("50000"), domain.MarketBuy, decimal.Zero)
	require.ErrorAs(t, err, &insuffErr)

	bal, err := mgr.GetBalance(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, bal.CurrentBalance.Equal(dec("10")))

	txs, err := mgr.ListTransactions(ctx, "alice", 10)
	require.NoError(t, err)
	assert.Len(t, txs, 1, "only the deposit entry exists")

	ab, err := mgr.ListAssetBalances(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, ab)
}

func TestBuyOrderMissingBalanceRowRejectedAsInsufficient(t *testing.T) {
	mgr := newTestManager(in_memory.NewMemoryRepo())

	var insuffErr *domain.InsufficientBalanceError
	_, err := mgr.CreateBuyOrderWithBalanceUpdate(context.Background(),
		"ghost", "BTC", dec("1"), dec("10"), domain.MarketBuy, decimal.Zero)
	require.ErrorAs(t, err, &insuffErr)
	assert.True(t, insuffErr.Available.IsZero())
}

func TestBuyOrderSagaUnwindsOnAssetCreditFailure(t *testing.T) {
	repo := in_memory.NewMemoryRepo()
	mgr := newTestManager(repo)
	ctx := context.Background()

	_, err := mgr.DepositFunds(ctx, "alice", dec("1000"))
	require.NoError(t, err)

	repo.UpsertAssetBalanceErr = errors.New("constraint violation")
	var dbErr *domain.DatabaseOperationError
	_, err = mgr.CreateBuyOrderWithBalanceUpdate(ctx,
		"alice", "BTC", dec("2"), dec("100"), domain.LimitBuy, decimal.Zero)
	require.ErrorAs(t, err, &dbErr)
	repo.UpsertAssetBalanceErr = nil

	bal, err := mgr.GetBalance(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, bal.CurrentBalance.Equal(dec("1000")), "balance debit was compensated")

	txs, err := mgr.ListTransactions(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, txs, 3, "deposit, debit and compensating refund")
	assert.Equal(t, domain.TxRefund, txs[0].Type)
	assert.Equal(t, domain.TxBuyOrder, txs[1].Type)
}

func TestSellOrderCreditsCashAndDebitsAsset(t *testing.T) {
	mgr := newTestManager(in_memory.NewMemoryRepo())
	ctx := context.Background()

	_, err := mgr.DepositFunds(ctx, "alice", dec("100000"))
	require.NoError(t, err)
	_, err = mgr.CreateBuyOrderWithBalanceUpdate(ctx,
		"alice", "BTC", dec("2"), dec("40000"), domain.MarketBuy, decimal.Zero)
	require.NoError(t, err)

	res, err := mgr.CreateSellOrderWithBalanceUpdate(ctx,
		"alice", "BTC", dec("1"), dec("45000"), domain.MarketSell, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, res.Data.Balance.CurrentBalance.Equal(dec("65000")))

	ab, err := mgr.ListAssetBalances(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, ab, 1)
	assert.True(t, ab[0].Quantity.Equal(dec("1")))

	atxs, err := mgr.ListAssetTransactions(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, atxs, 2)
	assert.Equal(t, domain.AssetTxSell, atxs[0].Type)
}

func TestSellOrderInsufficientAssetRejected(t *testing.T) {
	mgr := newTestManager(in_memory.NewMemoryRepo())
	ctx := context.Background()

	_, err := mgr.DepositFunds(ctx, "alice", dec("1000"))
	require.NoError(t, err)

	var assetErr *domain.InsufficientAssetBalanceError
	_, err = mgr.CreateSellOrderWithBalanceUpdate(ctx,
		"alice", "BTC", dec("1"), dec("100"), domain.MarketSell, decimal.Zero)
	require.ErrorAs(t, err, &assetErr)
	assert.True(t, assetErr.Available.IsZero())

	bal, err := mgr.GetBalance(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, bal.CurrentBalance.Equal(dec("1000")))
}

func TestOrderTypeSideMismatchRejected(t *testing.T) {
	mgr := newTestManager(in_memory.NewMemoryRepo())
	ctx := context.Background()

	var valErr *domain.ValidationError
	_, err := mgr.CreateBuyOrderWithBalanceUpdate(ctx,
		"alice", "BTC", dec("1"), dec("10"), domain.MarketSell, decimal.Zero)
	require.ErrorAs(t, err, &valErr)

	_, err = mgr.CreateSellOrderWithBalanceUpdate(ctx,
		"alice", "BTC", dec("1"), dec("10"), domain.LimitBuy, decimal.Zero)
	require.ErrorAs(t, err, &valErr)
}

func TestTotalMismatchRejected(t *testing.T) {
	mgr := newTestManager(in_memory.NewMemoryRepo())

	var valErr *domain.ValidationError
	_, err := mgr.CreateBuyOrderWithBalanceUpdate(context.Background(),
		"alice", "BTC", dec("2"), dec("10"), domain.MarketBuy, dec("25"))
	require.ErrorAs(t, err, &valErr)
}

func TestLimitOrderStartsPending(t *testing.T) {
	mgr := newTestManager(in_memory.NewMemoryRepo())
	ctx := context.Background()

	_, err := mgr.DepositFunds(ctx, "alice", dec("100"))
	require.NoError(t, err)

	res, err := mgr.CreateBuyOrderWithBalanceUpdate(ctx,
		"alice", "BTC", dec("2"), dec("10"), domain.LimitBuy, decimal.Zero)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPending, res.Data.Order.Status)
}

func TestCancelPendingBuyOrderRefundsReservation(t *testing.T) {
	mgr := newTestManager(in_memory.NewMemoryRepo())
	ctx := context.Background()

	_, err := mgr.DepositFunds(ctx, "alice", dec("100"))
	require.NoError(t, err)
	res, err := mgr.CreateBuyOrderWithBalanceUpdate(ctx,
		"alice", "BTC", dec("2"), dec("10"), domain.LimitBuy, decimal.Zero)
	require.NoError(t, err)
	orderID := res.Data.Order.OrderID

	bal, err := mgr.GetBalance(ctx, "alice")
	require.NoError(t, err)
	require.True(t, bal.CurrentBalance.Equal(dec("80")))

	upd, err := mgr.UpdateOrderStatus(ctx, orderID, domain.OrderCancelled)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCancelled, upd.Data.Order.Status)

	bal, err = mgr.GetBalance(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, bal.CurrentBalance.Equal(dec("100")), "reserved cash returned")

	ab, err := mgr.ListAssetBalances(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, ab, 1)
	assert.True(t, ab[0].Quantity.IsZero(), "reserved asset credit reversed")

	txs, err := mgr.ListTransactions(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, domain.TxRefund, txs[0].Type)
	assert.Equal(t, orderID, txs[0].ReferenceID)
}

func TestOrderStatusWalkThroughFulfillment(t *testing.T) {
	mgr := newTestManager(in_memory.NewMemoryRepo())
	ctx := context.Background()

	_, err := mgr.DepositFunds(ctx, "alice", dec("100"))
	require.NoError(t, err)
	res, err := mgr.CreateBuyOrderWithBalanceUpdate(ctx,
		"alice", "BTC", dec("1"), dec("10"), domain.LimitBuy, decimal.Zero)
	require.NoError(t, err)
	orderID := res.Data.Order.OrderID

	for _, next := range []domain.OrderStatus{
		domain.OrderConfirmed, domain.OrderProcessing, domain.OrderShipped, domain.OrderDelivered,
	} {
		upd, err := mgr.UpdateOrderStatus(ctx, orderID, next)
		require.NoErrorf(t, err, "transition to %s", next)
		assert.Equal(t, next, upd.Data.Order.Status)
	}
}

func TestIllegalOrderTransitionRejectedWithoutMutation(t *testing.T) {
	mgr := newTestManager(in_memory.NewMemoryRepo())
	ctx := context.Background()

	_, err := mgr.DepositFunds(ctx, "alice", dec("100"))
	require.NoError(t, err)
	res, err := mgr.CreateBuyOrderWithBalanceUpdate(ctx,
		"alice", "BTC", dec("1"), dec("10"), domain.MarketBuy, decimal.Zero)
	require.NoError(t, err)
	orderID := res.Data.Order.OrderID

	var stateErr *domain.OrderStateError
	_, err = mgr.UpdateOrderStatus(ctx, orderID, domain.OrderConfirmed)
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, domain.OrderCompleted, stateErr.From)

	o, err := mgr.GetOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCompleted, o.Status)
}

func TestUpdateOrderStatusUnknownOrder(t *testing.T) {
	mgr := newTestManager(in_memory.NewMemoryRepo())

	var notFound *domain.EntityNotFoundError
	_, err := mgr.UpdateOrderStatus(context.Background(), "missing", domain.OrderCancelled)
	require.ErrorAs(t, err, &notFound)
}

func TestGetBalanceUnknownUser(t *testing.T) {
	mgr := newTestManager(in_memory.NewMemoryRepo())

	var notFound *domain.EntityNotFoundError
	_, err := mgr.GetBalance(context.Background(), "ghost")
	require.ErrorAs(t, err, &notFound)
}

func TestGetBalanceServedFromCacheAfterRead(t *testing.T) {
	repo := in_memory.NewMemoryRepo()
	mgr := newTestManager(repo)
	ctx := context.Background()

	_, err := mgr.DepositFunds(ctx, "alice", dec("42"))
	require.NoError(t, err)

	// First read populates the cache.
	_, err = mgr.GetBalance(ctx, "alice")
	require.NoError(t, err)

	// With the repo failing, a cached read still succeeds.
	repo.GetBalanceErr = errors.New("db down")
	bal, err := mgr.GetBalance(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, bal.CurrentBalance.Equal(dec("42")))
}

func TestDepositEndToEnd(t *testing.T) {
	mgr := newTestManager(in_memory.NewMemoryRepo())
	ctx := context.Background()

	_, err := mgr.DepositFunds(ctx, "bob", dec("100"))
	require.NoError(t, err)
	res, err := mgr.WithdrawFunds(ctx, "bob", dec("25"))
	require.NoError(t, err)
	assert.True(t, res.Data.Balance.CurrentBalance.Equal(dec("75")))

	txs, err := mgr.ListTransactions(ctx, "bob", 10)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	for _, tx := range txs {
		assert.Equal(t, domain.TxCompleted, tx.Status)
	}
}
