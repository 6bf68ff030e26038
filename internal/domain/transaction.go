package domain

import (
	"github.com/shopspring/decimal"
	"time"
)

type TransactionType string
type TransactionStatus string
type AssetTransactionType string

const (
	TxDeposit   TransactionType = "DEPOSIT"
	TxWithdraw  TransactionType = "WITHDRAW"
	TxBuyOrder  TransactionType = "BUY_ORDER"
	TxSellOrder TransactionType = "SELL_ORDER"
	TxRefund    TransactionType = "REFUND"

	TxPending   TransactionStatus = "PENDING"
	TxCompleted TransactionStatus = "COMPLETED"
	TxFailed    TransactionStatus = "FAILED"

	AssetTxBuy  AssetTransactionType = "BUY"
	AssetTxSell AssetTransactionType = "SELL"
)

// BalanceTransaction is an append-only ledger entry; immutable once created.
// Every balance mutation produces exactly one entry.
type BalanceTransaction struct {
	TransactionID string
	Username      string
	Type          TransactionType
	Amount        decimal.Decimal
	Description   string
	Status        TransactionStatus
	ReferenceID   string
	CreatedAt     time.Time
}

// AssetTransaction mirrors BalanceTransaction for asset-denominated movement.
type AssetTransaction struct {
	TransactionID string
	Username      string
	AssetID       string
	Type          AssetTransactionType
	Quantity      decimal.Decimal
	Price         decimal.Decimal
	TotalAmount   decimal.Decimal
	OrderID       string
	Status        TransactionStatus
	CreatedAt     time.Time
}
