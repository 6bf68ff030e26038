package core

import (
	"time"

	"github.com/olyamironova/ledger-engine/internal/domain"
	"github.com/shopspring/decimal"
)

// TransactionData carries the entities touched by one manager operation.
// Fields not relevant to the operation stay nil.
type TransactionData struct {
	Transaction *domain.BalanceTransaction `json:"transaction,omitempty"`
	Balance     *domain.Balance            `json:"balance,omitempty"`
	Order       *domain.Order              `json:"order,omitempty"`
	Amount      decimal.Decimal            `json:"amount"`
}

// TransactionResult is the uniform return value of the transaction manager.
// LockDuration is how long the per-user lock was held, kept for observability.
type TransactionResult struct {
	Success      bool            `json:"success"`
	Data         TransactionData `json:"data"`
	LockDuration time.Duration   `json:"lock_duration"`
}
