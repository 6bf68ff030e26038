package domain

import (
	"github.com/shopspring/decimal"
	"time"
)

// Balance is the cached projection of a user's completed ledger entries.
// It is mutated only through the transaction manager, never directly.
type Balance struct {
	Username       string
	CurrentBalance decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AssetBalance is one row per (username, asset). Quantity may reach exactly
// zero but never goes negative.
type AssetBalance struct {
	Username  string
	AssetID   string
	Quantity  decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}
