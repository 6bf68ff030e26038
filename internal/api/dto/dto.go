package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type DepositRequest struct {
	Username string          `json:"username" binding:"required"`
	Amount   decimal.Decimal `json:"amount" binding:"required"`
}

type WithdrawRequest struct {
	Username string          `json:"username" binding:"required"`
	Amount   decimal.Decimal `json:"amount" binding:"required"`
}

type CreateOrderRequest struct {
	Username  string          `json:"username" binding:"required"`
	AssetID   string          `json:"asset_id" binding:"required"`
	OrderType string          `json:"order_type" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
	Price     decimal.Decimal `json:"price,omitempty"`
	Total     decimal.Decimal `json:"total,omitempty"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type TransactionResponse struct {
	Success       bool            `json:"success"`
	TransactionID string          `json:"transaction_id,omitempty"`
	OrderID       string          `json:"order_id,omitempty"`
	Balance       decimal.Decimal `json:"balance"`
	Amount        decimal.Decimal `json:"amount"`
	LockHeldMs    int64           `json:"lock_held_ms"`
}

type BalanceResponse struct {
	Username       string          `json:"username"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type OrderResponse struct {
	OrderID     string          `json:"order_id"`
	Username    string          `json:"username"`
	OrderType   string          `json:"order_type"`
	AssetID     string          `json:"asset_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type TransactionItem struct {
	TransactionID string          `json:"transaction_id"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description,omitempty"`
	Status        string          `json:"status"`
	ReferenceID   string          `json:"reference_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

type AssetBalanceItem struct {
	AssetID  string          `json:"asset_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

type AssetTransactionItem struct {
	TransactionID string          `json:"transaction_id"`
	AssetID       string          `json:"asset_id"`
	Type          string          `json:"type"`
	Quantity      decimal.Decimal `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	OrderID       string          `json:"order_id,omitempty"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
