package domain

import (
	"github.com/shopspring/decimal"
	"time"
)

type OrderType string
type OrderStatus string

const (
	MarketBuy  OrderType = "MARKET_BUY"
	MarketSell OrderType = "MARKET_SELL"
	LimitBuy   OrderType = "LIMIT_BUY"
	LimitSell  OrderType = "LIMIT_SELL"

	OrderPending    OrderStatus = "PENDING"
	OrderConfirmed  OrderStatus = "CONFIRMED"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderCompleted  OrderStatus = "COMPLETED"
	OrderShipped    OrderStatus = "SHIPPED"
	OrderDelivered  OrderStatus = "DELIVERED"
	OrderPaid       OrderStatus = "PAID"
	OrderCancelled  OrderStatus = "CANCELLED"
	OrderRefunded   OrderStatus = "REFUNDED"
)

type Order struct {
	OrderID     string
	Username    string
	Type        OrderType
	AssetID     string
	Quantity    decimal.Decimal
	Price       decimal.Decimal
	TotalAmount decimal.Decimal
	Status      OrderStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (t OrderType) IsBuy() bool {
	return t == MarketBuy || t == LimitBuy
}

func (t OrderType) IsMarket() bool {
	return t == MarketBuy || t == MarketSell
}

// orderTransitions encodes the legal fulfillment transitions. Terminal states
// (DELIVERED, CANCELLED, REFUNDED) have no outgoing edges.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderConfirmed, OrderCancelled},
	OrderConfirmed:  {OrderProcessing, OrderCancelled},
	OrderProcessing: {OrderCompleted, OrderShipped, OrderCancelled},
	OrderShipped:    {OrderDelivered},
	OrderPaid:       {OrderProcessing, OrderRefunded},
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return len(orderTransitions[s]) == 0
}
