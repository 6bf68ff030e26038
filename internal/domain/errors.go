package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ValidationError rejects malformed input before any lock or I/O.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InsufficientBalanceError is a business-rule rejection detected under the
// per-user lock against a fresh read. Distinct from infrastructure errors so
// callers can map it to a 4xx response.
type InsufficientBalanceError struct {
	Username  string
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance for %s: have %s, need %s",
		e.Username, e.Available, e.Requested)
}

// InsufficientAssetBalanceError rejects a sell whose quantity exceeds the
// user's asset holdings.
type InsufficientAssetBalanceError struct {
	Username  string
	AssetID   string
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientAssetBalanceError) Error() string {
	return fmt.Sprintf("insufficient %s balance for %s: have %s, need %s",
		e.AssetID, e.Username, e.Available, e.Requested)
}

// LockAcquisitionError means the per-user lock could not be obtained before
// the timeout. Transient; retryable by the client.
type LockAcquisitionError struct {
	Resource string
	Timeout  time.Duration
	Err      error
}

func (e *LockAcquisitionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("could not acquire lock %q: %v", e.Resource, e.Err)
	}
	return fmt.Sprintf("could not acquire lock %q within %s", e.Resource, e.Timeout)
}

func (e *LockAcquisitionError) Unwrap() error { return e.Err }

// DatabaseOperationError wraps any DAO-layer failure. The message stays
// generic so storage internals never leak to callers; the cause is kept for
// logs via Unwrap.
type DatabaseOperationError struct {
	Op  string
	Err error
}

func (e *DatabaseOperationError) Error() string {
	return fmt.Sprintf("%s failed: service temporarily unavailable", e.Op)
}

func (e *DatabaseOperationError) Unwrap() error { return e.Err }

// EntityNotFoundError reports an absent entity where absence is part of the
// caller contract (e.g. order lookup).
type EntityNotFoundError struct {
	Entity string
	Key    string
}

func (e *EntityNotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.Key)
}

// OrderStateError reports an illegal fulfillment transition. The order row is
// left untouched.
type OrderStateError struct {
	OrderID string
	From    OrderStatus
	To      OrderStatus
}

func (e *OrderStateError) Error() string {
	return fmt.Sprintf("order %s: illegal transition %s -> %s", e.OrderID, e.From, e.To)
}
