package port

import (
	"context"
	"time"

	"github.com/olyamironova/ledger-engine/internal/domain"
	"github.com/shopspring/decimal"
)

// TransactionEvent is published after a mutation commits. Publishing is
// best-effort; consumers needing completeness read the ledger.
type TransactionEvent struct {
	TransactionID string                 `json:"transaction_id"`
	Username      string                 `json:"username"`
	Type          domain.TransactionType `json:"type"`
	Amount        decimal.Decimal        `json:"amount"`
	ReferenceID   string                 `json:"reference_id,omitempty"`
	OccurredAt    time.Time              `json:"occurred_at"`
}

type EventPublisher interface {
	PublishTransaction(ctx context.Context, evt TransactionEvent) error
}
