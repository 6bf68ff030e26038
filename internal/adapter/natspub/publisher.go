package natspub

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/olyamironova/ledger-engine/internal/port"
	"github.com/rs/zerolog"
)

// Publisher emits completed transactions on "ledger.tx.{type}" subjects.
type Publisher struct {
	conn *nats.Conn
	log  zerolog.Logger
}

var _ port.EventPublisher = (*Publisher)(nil)

func New(url string, log zerolog.Logger) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("ledger-engine"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Publisher{conn: conn, log: log}, nil
}

func (p *Publisher) PublishTransaction(ctx context.Context, ev port.TransactionEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	subject := "ledger.tx." + strings.ToLower(string(ev.Type))
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Drain()
	}
}
