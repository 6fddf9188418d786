package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/richxcame/fraudshield/pkg/config"
	"github.com/richxcame/fraudshield/pkg/logger"
	"go.uber.org/zap"
)

const handlerTimeout = 30 * time.Second

// NATSBus delivers events over a NATS connection
type NATSBus struct {
	conn *nats.Conn

	mu   sync.Mutex
	subs []*nats.Subscription
}

var _ Bus = (*NATSBus)(nil)

// Connect dials the configured NATS server
func Connect(cfg config.NATSConfig, clientName string) (*NATSBus, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name(clientName),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", cfg.URL, err)
	}
	return &NATSBus{conn: conn}, nil
}

// Publish encodes evt and publishes it on subject
func (b *NATSBus) Publish(ctx context.Context, subject string, evt *Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := b.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Subscribe joins queue on subject. Handler errors are logged; core NATS has
// no redelivery.
func (b *NATSBus) Subscribe(subject, queue string, handler Handler) error {
	sub, err := b.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		var evt Event
		if err := json.Unmarshal(msg.Data, &evt); err != nil {
			logger.Warn("dropping malformed event", zap.String("subject", msg.Subject), zap.Error(err))
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		defer cancel()

		if err := handler(ctx, &evt); err != nil {
			logger.Error("event handler failed",
				zap.String("subject", msg.Subject),
				zap.String("event_id", evt.ID),
				zap.Error(err),
			)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()
	return nil
}

// Close drains subscriptions and closes the connection
func (b *NATSBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		_ = sub.Unsubscribe()
	}
	b.subs = nil
	return b.conn.Drain()
}

// Ping reports whether the connection is up
func (b *NATSBus) Ping() error {
	if !b.conn.IsConnected() {
		return fmt.Errorf("nats status %s", b.conn.Status())
	}
	return nil
}
