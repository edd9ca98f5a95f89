package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// queueGroup spreads messages across every running server instance.
const queueGroup = "simple-api"

// Dispatcher hands a message to the broker.
type Dispatcher interface {
	Dispatch(ctx context.Context, subject string, msg interface{}) error
}

// MessageHandler processes one raw message body.
type MessageHandler func(ctx context.Context, data []byte) error

// Broker publishes and consumes JSON messages over NATS
type Broker struct {
	conn    *nats.Conn
	timeout time.Duration
	logger  *zap.Logger
}

// NewBroker connects to NATS, reconnecting forever once connected.
func NewBroker(url, name string, logger *zap.Logger) (*Broker, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &Broker{conn: conn, timeout: 5 * time.Minute, logger: logger}, nil
}

// Dispatch publishes msg as JSON on subject.
func (b *Broker) Dispatch(ctx context.Context, subject string, msg interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := b.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

// Subscribe runs handler for every message on subject. Handler errors are logged;
// the message is not redelivered.
func (b *Broker) Subscribe(subject string, handler MessageHandler) error {
	_, err := b.conn.QueueSubscribe(subject, queueGroup, func(msg *nats.Msg) {
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()

		if err := handler(ctx, msg.Data); err != nil {
			b.logger.Error("Failed to handle message", zap.String("subject", subject), zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	b.logger.Info("Subscribed to subject", zap.String("subject", subject))
	return nil
}

// Close drains subscriptions and closes the connection.
func (b *Broker) Close() {
	if err := b.conn.Drain(); err != nil {
		b.logger.Warn("Failed to drain NATS connection", zap.Error(err))
		b.conn.Close()
	}
}

// NoopDispatcher drops messages. Stored payloads are still picked up by the drain loop.
type NoopDispatcher struct{}

func (NoopDispatcher) Dispatch(ctx context.Context, subject string, msg interface{}) error {
	return nil
}

// JSONHandler adapts a typed handler to a MessageHandler.
func JSONHandler[T any](handle func(ctx context.Context, msg T) error) MessageHandler {
	return func(ctx context.Context, data []byte) error {
		var msg T
		if err := json.Unmarshal(data, &msg); err != nil {
			return fmt.Errorf("failed to decode message: %w", err)
		}
		return handle(ctx, msg)
	}
}
