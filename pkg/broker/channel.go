package broker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/dmitrymomot/notifyq/pkg/tenants"
)

// Channel wraps a single broker connection and channel in publisher-confirm
// mode. Publishes are serialized so each confirmation can be matched to the
// publish that is waiting for it.
type Channel struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	confirms chan amqp.Confirmation

	confirmTimeout time.Duration
	prefetch       int

	pubMu   sync.Mutex
	closeMu sync.Mutex
	closed  bool
}

// Dial connects to the broker with retry and returns a channel ready for
// confirmed publishing and manual-ack consumption. The linear backoff keeps
// restarting consumer fleets from hammering a recovering broker.
func Dial(ctx context.Context, cfg Config) (*Channel, error) {
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 1
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 1
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	var lastErr error
	for i := 0; i < cfg.RetryAttempts; i++ {
		conn, err := amqp.Dial(cfg.URL)
		if err == nil {
			ch, err := openChannel(conn, cfg)
			if err == nil {
				return ch, nil
			}
			_ = conn.Close()
			lastErr = err
		} else {
			lastErr = err
		}

		if i == cfg.RetryAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrBrokerNotReady, lastErr, ctx.Err())
		case <-time.After(time.Duration(i+1) * cfg.RetryInterval):
		}
	}

	return nil, errors.Join(ErrBrokerNotReady, lastErr)
}

func openChannel(conn *amqp.Connection, cfg Config) (*Channel, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("enable confirm mode: %w", err)
	}

	return &Channel{
		conn:           conn,
		ch:             ch,
		confirms:       ch.NotifyPublish(make(chan amqp.Confirmation, 1)),
		confirmTimeout: cfg.ConfirmTimeout,
		prefetch:       cfg.Prefetch,
	}, nil
}

// EnsureRoute declares the exchange, queue and binding for a tenant route.
// Declarations are idempotent on the broker side as long as the attributes
// match what already exists.
func (c *Channel) EnsureRoute(route tenants.Route) error {
	if route.Exchange != "" {
		if err := c.ch.ExchangeDeclare(route.Exchange, "direct", route.Durable, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %q: %w", route.Exchange, err)
		}
	}
	if route.Queue != "" {
		if _, err := c.ch.QueueDeclare(route.Queue, route.Durable, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %q: %w", route.Queue, err)
		}
		if route.Exchange != "" {
			if err := c.ch.QueueBind(route.Queue, route.RoutingKey, route.Exchange, false, nil); err != nil {
				return fmt.Errorf("bind queue %q: %w", route.Queue, err)
			}
		}
	}
	return nil
}

// Publish sends a persistent JSON message and blocks until the broker
// confirms receipt. Callers must not assume the message is durable until
// this returns nil.
func (c *Channel) Publish(ctx context.Context, exchange, routingKey string, body []byte) error {
	c.pubMu.Lock()
	defer c.pubMu.Unlock()

	if c.isClosed() {
		return ErrChannelClosed
	}

	seq := c.ch.GetNextPublishSeqNo()
	err := c.ch.PublishWithContext(ctx, exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return errors.Join(ErrPublishFailed, err)
	}

	return awaitConfirm(ctx, c.confirms, seq, c.confirmTimeout)
}

// awaitConfirm blocks until the confirmation carrying the given publish
// sequence number arrives. Lower tags belong to earlier publishes whose
// waiter gave up on a timeout; they are drained so one abandoned
// confirmation cannot shift the stream and credit every later publish with
// the previous message's fate.
func awaitConfirm(ctx context.Context, confirms <-chan amqp.Confirmation, seq uint64, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case confirm, ok := <-confirms:
			if !ok {
				return ErrChannelClosed
			}
			if confirm.DeliveryTag < seq {
				continue
			}
			// Tags arrive in order on one channel, so a higher tag means
			// this publish's confirmation was skipped.
			if confirm.DeliveryTag > seq || !confirm.Ack {
				return ErrPublishNotConfirmed
			}
			return nil
		case <-timer.C:
			return ErrConfirmTimeout
		case <-ctx.Done():
			return errors.Join(ErrConfirmTimeout, ctx.Err())
		}
	}
}

// Consume starts delivering messages from a queue with manual acknowledgment.
// The prefetch limit bounds unacknowledged deliveries, so with the default of
// one each message handler runs to completion before the next is dispatched.
func (c *Channel) Consume(queue, consumerTag string) (<-chan amqp.Delivery, error) {
	if err := c.ch.Qos(c.prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set prefetch: %w", err)
	}

	deliveries, err := c.ch.Consume(queue, consumerTag, false, false, false, false, nil)
	if err != nil {
		return nil, errors.Join(ErrConsumeFailed, err)
	}
	return deliveries, nil
}

// CancelConsumer stops a consumer subscription. The broker flushes the
// delivery channel with a close after any in-flight message, so teardown can
// wait for the handler to finish naturally.
func (c *Channel) CancelConsumer(consumerTag string) error {
	if c.isClosed() {
		return nil
	}
	if err := c.ch.Cancel(consumerTag, false); err != nil {
		return fmt.Errorf("cancel consumer %q: %w", consumerTag, err)
	}
	return nil
}

// Close shuts down the channel and the underlying connection. Safe to call
// more than once.
func (c *Channel) Close() error {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	chErr := c.ch.Close()
	connErr := c.conn.Close()
	if chErr != nil && !errors.Is(chErr, amqp.ErrClosed) {
		return chErr
	}
	if connErr != nil && !errors.Is(connErr, amqp.ErrClosed) {
		return connErr
	}
	return nil
}

func (c *Channel) isClosed() bool {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	return c.closed
}
