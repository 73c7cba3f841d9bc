package consumer

import (
	"context"
	"errors"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/dmitrymomot/notifyq/pkg/logger"
	"github.com/dmitrymomot/notifyq/pkg/notification"
	"github.com/dmitrymomot/notifyq/pkg/sender"
)

// Outcome is the terminal acknowledgment decision for one delivery.
// Every non-empty message resolves to exactly one of Ack, Requeue or Drop;
// a message left unresolved would stall redelivery indefinitely.
type Outcome int

const (
	// OutcomeNone means the delivery was a channel-level event, not a
	// message; no acknowledgment action is taken.
	OutcomeNone Outcome = iota

	// OutcomeAck removes the message from the queue.
	OutcomeAck

	// OutcomeRequeue returns the message to the queue for redelivery.
	OutcomeRequeue

	// OutcomeDrop removes the message without requeueing.
	OutcomeDrop
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAck:
		return "ack"
	case OutcomeRequeue:
		return "nack-requeue"
	case OutcomeDrop:
		return "nack-drop"
	}
	return "none"
}

// Consumer drives a queued message through the notification record's
// lifecycle: claim the row under an exclusive lock, send through the
// transport, write the terminal status, and resolve the broker delivery.
type Consumer struct {
	store       Store
	sender      sender.Sender
	service     sender.Service
	maxAttempts int
	logger      *slog.Logger
}

// Option configures a Consumer.
type Option func(*Consumer)

// WithMaxAttempts bounds how many times a notification is attempted.
func WithMaxAttempts(n int) Option {
	return func(c *Consumer) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithLogger sets the logger for the consumer.
func WithLogger(l *slog.Logger) Option {
	return func(c *Consumer) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a consumer bound to one notification service. The service
// determines how queued message content is projected into transport payloads.
func New(store Store, snd sender.Sender, service sender.Service, opts ...Option) (*Consumer, error) {
	if store == nil {
		return nil, ErrStoreNil
	}
	if snd == nil {
		return nil, ErrSenderNil
	}
	svc, err := sender.ParseService(string(service))
	if err != nil {
		return nil, err
	}

	c := &Consumer{
		store:       store,
		sender:      snd,
		service:     svc,
		maxAttempts: 3,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Handle resolves one delivery body to an acknowledgment outcome. Store and
// transport errors never escape: they are converted into the outcome plus a
// logged diagnostic, and a panic anywhere in the handler drops the message
// to avoid a poison-message loop.
func (c *Consumer) Handle(ctx context.Context, body []byte) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.LogAttrs(ctx, slog.LevelError, "handler panicked, dropping message",
				slog.Any("panic", r))
			out = OutcomeDrop
		}
	}()

	// An empty body is the broker's consumer-cancellation sentinel, not a
	// message. There is nothing to acknowledge.
	if len(body) == 0 {
		return OutcomeNone
	}

	msg, err := notification.ParseMessage(body)
	if err != nil {
		c.logger.LogAttrs(ctx, slog.LevelWarn, "dropping malformed message",
			logger.Error(err))
		return OutcomeDrop
	}
	if err := msg.Validate(); err != nil {
		c.logger.LogAttrs(ctx, slog.LevelWarn, "dropping invalid message",
			logger.MessageID(msg.MessageID),
			slog.String("destination", msg.Destination),
			logger.Error(err))
		return OutcomeDrop
	}

	rec, out := c.claim(ctx, msg.MessageID)
	if rec == nil {
		return out
	}

	return c.send(ctx, msg, rec)
}

// claim runs the locked decision table. It returns a non-nil record only
// when the caller should proceed to send; otherwise the returned outcome is
// final for this delivery.
func (c *Consumer) claim(ctx context.Context, messageID string) (*notification.Notification, Outcome) {
	tx, err := c.store.Begin(ctx)
	if err != nil {
		c.logger.LogAttrs(ctx, slog.LevelError, "failed to open store transaction",
			logger.MessageID(messageID),
			logger.Error(err))
		return nil, OutcomeRequeue
	}

	rec, err := tx.FindForUpdate(ctx, messageID)
	switch {
	case errors.Is(err, ErrNotificationNotFound):
		// A message referencing nothing persisted can never be serviced.
		if err := tx.Commit(ctx); err != nil {
			_ = tx.Rollback(ctx)
		}
		c.logger.LogAttrs(ctx, slog.LevelWarn, "no record for message, dropping",
			logger.MessageID(messageID))
		return nil, OutcomeDrop
	case err != nil:
		_ = tx.Rollback(ctx)
		c.logger.LogAttrs(ctx, slog.LevelError, "failed to lock notification record",
			logger.MessageID(messageID),
			logger.Error(err))
		return nil, OutcomeRequeue
	}

	switch {
	case rec.Status == notification.StatusSent:
		// Harmless redelivery of an already delivered notification.
		if err := tx.Commit(ctx); err != nil {
			_ = tx.Rollback(ctx)
		}
		return nil, OutcomeAck

	case rec.Status == notification.StatusProcessing:
		// Another worker owns this attempt; trust it to reach a terminal
		// state rather than duplicate the send.
		if err := tx.Commit(ctx); err != nil {
			_ = tx.Rollback(ctx)
		}
		c.logger.LogAttrs(ctx, slog.LevelDebug, "record already processing, acking",
			logger.MessageID(messageID))
		return nil, OutcomeAck

	case rec.Status == notification.StatusFailed && rec.Attempts >= c.maxAttempts:
		// Attempts exhausted. Ack so the broker stops redelivering.
		if err := tx.Commit(ctx); err != nil {
			_ = tx.Rollback(ctx)
		}
		c.logger.LogAttrs(ctx, slog.LevelWarn, "attempts exhausted, giving up",
			logger.MessageID(messageID),
			logger.Attempts(rec.Attempts))
		return nil, OutcomeAck
	}

	rec.Status = notification.StatusProcessing
	rec.Attempts++
	if err := tx.Save(ctx, rec); err != nil {
		_ = tx.Rollback(ctx)
		return nil, c.transientOutcome(ctx, messageID, rec.Attempts-1, err)
	}
	if err := tx.Commit(ctx); err != nil {
		_ = tx.Rollback(ctx)
		return nil, c.transientOutcome(ctx, messageID, rec.Attempts-1, err)
	}

	return rec, OutcomeNone
}

// transientOutcome maps a pre-send store failure to requeue while attempts
// remain, drop otherwise. The attempt counter was rolled back with the
// transaction, so the pre-increment value decides.
func (c *Consumer) transientOutcome(ctx context.Context, messageID string, attempts int, cause error) Outcome {
	c.logger.LogAttrs(ctx, slog.LevelError, "store transaction failed before send",
		logger.MessageID(messageID),
		logger.Attempts(attempts),
		logger.Error(cause))
	if attempts >= c.maxAttempts {
		return OutcomeDrop
	}
	return OutcomeRequeue
}

// send runs the transport call outside the row lock and writes the terminal
// status by message id.
func (c *Consumer) send(ctx context.Context, msg notification.Message, rec *notification.Notification) Outcome {
	payload, err := sender.BuildPayload(c.service, msg)
	if err != nil {
		// Unrecognized service is a hard failure for this message.
		if serr := c.store.SetStatus(ctx, msg.MessageID, notification.StatusFailed, err.Error()); serr != nil {
			c.logger.LogAttrs(ctx, slog.LevelError, "failed to record payload failure",
				logger.MessageID(msg.MessageID),
				logger.Error(serr))
		}
		c.logger.LogAttrs(ctx, slog.LevelError, "cannot build transport payload, dropping",
			logger.MessageID(msg.MessageID),
			logger.Service(string(c.service)),
			logger.Error(err))
		return OutcomeDrop
	}

	if err := c.sender.Send(ctx, payload); err != nil {
		if serr := c.store.SetStatus(ctx, msg.MessageID, notification.StatusFailed, err.Error()); serr != nil {
			c.logger.LogAttrs(ctx, slog.LevelError, "failed to record send failure",
				logger.MessageID(msg.MessageID),
				logger.Error(serr))
		}

		if rec.Attempts >= c.maxAttempts {
			c.logger.LogAttrs(ctx, slog.LevelWarn, "send failed on final attempt, giving up",
				logger.MessageID(msg.MessageID),
				logger.Attempts(rec.Attempts),
				logger.Error(err))
			return OutcomeAck
		}

		c.logger.LogAttrs(ctx, slog.LevelWarn, "send failed, requeueing",
			logger.MessageID(msg.MessageID),
			logger.Attempts(rec.Attempts),
			logger.Error(err))
		return OutcomeRequeue
	}

	// The notification is delivered; acking is the only safe resolution even
	// if the terminal status write fails, since a requeue would risk a
	// duplicate send.
	if err := c.store.SetStatus(ctx, msg.MessageID, notification.StatusSent, ""); err != nil {
		c.logger.LogAttrs(ctx, slog.LevelError, "sent but failed to record terminal status",
			logger.MessageID(msg.MessageID),
			logger.Error(err))
	}

	c.logger.LogAttrs(ctx, slog.LevelInfo, "notification delivered",
		logger.MessageID(msg.MessageID),
		logger.Service(string(c.service)),
		logger.Attempts(rec.Attempts))
	return OutcomeAck
}

// Serve consumes deliveries until the channel closes or ctx is done, applying
// each handler outcome as a broker acknowledgment. A message already
// dispatched to the handler always finishes; there is no mid-flight abort.
func (c *Consumer) Serve(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			c.resolve(ctx, d)
		}
	}
}

func (c *Consumer) resolve(ctx context.Context, d amqp.Delivery) {
	out := c.Handle(ctx, d.Body)

	var err error
	switch out {
	case OutcomeAck:
		err = d.Ack(false)
	case OutcomeRequeue:
		err = d.Nack(false, true)
	case OutcomeDrop:
		err = d.Nack(false, false)
	case OutcomeNone:
		return
	}
	if err != nil {
		c.logger.LogAttrs(ctx, slog.LevelError, "failed to resolve delivery",
			slog.String("outcome", out.String()),
			slog.Uint64("delivery_tag", d.DeliveryTag),
			slog.Bool("redelivered", d.Redelivered),
			logger.Error(err))
	}
}
