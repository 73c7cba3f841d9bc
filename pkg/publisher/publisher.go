package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifyq/pkg/logger"
	"github.com/dmitrymomot/notifyq/pkg/notification"
	"github.com/dmitrymomot/notifyq/pkg/tenants"
)

// Channel is the confirmed-publish capability the publisher needs from a
// broker channel. Publish must not return nil before the broker confirms
// the message durable.
type Channel interface {
	Publish(ctx context.Context, exchange, routingKey string, body []byte) error
}

// Publisher serializes outbound notification requests and publishes them
// through one confirmed broker channel. Routing is resolved per service key
// from tenant configuration; the publisher never retries internally, retry
// policy belongs to the caller.
type Publisher struct {
	channel Channel
	routes  map[string]tenants.Route
	logger  *slog.Logger
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithLogger sets the logger for the publisher.
func WithLogger(l *slog.Logger) Option {
	return func(p *Publisher) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a publisher over a connected channel with the tenant's
// service routing table.
func New(ch Channel, routes map[string]tenants.Route, opts ...Option) (*Publisher, error) {
	if ch == nil {
		return nil, ErrChannelNil
	}

	p := &Publisher{
		channel: ch,
		routes:  routes,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Publish sends one notification request for a service key and blocks until
// the broker confirms receipt. Callers must not assume the message is
// durable before this returns nil. A missing route is a configuration
// error, not a delivery failure.
func (p *Publisher) Publish(ctx context.Context, serviceKey string, msg notification.Message) error {
	route, ok := p.routes[serviceKey]
	if !ok {
		return fmt.Errorf("%w: service %q", ErrRouteNotConfigured, serviceKey)
	}

	if msg.MessageID == "" {
		msg.MessageID = uuid.NewString()
	}
	if err := msg.Validate(); err != nil {
		return err
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message %q: %w", msg.MessageID, err)
	}

	if err := p.channel.Publish(ctx, route.Exchange, route.RoutingKey, body); err != nil {
		p.logger.LogAttrs(ctx, slog.LevelError, "publish failed",
			logger.MessageID(msg.MessageID),
			slog.String("service_key", serviceKey),
			slog.String("exchange", route.Exchange),
			logger.Error(err))
		return err
	}

	p.logger.LogAttrs(ctx, slog.LevelDebug, "message published",
		logger.MessageID(msg.MessageID),
		slog.String("service_key", serviceKey),
		slog.String("routing_key", route.RoutingKey))
	return nil
}
