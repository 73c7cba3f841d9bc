package registry

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/dmitrymomot/notifyq/pkg/broker"
	"github.com/dmitrymomot/notifyq/pkg/tenants"
)

// Channel is the broker capability a cached client holds: confirmed
// publishing, manual-ack consumption and deterministic teardown.
// *broker.Channel is the production implementation.
type Channel interface {
	EnsureRoute(route tenants.Route) error
	Publish(ctx context.Context, exchange, routingKey string, body []byte) error
	Consume(queue, consumerTag string) (<-chan amqp.Delivery, error)
	CancelConsumer(consumerTag string) error
	Close() error
}

// Dialer opens a broker channel for a tenant. The default dials AMQP via
// the broker package; tests substitute their own.
type Dialer func(ctx context.Context, cfg broker.Config) (Channel, error)

func defaultDialer(ctx context.Context, cfg broker.Config) (Channel, error) {
	return broker.Dial(ctx, cfg)
}
