package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifyq/pkg/consumer"
	"github.com/dmitrymomot/notifyq/pkg/logger"
	"github.com/dmitrymomot/notifyq/pkg/publisher"
	"github.com/dmitrymomot/notifyq/pkg/tenants"
)

// Client is one tenant's live broker binding: a single connection/channel
// shared by a publisher and at most one consumer subscription.
type Client struct {
	ID        string
	Channel   Channel
	Publisher *publisher.Publisher

	tenant tenants.Tenant

	mu          sync.Mutex
	consumerTag string
	consuming   bool
	serveDone   chan struct{}
}

// Tenant returns the configuration snapshot this client was built from.
func (c *Client) Tenant() tenants.Tenant {
	return c.tenant
}

// StartConsumer attaches a consumer subscription for one service key's queue
// and serves deliveries in the background. A client carries at most one
// subscription; a second call fails rather than silently double-consuming.
func (c *Client) StartConsumer(ctx context.Context, serviceKey string, cons *consumer.Consumer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.consuming {
		return ErrConsumerAttached
	}

	route, ok := c.tenant.Route(serviceKey)
	if !ok {
		return fmt.Errorf("%w: tenant %q service %q", ErrRouteNotConfigured, c.ID, serviceKey)
	}
	if err := c.Channel.EnsureRoute(route); err != nil {
		return err
	}

	tag := "notifyq-" + c.ID + "-" + uuid.NewString()
	deliveries, err := c.Channel.Consume(route.Queue, tag)
	if err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		cons.Serve(ctx, deliveries)
	}()

	c.consumerTag = tag
	c.consuming = true
	c.serveDone = done
	return nil
}

// teardown releases the client's broker resources: cancel the consumer
// subscription so no new deliveries arrive, let the in-flight handler finish
// naturally, then close the channel and connection. Failures are logged by
// the caller, never propagated.
func (c *Client) teardown(ctx context.Context, log *slog.Logger) {
	c.mu.Lock()
	tag, consuming, done := c.consumerTag, c.consuming, c.serveDone
	c.consuming = false
	c.consumerTag = ""
	c.mu.Unlock()

	if consuming {
		if err := c.Channel.CancelConsumer(tag); err != nil {
			log.LogAttrs(ctx, slog.LevelWarn, "failed to cancel consumer",
				logger.TenantID(c.ID),
				logger.Error(err))
		} else if done != nil {
			// The broker closes the delivery channel after the cancel, so
			// the serve loop exits once any dispatched message resolves.
			<-done
		}
	}

	if err := c.Channel.Close(); err != nil {
		log.LogAttrs(ctx, slog.LevelWarn, "failed to close broker channel",
			logger.TenantID(c.ID),
			logger.Error(err))
	}
}
