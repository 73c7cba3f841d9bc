package consumer_test

import (
	"context"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifyq/pkg/consumer"
	"github.com/dmitrymomot/notifyq/pkg/notification"
	"github.com/dmitrymomot/notifyq/pkg/sender"
)

// recordingAcker captures the acknowledgment actions issued by the serve loop.
type recordingAcker struct {
	mu       sync.Mutex
	acks     []uint64
	requeues []uint64
	drops    []uint64
}

func (a *recordingAcker) Ack(tag uint64, _ bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acks = append(a.acks, tag)
	return nil
}

func (a *recordingAcker) Nack(tag uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if requeue {
		a.requeues = append(a.requeues, tag)
	} else {
		a.drops = append(a.drops, tag)
	}
	return nil
}

func (a *recordingAcker) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func TestServe_ResolvesEveryDelivery(t *testing.T) {
	t.Parallel()

	store := consumer.NewMemoryStore()
	store.Put(notification.Notification{MessageID: "ok", Status: notification.StatusPending})

	c, err := consumer.New(store, &countingSender{}, sender.ServiceEmail, consumer.WithLogger(discardLogger()))
	require.NoError(t, err)

	acker := &recordingAcker{}
	deliveries := make(chan amqp.Delivery, 3)
	deliveries <- amqp.Delivery{Acknowledger: acker, DeliveryTag: 1, Body: emailBody(t, "ok")}
	deliveries <- amqp.Delivery{Acknowledger: acker, DeliveryTag: 2, Body: []byte("{broken")}
	// Empty body: the broker's cancellation sentinel, no acknowledgment.
	deliveries <- amqp.Delivery{Acknowledger: acker, DeliveryTag: 3}
	close(deliveries)

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Serve(context.Background(), deliveries)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after delivery channel closed")
	}

	assert.Equal(t, []uint64{1}, acker.acks)
	assert.Equal(t, []uint64{2}, acker.drops)
	assert.Empty(t, acker.requeues)
}

func TestServe_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	c, err := consumer.New(consumer.NewMemoryStore(), &countingSender{}, sender.ServiceEmail, consumer.WithLogger(discardLogger()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	deliveries := make(chan amqp.Delivery)

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Serve(ctx, deliveries)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after context cancel")
	}
}
