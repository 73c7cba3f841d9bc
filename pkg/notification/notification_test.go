package notification_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/notifyq/pkg/notification"
)

func TestStatus_Valid(t *testing.T) {
	t.Parallel()

	for _, s := range []notification.Status{
		notification.StatusPending,
		notification.StatusProcessing,
		notification.StatusSent,
		notification.StatusFailed,
	} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, notification.Status("delivered").Valid())
	assert.False(t, notification.Status("").Valid())
}

func TestCanTransition(t *testing.T) {
	t.Parallel()

	// Sent is absorbing.
	assert.False(t, notification.CanTransition(notification.StatusSent, notification.StatusPending))
	assert.False(t, notification.CanTransition(notification.StatusSent, notification.StatusFailed))
	assert.False(t, notification.CanTransition(notification.StatusSent, notification.StatusProcessing))

	assert.True(t, notification.CanTransition(notification.StatusPending, notification.StatusProcessing))
	assert.True(t, notification.CanTransition(notification.StatusProcessing, notification.StatusSent))
	assert.True(t, notification.CanTransition(notification.StatusFailed, notification.StatusProcessing))

	assert.False(t, notification.CanTransition(notification.Status("bogus"), notification.StatusSent))
}

func TestNotification_Terminal(t *testing.T) {
	t.Parallel()

	n := &notification.Notification{Status: notification.StatusSent}
	assert.True(t, n.Terminal(3))

	n = &notification.Notification{Status: notification.StatusFailed, Attempts: 3}
	assert.True(t, n.Terminal(3))

	n = &notification.Notification{Status: notification.StatusFailed, Attempts: 2}
	assert.False(t, n.Terminal(3))

	n = &notification.Notification{Status: notification.StatusPending}
	assert.False(t, n.Terminal(3))

	n = &notification.Notification{Status: notification.StatusProcessing, Attempts: 5}
	assert.False(t, n.Terminal(3))
}
