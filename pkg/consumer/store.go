package consumer

import (
	"context"

	"github.com/dmitrymomot/notifyq/pkg/notification"
)

// Tx is a single store transaction holding row locks acquired through
// FindForUpdate until Commit or Rollback releases them.
type Tx interface {
	// FindForUpdate fetches the notification row with an exclusive lock.
	// Returns ErrNotificationNotFound when no record exists for the id.
	FindForUpdate(ctx context.Context, messageID string) (*notification.Notification, error)

	// Save persists the record within the transaction.
	Save(ctx context.Context, n *notification.Notification) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Store is the transactional notification record store. The row lock taken
// by FindForUpdate is the only mechanism keeping two concurrent deliveries
// of the same message from both proceeding to send, so the design stays
// correct across multiple consumer processes sharing one store.
type Store interface {
	Begin(ctx context.Context) (Tx, error)

	// SetStatus writes a terminal status by message id outside any
	// transaction. Used after the send completed, when the row is no
	// longer locked.
	SetStatus(ctx context.Context, messageID string, status notification.Status, connectorResponse string) error
}
