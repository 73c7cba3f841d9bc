package consumer

import "errors"

var (
	// ErrStoreNil is returned when a nil store is provided.
	ErrStoreNil = errors.New("store cannot be nil")

	// ErrSenderNil is returned when a nil sender is provided.
	ErrSenderNil = errors.New("sender cannot be nil")

	// ErrNotificationNotFound is returned by stores when no record exists for a message id.
	ErrNotificationNotFound = errors.New("notification record not found")

	// ErrTxClosed is returned when a finished transaction is used again.
	ErrTxClosed = errors.New("transaction already closed")
)
