package tenants

import "errors"

var (
	// ErrClientNil is returned when a nil Redis client is provided.
	ErrClientNil = errors.New("redis client cannot be nil")

	// ErrInvalidRedisURL is returned when the connection URL cannot be parsed.
	ErrInvalidRedisURL = errors.New("failed to parse redis connection string")

	// ErrRedisNotReady is returned when all connection attempts fail.
	ErrRedisNotReady = errors.New("redis connection is not available")

	// ErrCorruptTenantConfig is returned when a stored tenant document cannot be decoded.
	ErrCorruptTenantConfig = errors.New("corrupt tenant configuration document")

	// ErrTenantNotFound is returned when no configuration exists for a tenant id.
	ErrTenantNotFound = errors.New("tenant configuration not found")
)
