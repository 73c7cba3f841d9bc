package registry

import "errors"

var (
	// ErrSourceNil is returned when a nil tenant configuration source is provided.
	ErrSourceNil = errors.New("tenant source cannot be nil")

	// ErrRegistryClosed is returned when the registry has been shut down.
	ErrRegistryClosed = errors.New("registry is closed")

	// ErrClientNotFound is returned by Close when no client is cached for the id.
	ErrClientNotFound = errors.New("no cached client for tenant")

	// ErrConsumerAttached is returned when a client already has a consumer subscription.
	ErrConsumerAttached = errors.New("consumer already attached to client")

	// ErrRouteNotConfigured is returned when the tenant has no route for a service key.
	ErrRouteNotConfigured = errors.New("no route configured for service")
)
