package publisher

import "errors"

var (
	// ErrChannelNil is returned when a nil broker channel is provided.
	ErrChannelNil = errors.New("broker channel cannot be nil")

	// ErrRouteNotConfigured is returned when no route exists for a service key.
	ErrRouteNotConfigured = errors.New("no route configured for service")
)
