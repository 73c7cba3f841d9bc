package sender

import "errors"

var (
	// ErrUnknownService is returned for a service name outside the closed set.
	ErrUnknownService = errors.New("unknown notification service")

	// ErrUnsupportedPayload is returned when a sender receives a payload for a transport it does not serve.
	ErrUnsupportedPayload = errors.New("unsupported payload type")

	// ErrInvalidConfig is returned when a sender is constructed with incomplete configuration.
	ErrInvalidConfig = errors.New("invalid sender config")

	// ErrSendFailed is returned when the transport rejects or fails a delivery.
	ErrSendFailed = errors.New("failed to send notification")
)
