package notification

import "errors"

var (
	// ErrMalformedPayload is returned when a broker message body is not valid JSON.
	ErrMalformedPayload = errors.New("malformed message payload")

	// ErrInvalidMessage is returned when a parsed message misses required fields.
	ErrInvalidMessage = errors.New("invalid message")
)
