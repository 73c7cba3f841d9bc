package broker

import "errors"

var (
	// ErrBrokerNotReady is returned when all connection attempts fail.
	ErrBrokerNotReady = errors.New("broker connection is not available")

	// ErrChannelClosed is returned when operating on a closed channel.
	ErrChannelClosed = errors.New("broker channel is closed")

	// ErrPublishFailed is returned when the publish itself is rejected.
	ErrPublishFailed = errors.New("failed to publish message")

	// ErrPublishNotConfirmed is returned when the broker nacks a publish.
	ErrPublishNotConfirmed = errors.New("broker did not confirm publish")

	// ErrConfirmTimeout is returned when no confirmation arrives in time.
	ErrConfirmTimeout = errors.New("timed out waiting for publish confirmation")

	// ErrConsumeFailed is returned when a consumer subscription cannot start.
	ErrConsumeFailed = errors.New("failed to start consumer")
)
