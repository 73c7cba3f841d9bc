package sender

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/notifyq/pkg/notification"
)

// Service identifies the notification transport a message targets.
type Service string

const (
	ServiceEmail Service = "email"
	ServiceSMS   Service = "sms"
	ServiceChat  Service = "chat"
)

// ParseService validates a service name. An unrecognized service is a hard
// failure for the message carrying it, never a silent fallback.
func ParseService(name string) (Service, error) {
	switch Service(name) {
	case ServiceEmail, ServiceSMS, ServiceChat:
		return Service(name), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownService, name)
}

// Payload is the transport-specific projection of a queued message. The set
// of implementations is closed: one per service.
type Payload interface {
	Service() Service
}

// EmailPayload is the projection for the email transport.
type EmailPayload struct {
	To      string
	Subject string
	HTML    string
	From    string
}

func (EmailPayload) Service() Service { return ServiceEmail }

// SMSPayload is the projection for the SMS transport.
type SMSPayload struct {
	To       string
	Message  string
	Provider string
}

func (SMSPayload) Service() Service { return ServiceSMS }

// ChatPayload is the projection for the chat transport.
type ChatPayload struct {
	To      string
	Message string
}

func (ChatPayload) Service() Service { return ServiceChat }

// BuildPayload projects a queued message into the payload shape of the given
// service. Each service reads different content subfields; an unknown
// service fails explicitly rather than producing an incomplete payload.
func BuildPayload(svc Service, msg notification.Message) (Payload, error) {
	switch svc {
	case ServiceEmail:
		return EmailPayload{
			To:      msg.Destination,
			Subject: msg.Content.Subject,
			HTML:    msg.Content.Body,
			From:    msg.Content.FromEmail,
		}, nil
	case ServiceSMS:
		return SMSPayload{
			To:       msg.Destination,
			Message:  msg.Content.Message,
			Provider: msg.Provider,
		}, nil
	case ServiceChat:
		return ChatPayload{
			To:      msg.Destination,
			Message: msg.Content.Message,
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownService, svc)
}

// Sender delivers one projected payload through a transport.
type Sender interface {
	Send(ctx context.Context, payload Payload) error
}

// FuncSender adapts an ordinary function to the Sender interface.
type FuncSender func(ctx context.Context, payload Payload) error

func (f FuncSender) Send(ctx context.Context, payload Payload) error {
	return f(ctx, payload)
}
