package notification

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Content carries the service-specific message fields. Email projects
// Subject/Body/FromEmail, SMS and chat project Message; unused fields stay
// empty on the wire.
type Content struct {
	Subject   string `json:"subject,omitempty"`
	Body      string `json:"body,omitempty"`
	Message   string `json:"message,omitempty"`
	FromEmail string `json:"fromEmail,omitempty"`
}

// Message is the broker wire payload correlating a queued delivery to a
// persisted notification record. The body is UTF-8 JSON; MessageID,
// Destination and Content are required, Provider is optional.
type Message struct {
	MessageID   string  `json:"messageId"`
	Destination string  `json:"destination"`
	Provider    string  `json:"provider,omitempty"`
	Content     Content `json:"content"`
}

// Validate enforces the required wire fields. The returned error names the
// offending field so the consumer can log it before dropping the message.
func (m Message) Validate() error {
	if strings.TrimSpace(m.MessageID) == "" {
		return fmt.Errorf("%w: messageId is required", ErrInvalidMessage)
	}
	if strings.TrimSpace(m.Destination) == "" {
		return fmt.Errorf("%w: destination is required", ErrInvalidMessage)
	}
	if m.Content == (Content{}) {
		return fmt.Errorf("%w: content is required", ErrInvalidMessage)
	}
	return nil
}

// ParseMessage decodes a broker message body. Malformed JSON can never
// become valid by retrying, so callers drop the message on error.
func ParseMessage(body []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(body, &m); err != nil {
		return Message{}, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	return m, nil
}
