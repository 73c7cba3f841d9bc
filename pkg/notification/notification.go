package notification

import "time"

// Status represents the delivery lifecycle state of a notification record.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSent       Status = "sent"
	StatusFailed     Status = "failed"
)

// Valid checks if the status is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusSent, StatusFailed:
		return true
	}
	return false
}

// CanTransition reports whether a record may move from one status to another.
// StatusSent is absorbing: once a notification is sent it never transitions
// again, regardless of redeliveries.
func CanTransition(from, to Status) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if from == StatusSent {
		return false
	}
	return true
}

// Notification is the persisted delivery record owned by the store.
// Status is mutated only by the consumer under an exclusive row lock;
// Attempts is incremented exactly once per attempt that reaches the send step.
type Notification struct {
	MessageID         string    `json:"message_id"`
	Status            Status    `json:"status"`
	Attempts          int       `json:"attempts"`
	ConnectorResponse string    `json:"connector_response,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Terminal reports whether the record is in a state from which no further
// delivery attempt will be made.
func (n *Notification) Terminal(maxAttempts int) bool {
	if n.Status == StatusSent {
		return true
	}
	return n.Status == StatusFailed && n.Attempts >= maxAttempts
}
