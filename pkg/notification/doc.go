// Package notification defines the delivery record and the broker wire
// payload shared by the publisher, consumer and storage packages.
//
// A Notification row is the durable source of truth for a delivery's fate;
// a Message is the ephemeral queue payload that references it by MessageID.
// The two are correlated, never duplicated: the queue payload carries what
// the transport needs, the record carries lifecycle state.
package notification
