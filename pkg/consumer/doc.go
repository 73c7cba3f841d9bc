// Package consumer implements the message-processing state machine between
// the broker's at-least-once delivery and the persisted notification
// record's lifecycle.
//
// Every non-empty delivery resolves to exactly one acknowledgment outcome:
// ack, nack with requeue, or nack without requeue. The decision runs inside
// a store transaction holding an exclusive row lock on the record, which is
// the only cross-process guard against double-sending a redelivered message.
// The transport call itself happens outside the lock; its result is written
// back as the record's terminal status.
//
// Outcomes are values, not exceptions. Handle computes the decision and
// Serve performs the broker I/O once at the boundary, so the decision table
// is testable without a live broker.
package consumer
