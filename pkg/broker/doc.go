// Package broker wraps a single AMQP connection and channel behind the two
// operations this library needs: publish with broker confirmation and
// consume with manual acknowledgment.
//
// The channel runs in confirm mode; Publish blocks until the broker reports
// the message durable, so a nil return is a durability guarantee. Consumers
// are opened with a bounded prefetch (default one unacknowledged message) so
// a handler finishes before the next delivery is dispatched on the channel.
package broker
