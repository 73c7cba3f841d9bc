// Package publisher serializes outbound notification requests and publishes
// them through a confirmed broker channel, resolving exchange and routing
// key per service from tenant configuration.
package publisher
