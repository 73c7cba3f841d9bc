// Package tenants provides the tenant configuration capability: per-client
// broker connection parameters and service routing, fetched from an external
// key-value provider and held in immutable snapshots.
//
// The registry consults a Snapshot first and falls back to re-fetching the
// full set through a Source when a tenant id is not found, so new tenants
// become visible without restarting the host.
package tenants
