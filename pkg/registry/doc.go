// Package registry caches live per-tenant broker clients behind a bounded,
// time-expiring map.
//
// The cache guarantees at most one live connection per tenant key: misses
// for the same key coalesce into a single construction, and an evicted
// client finishes closing before a rebuild of the same key dials again.
// Entries expire a fixed TTL after insertion regardless of access; capacity
// overflow evicts the oldest entry. Both eviction paths release broker
// resources through the same teardown, whose failures are logged and
// swallowed so the cache never jams on a dying connection.
package registry
