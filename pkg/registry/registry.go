package registry

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/dmitrymomot/notifyq/pkg/broker"
	"github.com/dmitrymomot/notifyq/pkg/logger"
	"github.com/dmitrymomot/notifyq/pkg/publisher"
	"github.com/dmitrymomot/notifyq/pkg/tenants"
)

type entry struct {
	client    *Client
	expiresAt time.Time
}

// inflight coalesces concurrent constructions for one tenant key so a
// cache-miss race cannot create two connections that shadow each other.
type inflight struct {
	done   chan struct{}
	client *Client
	err    error
}

// Registry is a bounded, time-expiring cache of per-tenant broker clients.
// Entries expire a fixed TTL after insertion; a Get does not refresh the
// clock. Eviction tears the client down asynchronously, and construction
// for an evicted key waits for that teardown before dialing again.
type Registry struct {
	source    tenants.Source
	brokerCfg broker.Config
	dial      Dialer

	mu       sync.Mutex
	entries  map[string]*entry
	order    []string // insertion order; with fixed TTL this is also expiry order
	inflight map[string]*inflight
	closing  map[string]chan struct{}
	snapshot *tenants.Snapshot
	closed   bool

	capacity int
	ttl      time.Duration
	logger   *slog.Logger

	stop chan struct{}
	done chan struct{}
}

// Option configures a Registry.
type Option func(*Registry)

// WithCapacity bounds the number of cached clients.
func WithCapacity(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.capacity = n
		}
	}
}

// WithTTL sets the fixed idle lifetime of a cached client.
func WithTTL(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.ttl = d
		}
	}
}

// WithLogger sets the logger for the registry.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithDialer overrides how broker channels are opened.
func WithDialer(d Dialer) Option {
	return func(r *Registry) {
		if d != nil {
			r.dial = d
		}
	}
}

// New creates a client registry over a tenant configuration source. The
// broker config supplies connection timeouts and prefetch; the per-tenant
// connection URL comes from tenant configuration.
func New(source tenants.Source, brokerCfg broker.Config, opts ...Option) (*Registry, error) {
	if source == nil {
		return nil, ErrSourceNil
	}

	r := &Registry{
		source:    source,
		brokerCfg: brokerCfg,
		dial:      defaultDialer,
		entries:   make(map[string]*entry),
		inflight:  make(map[string]*inflight),
		closing:   make(map[string]chan struct{}),
		capacity:  100,
		ttl:       30 * time.Minute,
		logger:    slog.Default(),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}

	go r.sweep()
	return r, nil
}

// GetClient returns the live client for a tenant id, constructing and
// caching one on miss. Concurrent calls for the same unseen id share a
// single construction; an unknown tenant fails with ErrTenantNotFound.
func (r *Registry) GetClient(ctx context.Context, id string) (*Client, error) {
	for {
		client, retry, err := r.getOrClaim(ctx, id)
		if retry {
			continue
		}
		return client, err
	}
}

func (r *Registry) getOrClaim(ctx context.Context, id string) (*Client, bool, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, false, ErrRegistryClosed
	}

	if e, ok := r.entries[id]; ok && time.Now().Before(e.expiresAt) {
		r.mu.Unlock()
		return e.client, false, nil
	}

	if call, ok := r.inflight[id]; ok {
		r.mu.Unlock()
		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		case <-call.done:
		}
		if call.err == nil {
			return call.client, false, nil
		}
		// The claimer failed on its own expired context. A waiter whose
		// context is still live takes over the claim instead of inheriting
		// the error.
		if isContextErr(call.err) && ctx.Err() == nil {
			return nil, true, nil
		}
		return nil, false, call.err
	}

	// Claim construction for this key. An expired entry still in the map is
	// evicted first so its teardown finishes before we redial.
	if e, ok := r.entries[id]; ok {
		r.evictLocked(id, e.client, "ttl expired")
	}
	call := &inflight{done: make(chan struct{})}
	r.inflight[id] = call
	closing := r.closing[id]
	r.mu.Unlock()

	if closing != nil {
		select {
		case <-ctx.Done():
			r.abandon(id, call, ctx.Err())
			return nil, false, ctx.Err()
		case <-closing:
		}
	}

	client, err := r.build(ctx, id)
	r.mu.Lock()
	delete(r.inflight, id)
	if err == nil && !r.closed {
		r.insertLocked(id, client)
	}
	closed := r.closed
	r.mu.Unlock()

	call.client, call.err = client, err
	close(call.done)

	if err != nil {
		return nil, false, err
	}
	if closed {
		client.teardown(ctx, r.logger)
		return nil, false, ErrRegistryClosed
	}
	return client, false, nil
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// build constructs a client: resolve tenant configuration (snapshot first,
// full re-fetch on miss), dial the broker, declare the tenant's routes and
// wire a publisher.
func (r *Registry) build(ctx context.Context, id string) (*Client, error) {
	tenant, ok := r.lookup(id)
	if !ok {
		set, err := r.source.FetchAll(ctx)
		if err != nil {
			return nil, err
		}
		snap := tenants.NewSnapshot(set)
		r.mu.Lock()
		r.snapshot = snap
		r.mu.Unlock()

		if tenant, ok = snap.Lookup(id); !ok {
			return nil, tenants.ErrTenantNotFound
		}
	}

	cfg := r.brokerCfg
	cfg.URL = tenant.AMQPURL
	ch, err := r.dial(ctx, cfg)
	if err != nil {
		return nil, err
	}

	for _, route := range tenant.Routes {
		if err := ch.EnsureRoute(route); err != nil {
			_ = ch.Close()
			return nil, err
		}
	}

	pub, err := publisher.New(ch, tenant.Routes, publisher.WithLogger(r.logger))
	if err != nil {
		_ = ch.Close()
		return nil, err
	}

	return &Client{
		ID:        id,
		Channel:   ch,
		Publisher: pub,
		tenant:    tenant,
	}, nil
}

func (r *Registry) lookup(id string) (tenants.Tenant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot.Lookup(id)
}

// abandon releases an inflight claim without a result, waking waiters with
// the given error.
func (r *Registry) abandon(id string, call *inflight, err error) {
	r.mu.Lock()
	delete(r.inflight, id)
	r.mu.Unlock()
	call.err = err
	close(call.done)
}

// insertLocked caches a new client, evicting the oldest entry when over
// capacity. Must be called with the registry lock held.
func (r *Registry) insertLocked(id string, client *Client) {
	r.entries[id] = &entry{client: client, expiresAt: time.Now().Add(r.ttl)}
	r.order = append(r.order, id)

	for len(r.entries) > r.capacity && len(r.order) > 0 {
		victim := r.order[0]
		r.order = r.order[1:]
		if victim == id {
			r.order = append(r.order, victim)
			continue
		}
		if e, ok := r.entries[victim]; ok {
			r.evictLocked(victim, e.client, "capacity overflow")
		}
	}
}

// evictLocked removes an entry and tears its client down in the background.
// The closing marker keeps a rebuild of the same key from dialing while the
// old connection is still shutting down. Must be called with the lock held.
func (r *Registry) evictLocked(id string, client *Client, reason string) {
	delete(r.entries, id)
	if i := slices.Index(r.order, id); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}

	ch := make(chan struct{})
	r.closing[id] = ch

	go func() {
		ctx := context.Background()
		r.logger.LogAttrs(ctx, slog.LevelDebug, "evicting tenant client",
			logger.TenantID(id),
			slog.String("reason", reason))
		client.teardown(ctx, r.logger)

		r.mu.Lock()
		if r.closing[id] == ch {
			delete(r.closing, id)
		}
		r.mu.Unlock()
		close(ch)
	}()
}

// sweep periodically evicts expired entries.
func (r *Registry) sweep() {
	interval := r.ttl / 2
	if interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer close(r.done)

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			now := time.Now()
			r.mu.Lock()
			for id, e := range r.entries {
				if now.After(e.expiresAt) {
					r.evictLocked(id, e.client, "ttl expired")
				}
			}
			r.mu.Unlock()
		}
	}
}

// Close tears down one tenant's client synchronously and removes it.
func (r *Registry) Close(ctx context.Context, id string) error {
	r.mu.Lock()
	e, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
		if i := slices.Index(r.order, id); i >= 0 {
			r.order = slices.Delete(r.order, i, i+1)
		}
	}
	r.mu.Unlock()

	if !ok {
		return ErrClientNotFound
	}
	e.client.teardown(ctx, r.logger)
	return nil
}

// CloseAll tears down every cached client and shuts the registry down.
// Used at process shutdown; the registry is unusable afterwards.
func (r *Registry) CloseAll(ctx context.Context) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	clients := make([]*Client, 0, len(r.entries))
	for _, e := range r.entries {
		clients = append(clients, e.client)
	}
	r.entries = make(map[string]*entry)
	r.order = nil
	r.mu.Unlock()

	close(r.stop)
	<-r.done

	for _, c := range clients {
		c.teardown(ctx, r.logger)
	}
}
