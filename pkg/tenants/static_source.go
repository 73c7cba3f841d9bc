package tenants

import "context"

// StaticSource serves a fixed tenant configuration set. Useful for tests and
// hosts that load configuration at startup without an external provider.
type StaticSource struct {
	tenants []Tenant
}

// NewStaticSource creates a source over a fixed set of tenants.
func NewStaticSource(ts ...Tenant) *StaticSource {
	cp := make([]Tenant, len(ts))
	copy(cp, ts)
	return &StaticSource{tenants: cp}
}

// FetchAll returns the fixed configuration set.
func (s *StaticSource) FetchAll(_ context.Context) ([]Tenant, error) {
	out := make([]Tenant, len(s.tenants))
	copy(out, s.tenants)
	return out, nil
}
