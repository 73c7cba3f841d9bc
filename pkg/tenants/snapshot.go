package tenants

// Snapshot is an immutable in-memory view of a fetched tenant configuration
// set. Lookups never touch the source; callers refresh by fetching a new
// snapshot and swapping it in.
type Snapshot struct {
	byID map[string]Tenant
}

// NewSnapshot builds a snapshot from a fetched configuration set.
// Later duplicates of the same tenant id win.
func NewSnapshot(ts []Tenant) *Snapshot {
	byID := make(map[string]Tenant, len(ts))
	for _, t := range ts {
		byID[t.ID] = t
	}
	return &Snapshot{byID: byID}
}

// Lookup returns the tenant configuration for an id.
func (s *Snapshot) Lookup(id string) (Tenant, bool) {
	if s == nil {
		return Tenant{}, false
	}
	t, ok := s.byID[id]
	return t, ok
}

// Len returns the number of tenants in the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.byID)
}
