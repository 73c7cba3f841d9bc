package consumer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrymomot/notifyq/pkg/notification"
)

// MemoryStore is an in-memory Store for tests and local development. It
// models the row lock with a per-key latch: a FindForUpdate on a latched id
// blocks until the owning transaction commits or rolls back, matching the
// semantics of a relational row lock closely enough to exercise redelivery
// races in tests.
type MemoryStore struct {
	mu      sync.Mutex
	rows    map[string]notification.Notification
	latches map[string]chan struct{}
}

// NewMemoryStore creates an empty in-memory notification store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rows:    make(map[string]notification.Notification),
		latches: make(map[string]chan struct{}),
	}
}

// Put seeds or replaces a record. Intended for tests and host bootstrap.
func (s *MemoryStore) Put(n notification.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	n.UpdatedAt = time.Now()
	s.rows[n.MessageID] = n
}

// Get returns a copy of a record.
func (s *MemoryStore) Get(messageID string) (notification.Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.rows[messageID]
	return n, ok
}

// Begin starts a transaction. Row latches are acquired lazily by
// FindForUpdate and released by Commit or Rollback.
func (s *MemoryStore) Begin(_ context.Context) (Tx, error) {
	return &memoryTx{
		store:  s,
		staged: make(map[string]notification.Notification),
	}, nil
}

// SetStatus writes a terminal status by message id outside any transaction.
// A missing record is reported, never created, matching the relational store.
func (s *MemoryStore) SetStatus(_ context.Context, messageID string, status notification.Status, connectorResponse string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.rows[messageID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotificationNotFound, messageID)
	}
	n.Status = status
	n.ConnectorResponse = connectorResponse
	n.UpdatedAt = time.Now()
	s.rows[messageID] = n
	return nil
}

func (s *MemoryStore) lockRow(ctx context.Context, messageID string) error {
	for {
		s.mu.Lock()
		ch, held := s.latches[messageID]
		if !held {
			s.latches[messageID] = make(chan struct{})
			s.mu.Unlock()
			return nil
		}
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
		}
	}
}

func (s *MemoryStore) unlockRow(messageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.latches[messageID]; ok {
		delete(s.latches, messageID)
		close(ch)
	}
}

type memoryTx struct {
	store  *MemoryStore
	locked []string
	staged map[string]notification.Notification
	done   bool
}

func (tx *memoryTx) FindForUpdate(ctx context.Context, messageID string) (*notification.Notification, error) {
	if tx.done {
		return nil, ErrTxClosed
	}
	if err := tx.store.lockRow(ctx, messageID); err != nil {
		return nil, err
	}
	tx.locked = append(tx.locked, messageID)

	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	n, ok := tx.store.rows[messageID]
	if !ok {
		return nil, ErrNotificationNotFound
	}
	cp := n
	return &cp, nil
}

func (tx *memoryTx) Save(_ context.Context, n *notification.Notification) error {
	if tx.done {
		return ErrTxClosed
	}
	tx.staged[n.MessageID] = *n
	return nil
}

func (tx *memoryTx) Commit(_ context.Context) error {
	if tx.done {
		return ErrTxClosed
	}
	tx.done = true

	tx.store.mu.Lock()
	for id, n := range tx.staged {
		n.UpdatedAt = time.Now()
		tx.store.rows[id] = n
	}
	tx.store.mu.Unlock()

	for _, id := range tx.locked {
		tx.store.unlockRow(id)
	}
	return nil
}

func (tx *memoryTx) Rollback(_ context.Context) error {
	if tx.done {
		return nil
	}
	tx.done = true

	for _, id := range tx.locked {
		tx.store.unlockRow(id)
	}
	return nil
}
