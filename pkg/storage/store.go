package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/notifyq/pkg/consumer"
	"github.com/dmitrymomot/notifyq/pkg/notification"
)

// Schema is the notifications table DDL, exported for host migration tooling.
const Schema = `
CREATE TABLE IF NOT EXISTS notifications (
    message_id         TEXT PRIMARY KEY,
    status             TEXT        NOT NULL DEFAULT 'pending',
    attempts           INT         NOT NULL DEFAULT 0,
    connector_response TEXT        NOT NULL DEFAULT '',
    created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Store implements consumer.Store on a pgx connection pool. The row lock
// behind FindForUpdate is a SELECT ... FOR UPDATE, so the at-most-one-sender
// guarantee holds across consumer processes sharing the database.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a notification store over a connected pool.
func NewStore(pool *pgxpool.Pool) (*Store, error) {
	if pool == nil {
		return nil, ErrPoolNil
	}
	return &Store{pool: pool}, nil
}

// Begin opens a store transaction.
func (s *Store) Begin(ctx context.Context) (consumer.Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &pgTx{tx: tx}, nil
}

// SetStatus writes a terminal status by message id outside any transaction.
func (s *Store) SetStatus(ctx context.Context, messageID string, status notification.Status, connectorResponse string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE notifications SET status = $2, connector_response = $3, updated_at = now() WHERE message_id = $1`,
		messageID, status, connectorResponse)
	if err != nil {
		return fmt.Errorf("update notification %q: %w", messageID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %q", consumer.ErrNotificationNotFound, messageID)
	}
	return nil
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) FindForUpdate(ctx context.Context, messageID string) (*notification.Notification, error) {
	var n notification.Notification
	err := t.tx.QueryRow(ctx,
		`SELECT message_id, status, attempts, connector_response, created_at, updated_at
		   FROM notifications WHERE message_id = $1 FOR UPDATE`,
		messageID).Scan(&n.MessageID, &n.Status, &n.Attempts, &n.ConnectorResponse, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, consumer.ErrNotificationNotFound
		}
		return nil, fmt.Errorf("lock notification %q: %w", messageID, err)
	}
	return &n, nil
}

func (t *pgTx) Save(ctx context.Context, n *notification.Notification) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE notifications SET status = $2, attempts = $3, connector_response = $4, updated_at = now() WHERE message_id = $1`,
		n.MessageID, n.Status, n.Attempts, n.ConnectorResponse)
	if err != nil {
		return fmt.Errorf("save notification %q: %w", n.MessageID, err)
	}
	return nil
}

func (t *pgTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *pgTx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}
