package consumer_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifyq/pkg/consumer"
	"github.com/dmitrymomot/notifyq/pkg/notification"
)

func TestMemoryStore_RowLockBlocksSecondReader(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := consumer.NewMemoryStore()
	store.Put(notification.Notification{MessageID: "m1", Status: notification.StatusPending})

	tx1, err := store.Begin(ctx)
	require.NoError(t, err)
	_, err = tx1.FindForUpdate(ctx, "m1")
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		tx2, err := store.Begin(ctx)
		require.NoError(t, err)
		defer func() { _ = tx2.Rollback(ctx) }()

		_, err = tx2.FindForUpdate(ctx, "m1")
		require.NoError(t, err)
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second transaction acquired the row lock while first held it")
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, tx1.Commit(ctx))

	select {
	case <-acquired:
	case <-time.After(5 * time.Second):
		t.Fatal("second transaction never acquired the lock after commit")
	}
}

func TestMemoryStore_LockWaitHonorsContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := consumer.NewMemoryStore()
	store.Put(notification.Notification{MessageID: "m1", Status: notification.StatusPending})

	tx1, err := store.Begin(ctx)
	require.NoError(t, err)
	_, err = tx1.FindForUpdate(ctx, "m1")
	require.NoError(t, err)
	defer func() { _ = tx1.Rollback(ctx) }()

	waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()

	tx2, err := store.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = tx2.Rollback(ctx) }()

	_, err = tx2.FindForUpdate(waitCtx, "m1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMemoryStore_CommitAppliesStagedChanges(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := consumer.NewMemoryStore()
	store.Put(notification.Notification{MessageID: "m1", Status: notification.StatusPending})

	tx, err := store.Begin(ctx)
	require.NoError(t, err)

	rec, err := tx.FindForUpdate(ctx, "m1")
	require.NoError(t, err)
	rec.Status = notification.StatusProcessing
	rec.Attempts++
	require.NoError(t, tx.Save(ctx, rec))

	// Not visible before commit.
	cur, _ := store.Get("m1")
	assert.Equal(t, notification.StatusPending, cur.Status)

	require.NoError(t, tx.Commit(ctx))
	cur, _ = store.Get("m1")
	assert.Equal(t, notification.StatusProcessing, cur.Status)
	assert.Equal(t, 1, cur.Attempts)
}

func TestMemoryStore_RollbackDiscardsStagedChanges(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := consumer.NewMemoryStore()
	store.Put(notification.Notification{MessageID: "m1", Status: notification.StatusPending, Attempts: 1})

	tx, err := store.Begin(ctx)
	require.NoError(t, err)

	rec, err := tx.FindForUpdate(ctx, "m1")
	require.NoError(t, err)
	rec.Attempts = 99
	require.NoError(t, tx.Save(ctx, rec))
	require.NoError(t, tx.Rollback(ctx))

	cur, _ := store.Get("m1")
	assert.Equal(t, 1, cur.Attempts)

	// Closed transactions refuse further work; rollback stays idempotent.
	_, err = tx.FindForUpdate(ctx, "m1")
	assert.ErrorIs(t, err, consumer.ErrTxClosed)
	assert.NoError(t, tx.Rollback(ctx))
}

func TestMemoryStore_FindForUpdateNotFound(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := consumer.NewMemoryStore()

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.FindForUpdate(ctx, "ghost")
	assert.ErrorIs(t, err, consumer.ErrNotificationNotFound)
}

func TestMemoryStore_SetStatus(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := consumer.NewMemoryStore()
	store.Put(notification.Notification{MessageID: "m1", Status: notification.StatusProcessing, Attempts: 1})

	require.NoError(t, store.SetStatus(ctx, "m1", notification.StatusFailed, "provider timeout"))

	cur, _ := store.Get("m1")
	assert.Equal(t, notification.StatusFailed, cur.Status)
	assert.Equal(t, "provider timeout", cur.ConnectorResponse)
	assert.Equal(t, 1, cur.Attempts, "terminal status write must not touch attempts")
}

func TestMemoryStore_SetStatusNotFound(t *testing.T) {
	t.Parallel()

	store := consumer.NewMemoryStore()

	err := store.SetStatus(context.Background(), "ghost", notification.StatusSent, "")
	assert.ErrorIs(t, err, consumer.ErrNotificationNotFound)

	_, ok := store.Get("ghost")
	assert.False(t, ok, "a terminal status write must never create a record")
}
