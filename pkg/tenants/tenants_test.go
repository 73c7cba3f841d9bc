package tenants_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifyq/pkg/tenants"
)

func TestTenant_Route(t *testing.T) {
	t.Parallel()

	tenant := tenants.Tenant{
		ID: "acme",
		Routes: map[string]tenants.Route{
			"email": {Exchange: "notifications", RoutingKey: "email", Queue: "acme-email"},
		},
	}

	route, ok := tenant.Route("email")
	require.True(t, ok)
	assert.Equal(t, "acme-email", route.Queue)

	_, ok = tenant.Route("sms")
	assert.False(t, ok)
}

func TestSnapshot(t *testing.T) {
	t.Parallel()

	t.Run("lookup", func(t *testing.T) {
		t.Parallel()

		snap := tenants.NewSnapshot([]tenants.Tenant{
			{ID: "acme", AMQPURL: "amqp://one"},
			{ID: "globex", AMQPURL: "amqp://two"},
		})

		require.Equal(t, 2, snap.Len())

		got, ok := snap.Lookup("globex")
		require.True(t, ok)
		assert.Equal(t, "amqp://two", got.AMQPURL)

		_, ok = snap.Lookup("ghost")
		assert.False(t, ok)
	})

	t.Run("later duplicate wins", func(t *testing.T) {
		t.Parallel()

		snap := tenants.NewSnapshot([]tenants.Tenant{
			{ID: "acme", AMQPURL: "amqp://stale"},
			{ID: "acme", AMQPURL: "amqp://fresh"},
		})

		require.Equal(t, 1, snap.Len())
		got, ok := snap.Lookup("acme")
		require.True(t, ok)
		assert.Equal(t, "amqp://fresh", got.AMQPURL)
	})

	t.Run("nil snapshot is empty", func(t *testing.T) {
		t.Parallel()

		var snap *tenants.Snapshot
		assert.Zero(t, snap.Len())
		_, ok := snap.Lookup("acme")
		assert.False(t, ok)
	})
}

func TestStaticSource(t *testing.T) {
	t.Parallel()

	src := tenants.NewStaticSource(
		tenants.Tenant{ID: "acme"},
		tenants.Tenant{ID: "globex"},
	)

	got, err := src.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Mutating the returned slice must not leak into later fetches.
	got[0].ID = "mutated"
	again, err := src.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "acme", again[0].ID)
}

func TestNewRedisSource(t *testing.T) {
	t.Parallel()

	_, err := tenants.NewRedisSource(nil, "notifyq")
	assert.ErrorIs(t, err, tenants.ErrClientNil)
}
