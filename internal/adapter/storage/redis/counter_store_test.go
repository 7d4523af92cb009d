package redis

import (
	"context"
	"testing"

	"btc-payment-gateway/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterStore_IncrementAndRead(t *testing.T) {
	store := NewCounterStore(newTestClient(t), "test")
	ctx := context.Background()

	require.NoError(t, store.IncrementOrderCounter(ctx, 1, domain.StatusNew, 1))
	require.NoError(t, store.IncrementOrderCounter(ctx, 1, domain.StatusNew, 1))
	require.NoError(t, store.IncrementOrderCounter(ctx, 1, domain.StatusNew, -1))
	require.NoError(t, store.IncrementOrderCounter(ctx, 1, domain.StatusPaid, 1))

	counters, err := store.OrderCounters(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counters[domain.StatusNew])
	assert.Equal(t, int64(1), counters[domain.StatusPaid])
	assert.Zero(t, counters[domain.StatusExpired])
}

func TestCounterStore_GatewaysIsolated(t *testing.T) {
	store := NewCounterStore(newTestClient(t), "test")
	ctx := context.Background()

	require.NoError(t, store.IncrementOrderCounter(ctx, 1, domain.StatusNew, 3))

	counters, err := store.OrderCounters(ctx, 2)
	require.NoError(t, err)
	assert.Zero(t, counters[domain.StatusNew])
}
