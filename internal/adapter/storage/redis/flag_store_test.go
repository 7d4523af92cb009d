package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagStore_ConsumeClearsFlag(t *testing.T) {
	store := NewFlagStore(newTestClient(t), "test")
	ctx := context.Background()

	set, err := store.ConsumeInterrupt(ctx, "payment-1")
	require.NoError(t, err)
	assert.False(t, set)

	require.NoError(t, store.SetInterrupt(ctx, "payment-1"))

	set, err = store.ConsumeInterrupt(ctx, "payment-1")
	require.NoError(t, err)
	assert.True(t, set)

	// consumed: a second read is clean
	set, err = store.ConsumeInterrupt(ctx, "payment-1")
	require.NoError(t, err)
	assert.False(t, set)
}

func TestFlagStore_LabelsIndependent(t *testing.T) {
	store := NewFlagStore(newTestClient(t), "test")
	ctx := context.Background()

	require.NoError(t, store.SetInterrupt(ctx, "payment-a"))

	set, err := store.ConsumeInterrupt(ctx, "payment-b")
	require.NoError(t, err)
	assert.False(t, set)
}
