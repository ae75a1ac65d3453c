package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewBuffer_DrainKeepsLaterIncrements(t *testing.T) {
	_, client := newTestRedis(t)
	buf := NewViewBuffer(client)
	ctx := context.Background()

	require.NoError(t, buf.Incr(ctx, 1))
	require.NoError(t, buf.Incr(ctx, 1))
	require.NoError(t, buf.Incr(ctx, 2))

	counts, err := buf.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[uint]int64{1: 2, 2: 1}, counts)

	require.NoError(t, buf.Incr(ctx, 1))
	counts, err = buf.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[uint]int64{1: 1}, counts)
}

func TestViewBuffer_Restore(t *testing.T) {
	_, client := newTestRedis(t)
	buf := NewViewBuffer(client)
	ctx := context.Background()

	require.NoError(t, buf.Restore(ctx, map[uint]int64{5: 3}))
	counts, err := buf.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), counts[5])
}
