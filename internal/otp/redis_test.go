package otp

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisLedger(t *testing.T) (*RedisLedger, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLedger(client, "otp"), srv
}

func TestRedisLedgerRoundtrip(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newTestRedisLedger(t)

	require.NoError(t, ledger.Put(ctx, "u1", "123456", time.Minute))

	entry, ok, err := ledger.Peek(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "123456", entry.Code)
	assert.True(t, entry.ExpiresAt.After(time.Now()))
}

func TestRedisLedgerMissingKey(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newTestRedisLedger(t)

	_, ok, err := ledger.Peek(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisLedgerPutReplaces(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newTestRedisLedger(t)

	require.NoError(t, ledger.Put(ctx, "u1", "111111", time.Minute))
	require.NoError(t, ledger.Put(ctx, "u1", "222222", time.Minute))

	entry, ok, err := ledger.Peek(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "222222", entry.Code)
}

func TestRedisLedgerDelete(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newTestRedisLedger(t)

	require.NoError(t, ledger.Put(ctx, "u1", "123456", time.Minute))
	require.NoError(t, ledger.Delete(ctx, "u1"))

	_, ok, err := ledger.Peek(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisLedgerTTLExpiry(t *testing.T) {
	ctx := context.Background()
	ledger, srv := newTestRedisLedger(t)

	require.NoError(t, ledger.Put(ctx, "u1", "123456", time.Minute))
	srv.FastForward(2 * time.Minute)

	_, ok, err := ledger.Peek(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}
