package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func poolConstructor(addr string) func(ctx context.Context) (*Connection, error) {
	return func(ctx context.Context) (*Connection, error) {
		return Dial(ctx, addr)
	}
}

func TestChannelPoolAcquireRelease(t *testing.T) {
	addr := newFakeServer(t)
	pool, err := NewChannelPool(poolConstructor(addr), 4)
	require.NoError(t, err)
	defer pool.Close()
	ctx := testContext(t)

	res, err := pool.Acquire(ctx)
	require.NoError(t, err)
	require.NoError(t, res.Value().Ping(ctx))
	first := res.Value()
	res.Release()

	// The released connection is reused, not replaced.
	res, err = pool.Acquire(ctx)
	require.NoError(t, err)
	require.Same(t, first, res.Value())
	res.Release()

	stats := pool.Stats()
	require.Equal(t, uint64(2), stats.AcquireCount)
	require.Equal(t, uint64(1), stats.CreatedConns)
	require.Equal(t, int32(1), stats.TotalConns)
	require.Equal(t, int32(1), stats.IdleConns)
}

func TestChannelPoolMaxSizeBlocks(t *testing.T) {
	addr := newFakeServer(t)
	pool, err := NewChannelPool(poolConstructor(addr), 1)
	require.NoError(t, err)
	defer pool.Close()

	res, err := pool.Acquire(testContext(t))
	require.NoError(t, err)

	// The pool is exhausted; a bounded wait times out.
	waitCtx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = pool.Acquire(waitCtx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	res.Release()

	res, err = pool.Acquire(testContext(t))
	require.NoError(t, err)
	res.Release()

	stats := pool.Stats()
	require.Equal(t, uint64(1), stats.CreatedConns)
	require.Equal(t, uint64(1), stats.AcquireErrors)
}

func TestChannelPoolDeadConnectionNotReused(t *testing.T) {
	addr := newFakeServer(t)
	pool, err := NewChannelPool(poolConstructor(addr), 4)
	require.NoError(t, err)
	defer pool.Close()
	ctx := testContext(t)

	res, err := pool.Acquire(ctx)
	require.NoError(t, err)
	first := res.Value()
	first.Close()
	res.Release()

	res, err = pool.Acquire(ctx)
	require.NoError(t, err)
	require.NotSame(t, first, res.Value())
	require.False(t, res.Value().IsClosed())
	res.Release()

	require.Equal(t, uint64(2), pool.Stats().CreatedConns)
}

func TestChannelPoolAcquireAllIdle(t *testing.T) {
	addr := newFakeServer(t)
	pool, err := NewChannelPool(poolConstructor(addr), 4)
	require.NoError(t, err)
	defer pool.Close()
	ctx := testContext(t)

	res1, err := pool.Acquire(ctx)
	require.NoError(t, err)
	res2, err := pool.Acquire(ctx)
	require.NoError(t, err)
	res1.Release()
	res2.Release()

	idle := pool.AcquireAllIdle()
	require.Len(t, idle, 2)
	require.Empty(t, pool.AcquireAllIdle())

	for _, res := range idle {
		require.NotZero(t, res.CreationTime())
		res.ReleaseUnused()
	}
}

func TestChannelPoolConstructorError(t *testing.T) {
	pool, err := NewChannelPool(poolConstructor("127.0.0.1:1"), 1)
	require.NoError(t, err)
	defer pool.Close()

	_, err = pool.Acquire(testContext(t))
	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)

	// The failed slot was given back: the next acquire may create again.
	_, err = pool.Acquire(testContext(t))
	require.ErrorAs(t, err, &connErr)

	stats := pool.Stats()
	require.Equal(t, uint64(2), stats.AcquireErrors)
	require.Zero(t, stats.CreatedConns)
}

func TestChannelPoolClose(t *testing.T) {
	addr := newFakeServer(t)
	pool, err := NewChannelPool(poolConstructor(addr), 4)
	require.NoError(t, err)
	ctx := testContext(t)

	res, err := pool.Acquire(ctx)
	require.NoError(t, err)
	conn := res.Value()
	res.Release()

	pool.Close()
	pool.Close() // idempotent

	require.True(t, conn.IsClosed())

	_, err = pool.Acquire(ctx)
	require.ErrorIs(t, err, ErrClosed)
}

func TestChannelPoolReleaseAfterClose(t *testing.T) {
	addr := newFakeServer(t)
	pool, err := NewChannelPool(poolConstructor(addr), 4)
	require.NoError(t, err)

	res, err := pool.Acquire(testContext(t))
	require.NoError(t, err)

	pool.Close()

	// A connection in flight during Close is closed on release.
	conn := res.Value()
	res.Release()
	require.True(t, conn.IsClosed())
}

func TestPuddlePoolAcquireRelease(t *testing.T) {
	addr := newFakeServer(t)
	pool, err := NewPuddlePool(poolConstructor(addr), 4)
	require.NoError(t, err)
	defer pool.Close()
	ctx := testContext(t)

	res, err := pool.Acquire(ctx)
	require.NoError(t, err)
	require.NoError(t, res.Value().Ping(ctx))
	res.Release()

	stats := pool.Stats()
	require.Equal(t, uint64(1), stats.CreatedConns)
	require.Equal(t, int32(1), stats.TotalConns)
	require.Equal(t, int32(1), stats.IdleConns)
}

func TestPuddlePoolDestroy(t *testing.T) {
	addr := newFakeServer(t)
	pool, err := NewPuddlePool(poolConstructor(addr), 4)
	require.NoError(t, err)
	defer pool.Close()

	res, err := pool.Acquire(testContext(t))
	require.NoError(t, err)
	conn := res.Value()
	res.Destroy()

	require.True(t, conn.IsClosed())
	stats := pool.Stats()
	require.Equal(t, uint64(1), stats.DestroyedConns)
	require.Zero(t, stats.TotalConns)
}

func TestPuddlePoolAcquireAllIdle(t *testing.T) {
	addr := newFakeServer(t)
	pool, err := NewPuddlePool(poolConstructor(addr), 4)
	require.NoError(t, err)
	defer pool.Close()
	ctx := testContext(t)

	res, err := pool.Acquire(ctx)
	require.NoError(t, err)
	res.Release()

	idle := pool.AcquireAllIdle()
	require.Len(t, idle, 1)
	idle[0].ReleaseUnused()
}
