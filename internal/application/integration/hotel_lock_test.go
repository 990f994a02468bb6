package integration

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHotelLocks_MutualExclusion(t *testing.T) {
	locks := newHotelLocks()
	hotel := uuid.New()
	var inside, maxInside atomic.Int32

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locks.acquire(context.Background(), hotel)
			if !assert.NoError(t, err) {
				return
			}
			n := inside.Add(1)
			for {
				cur := maxInside.Load()
				if n <= cur || maxInside.CompareAndSwap(cur, n) {
					break
				}
			}
			inside.Add(-1)
			release()
			release() // second call is a no-op
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, maxInside.Load())
	assert.Zero(t, locks.size())
}

func TestHotelLocks_ContextEndsWhileWaiting(t *testing.T) {
	locks := newHotelLocks()
	hotel := uuid.New()

	release, err := locks.acquire(context.Background(), hotel)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = locks.acquire(ctx, hotel)
	assert.ErrorIs(t, err, context.Canceled)

	other, err := locks.acquire(context.Background(), uuid.New())
	require.NoError(t, err)
	other()

	release()
	assert.Zero(t, locks.size())
}

func TestHotelLocks_DeadlineWhileHeld(t *testing.T) {
	locks := newHotelLocks()
	hotel := uuid.New()

	release, err := locks.acquire(context.Background(), hotel)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locks.acquire(ctx, hotel)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, locks.size(), "the holder keeps its entry")

	release()
	next, err := locks.acquire(context.Background(), hotel)
	require.NoError(t, err)
	next()
	assert.Zero(t, locks.size())
}
