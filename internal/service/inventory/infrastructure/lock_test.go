package infrastructure

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalProductLocker_MutualExclusion(t *testing.T) {
	locker := NewLocalProductLocker()
	ctx := context.Background()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(ctx, 100)
			require.NoError(t, err)
			defer unlock()
			counter++
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
}

func TestLocalProductLocker_IndependentProducts(t *testing.T) {
	locker := NewLocalProductLocker()
	ctx := context.Background()

	unlock1, err := locker.Lock(ctx, 100)
	require.NoError(t, err)
	defer unlock1()

	// 持有 100 的锁不影响 101
	done := make(chan struct{})
	go func() {
		unlock2, err := locker.Lock(ctx, 101)
		assert.NoError(t, err)
		unlock2()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different product should not block")
	}
}

func TestLocalProductLocker_ContextCancellation(t *testing.T) {
	locker := NewLocalProductLocker()

	unlock, err := locker.Lock(context.Background(), 100)
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = locker.Lock(ctx, 100)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
