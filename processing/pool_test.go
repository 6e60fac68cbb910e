package processing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolRunsSubmittedTasks(t *testing.T) {
	pool := NewPool(2, 4, time.Minute)
	defer pool.Close()

	var mu sync.Mutex
	ran := 0

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := pool.Submit(context.Background(), func(ctx context.Context) error {
				mu.Lock()
				ran++
				mu.Unlock()
				return nil
			})
			// Some submissions may hit the bounded queue under burst; those
			// must fail fast with ErrQueueFull rather than block.
			if err != nil {
				assert.ErrorIs(t, err, ErrQueueFull)
			}
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Greater(t, ran, 0)
}

func TestPoolPropagatesTaskError(t *testing.T) {
	pool := NewPool(1, 1, time.Minute)
	defer pool.Close()

	wantErr := errors.New("render failed")
	err := pool.Submit(context.Background(), func(ctx context.Context) error {
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)
}

func TestPoolRejectsWhenQueueFull(t *testing.T) {
	pool := NewPool(1, 1, time.Minute)
	defer pool.Close()

	block := make(chan struct{})
	started := make(chan struct{})

	// Occupy the single worker.
	var workerDone sync.WaitGroup
	workerDone.Add(1)
	go func() {
		defer workerDone.Done()
		_ = pool.Submit(context.Background(), func(ctx context.Context) error {
			close(started)
			<-block
			return nil
		})
	}()
	<-started

	// Fill the single queue slot.
	workerDone.Add(1)
	go func() {
		defer workerDone.Done()
		_ = pool.Submit(context.Background(), func(ctx context.Context) error {
			return nil
		})
	}()
	require.Eventually(t, func() bool {
		return len(pool.queue) == 1
	}, time.Second, time.Millisecond)

	// Worker busy and queue full: the next submission must be rejected.
	err := pool.Submit(context.Background(), func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrQueueFull)

	close(block)
	workerDone.Wait()
}

func TestPoolEnforcesTaskTimeout(t *testing.T) {
	pool := NewPool(1, 1, 20*time.Millisecond)
	defer pool.Close()

	err := pool.Submit(context.Background(), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
