package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yokitheyo/bgremover/internal/domain"
)

func TestSubmit_ReturnsValue(t *testing.T) {
	p := NewPool(2, 0)
	defer p.Shutdown(context.Background())

	f, err := Submit(p, func() (int, error) { return 42, nil })
	require.NoError(t, err)

	v, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestSubmit_PropagatesError(t *testing.T) {
	p := NewPool(1, 0)
	defer p.Shutdown(context.Background())

	boom := errors.New("boom")
	f, err := Submit(p, func() (string, error) { return "", boom })
	require.NoError(t, err)

	_, err = f.Wait(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestSubmit_RecoversPanic(t *testing.T) {
	p := NewPool(1, 0)
	defer p.Shutdown(context.Background())

	f, err := Submit(p, func() (int, error) { panic("bad input") })
	require.NoError(t, err)

	_, err = f.Wait(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad input")

	// the worker slot is released after a panic
	f2, err := Submit(p, func() (int, error) { return 1, nil })
	require.NoError(t, err)
	v, err := f2.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestPool_BoundsConcurrency(t *testing.T) {
	const size, tasks = 2, 10
	p := NewPool(size, 0)
	defer p.Shutdown(context.Background())

	var current, peak atomic.Int64
	futures := make([]*Future[int], 0, tasks)
	for i := 0; i < tasks; i++ {
		i := i
		f, err := Submit(p, func() (int, error) {
			n := current.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			current.Add(-1)
			return i, nil
		})
		require.NoError(t, err)
		futures = append(futures, f)
	}

	for i, f := range futures {
		v, err := f.Wait(context.Background())
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
	assert.LessOrEqual(t, peak.Load(), int64(size))
	assert.Equal(t, int64(size), peak.Load())
}

func TestPool_QueueLimit(t *testing.T) {
	p := NewPool(1, 1)
	release := make(chan struct{})
	started := make(chan struct{})

	first, err := Submit(p, func() (int, error) {
		close(started)
		<-release
		return 1, nil
	})
	require.NoError(t, err)
	<-started

	second, err := Submit(p, func() (int, error) { return 2, nil })
	require.NoError(t, err)

	_, err = Submit(p, func() (int, error) { return 3, nil })
	assert.ErrorIs(t, err, domain.ErrQueueFull)

	close(release)
	_, err = first.Wait(context.Background())
	require.NoError(t, err)
	_, err = second.Wait(context.Background())
	require.NoError(t, err)
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestPool_ShutdownDrainsInFlight(t *testing.T) {
	p := NewPool(1, 0)

	var finished atomic.Int64
	release := make(chan struct{})
	for i := 0; i < 3; i++ {
		_, err := Submit(p, func() (struct{}, error) {
			<-release
			finished.Add(1)
			return struct{}{}, nil
		})
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	var shutdownErr error
	go func() {
		defer wg.Done()
		shutdownErr = p.Shutdown(context.Background())
	}()

	// new work is refused as soon as shutdown begins
	require.Eventually(t, func() bool {
		_, err := Submit(p, func() (int, error) { return 0, nil })
		return errors.Is(err, domain.ErrPoolClosed)
	}, time.Second, 5*time.Millisecond)

	close(release)
	wg.Wait()

	require.NoError(t, shutdownErr)
	assert.Equal(t, int64(3), finished.Load())
	assert.Equal(t, Stats{Workers: 1}, p.Stats())
}

func TestPool_ShutdownTimeout(t *testing.T) {
	p := NewPool(1, 0)
	release := make(chan struct{})
	defer close(release)

	_, err := Submit(p, func() (int, error) {
		<-release
		return 0, nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = p.Shutdown(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFuture_WaitAbandonDoesNotCancelTask(t *testing.T) {
	p := NewPool(1, 0)
	release := make(chan struct{})

	f, err := Submit(p, func() (int, error) {
		<-release
		return 7, nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	<-f.done
	v, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	require.NoError(t, p.Shutdown(context.Background()))
}
