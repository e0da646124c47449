// Package worker runs blocking, CPU-heavy tasks on a fixed number of workers.
package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/wb-go/wbf/zlog"
	"golang.org/x/sync/semaphore"

	"github.com/yokitheyo/bgremover/internal/domain"
)

// Pool bounds how many submitted tasks run at once. Tasks beyond the capacity
// wait for a free worker. With maxQueue == 0 the wait queue is unbounded.
type Pool struct {
	size     int
	maxQueue int64
	sem      *semaphore.Weighted

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	queued  atomic.Int64
	running atomic.Int64
}

type Stats struct {
	Workers int   `json:"workers"`
	Running int64 `json:"running"`
	Queued  int64 `json:"queued"`
}

func NewPool(size, maxQueue int) *Pool {
	if size <= 0 {
		size = 1
	}
	if maxQueue < 0 {
		maxQueue = 0
	}
	zlog.Logger.Info().
		Int("workers", size).
		Int("max_queue", maxQueue).
		Msg("worker pool started")
	return &Pool{
		size:     size,
		maxQueue: int64(maxQueue),
		sem:      semaphore.NewWeighted(int64(size)),
	}
}

// Future — результат задачи, которая ещё выполняется.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Wait blocks until the task finishes or ctx is done. Giving up on the wait
// does not stop the task.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Submit ставит задачу в пул и сразу возвращает Future.
// Паника в задаче перехватывается и возвращается как ошибка.
func Submit[T any](p *Pool, task func() (T, error)) (*Future[T], error) {
	f := &Future[T]{done: make(chan struct{})}
	err := p.submit(func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				zlog.Logger.Error().Interface("panic", r).Msg("worker task panicked")
				f.err = fmt.Errorf("task panicked: %v", r)
			}
		}()
		f.value, f.err = task()
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (p *Pool) submit(run func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return domain.ErrPoolClosed
	}
	if n := p.queued.Add(1); p.maxQueue > 0 && n > p.maxQueue {
		p.queued.Add(-1)
		return domain.ErrQueueFull
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		// Acquire cannot fail with a background context.
		_ = p.sem.Acquire(context.Background(), 1)
		p.queued.Add(-1)
		p.running.Add(1)
		defer func() {
			p.running.Add(-1)
			p.sem.Release(1)
		}()

		run()
	}()
	return nil
}

// Shutdown stops accepting tasks and waits for queued and running ones to
// finish, or for ctx to be done.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		zlog.Logger.Info().Msg("worker pool drained")
		return nil
	case <-ctx.Done():
		st := p.Stats()
		zlog.Logger.Warn().
			Int64("running", st.Running).
			Int64("queued", st.Queued).
			Msg("worker pool drain interrupted")
		return fmt.Errorf("worker pool drain: %w", ctx.Err())
	}
}

// Stats возвращает текущую загрузку пула.
func (p *Pool) Stats() Stats {
	return Stats{
		Workers: p.size,
		Running: p.running.Load(),
		Queued:  p.queued.Load(),
	}
}
