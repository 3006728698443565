// Package worker provides the fixed-size task pool MCTS engines submit
// their playout loops to. It is a thin wrapper over golang.org/x/sync's
// errgroup: Initialize fixes the degree of parallelism, Submit is
// fire-and-forget, and WaitAll is the barrier every engine blocks on
// before reading its tree's statistics.
//
// Grounded on golang.org/x/sync/errgroup.Group.SetLimit/Go, used the same
// way in janpfeifer-hiveGo's cmd/a0trainer/matches.go and
// cmd/trainer/play_and_train.go for bounding concurrent self-play matches.
package worker

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Pool is the opaque worker-pool handle shared by every MCTS engine
// instantiated with it. The zero value is not usable; use New.
type Pool struct {
	mu   sync.Mutex
	n    int
	cur  *errgroup.Group
	curC context.Context
}

// New creates a pool fixed at n concurrent tasks. n <= 0 is a contract
// violation: a pool must offer at least one worker.
func New(n int) *Pool {
	if n <= 0 {
		panic(errors.Errorf("worker: pool size must be positive, got %d", n))
	}
	return &Pool{n: n}
}

// Initialize (re)fixes the pool's concurrency to n. It must not be
// called while a Submit/WaitAll cycle is in flight; the typical caller
// calls it once at pool construction or between searches.
func (p *Pool) Initialize(n int) {
	if n <= 0 {
		panic(errors.Errorf("worker: pool size must be positive, got %d", n))
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.n = n
}

// Size reports the pool's configured concurrency.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.n
}

// beginBatch lazily starts a new errgroup.Group bounded to the pool's
// current size; subsequent Submit calls in the same batch enqueue onto
// it, and WaitAll retires the batch. Returns the group together with
// the context for that specific batch, read under the lock so a
// concurrent WaitAll/beginBatch pair starting the next batch can never
// be mistaken for this one.
func (p *Pool) beginBatch(ctx context.Context) (*errgroup.Group, context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cur == nil {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.n)
		p.cur = g
		p.curC = gctx
	}
	return p.cur, p.curC
}

// Submit enqueues task as a fire-and-forget unit of work. Tasks run on a
// pool goroutine as soon as a slot under the configured concurrency
// frees up; Submit itself never blocks on task completion, only on
// acquiring a free slot when the pool is saturated.
func (p *Pool) Submit(ctx context.Context, task func(ctx context.Context) error) {
	g, gctx := p.beginBatch(ctx)
	g.Go(func() error {
		return task(gctx)
	})
}

// WaitAll blocks until every task submitted since the last WaitAll has
// returned, then resets the pool for the next batch. It returns the
// first non-nil error among the batch's tasks, wrapped with the context
// "worker: batch failed".
func (p *Pool) WaitAll() error {
	p.mu.Lock()
	g := p.cur
	p.cur = nil
	p.curC = nil
	p.mu.Unlock()

	if g == nil {
		return nil
	}
	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "worker: batch failed")
	}
	return nil
}
