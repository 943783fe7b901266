// Package executor defines how the engine runs per-term work: inline on the
// calling goroutine, or fanned out over an ants worker pool.
package executor

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// Policy runs fn(0) .. fn(n-1) and returns once every call has finished.
type Policy interface {
	Run(n int, fn func(i int))
	Parallel() bool
	Name() string
}

type sequential struct{}

// Sequential runs every task in order on the calling goroutine.
var Sequential Policy = sequential{}

func (sequential) Run(n int, fn func(i int)) {
	for i := 0; i < n; i++ {
		fn(i)
	}
}

func (sequential) Parallel() bool { return false }
func (sequential) Name() string   { return "sequential" }

// Pool fans tasks out over a bounded set of goroutines. Tasks submitted
// from inside a running task must not block on the same Pool.
type Pool struct {
	pool   *ants.Pool
	logger *slog.Logger
}

// NewPool starts a pool with the given number of workers.
func NewPool(workers int) (*Pool, error) {
	if workers <= 0 {
		return nil, fmt.Errorf("worker count must be positive, got %d", workers)
	}
	p, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("creating worker pool: %w", err)
	}
	return &Pool{
		pool:   p,
		logger: slog.Default().With("component", "executor"),
	}, nil
}

// Run dispatches every task to the pool. A task the pool refuses, for example
// after Release, runs inline so that Run always completes all n calls.
func (p *Pool) Run(n int, fn func(i int)) {
	if n == 1 {
		fn(0)
		return
	}
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		task := func() {
			defer wg.Done()
			fn(i)
		}
		if err := p.pool.Submit(task); err != nil {
			p.logger.Warn("pool rejected task, running inline", "error", err)
			task()
		}
	}
	wg.Wait()
}

func (p *Pool) Parallel() bool { return true }
func (p *Pool) Name() string   { return "parallel" }

// Workers returns the pool capacity.
func (p *Pool) Workers() int {
	return p.pool.Cap()
}

func (p *Pool) Release() {
	p.pool.Release()
}
