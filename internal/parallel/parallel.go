// Package parallel provides the fork-join helpers and worker pool shared by
// the mosaic engine and the batch utilities.
package parallel

import (
	"runtime"
	"sync"
)

// Config configures parallel processing behavior.
type Config struct {
	// NumWorkers is the number of worker goroutines. 0 means runtime.GOMAXPROCS(0).
	NumWorkers int

	// GrainSize is the minimum number of items before the range is split.
	// Ranges of fewer than two items always run on the calling goroutine.
	GrainSize int
}

// DefaultConfig returns the default parallel configuration.
func DefaultConfig() Config {
	return Config{
		NumWorkers: 0, // Use all available CPUs
		GrainSize:  1,
	}
}

// Workers returns the number of workers the config resolves to.
func (c Config) Workers() int {
	if c.NumWorkers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return c.NumWorkers
}

// sequential reports whether n items run on the calling goroutine.
// One item per worker is still split: each item may be a large unit of work.
func (c Config) sequential(n int) bool {
	return c.Workers() == 1 || n < 2 || n < c.GrainSize
}

// chunkSize returns the number of consecutive items given to each worker.
func (c Config) chunkSize(n int) int {
	workers := c.Workers()
	return (n + workers - 1) / workers
}

// Chunks returns the number of goroutines For uses for n items.
func (c Config) Chunks(n int) int {
	if n <= 0 {
		return 0
	}
	if c.sequential(n) {
		return 1
	}
	size := c.chunkSize(n)
	return (n + size - 1) / size
}

// For runs fn(i) for i in [0, n), splitting the range into one contiguous
// chunk per worker. Returns after every call has finished.
func For(cfg Config, n int, fn func(i int)) {
	_ = ForWithError(cfg, n, func(i int) error {
		fn(i)
		return nil
	})
}

// ForWithError runs fn(i) for i in [0, n) in parallel with error handling.
// A worker stops at its first error; the first error seen is returned
// (order not guaranteed) once all workers have joined.
func ForWithError(cfg Config, n int, fn func(i int) error) error {
	if cfg.sequential(n) {
		for i := 0; i < n; i++ {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	var wg sync.WaitGroup
	var errOnce sync.Once
	var firstErr error
	chunkSize := cfg.chunkSize(n)

	for w := 0; w < cfg.Chunks(n); w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				if err := fn(i); err != nil {
					errOnce.Do(func() {
						firstErr = err
					})
					return
				}
			}
		}(start, end)
	}

	wg.Wait()
	return firstErr
}

// WorkerPool manages a fixed pool of goroutines consuming submitted tasks.
type WorkerPool struct {
	numWorkers int
	wg         sync.WaitGroup
	taskChan   chan func()
	once       sync.Once
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	pool := &WorkerPool{
		numWorkers: numWorkers,
		taskChan:   make(chan func(), numWorkers*4),
	}

	for i := 0; i < numWorkers; i++ {
		go pool.worker()
	}

	return pool
}

// Size returns the number of worker goroutines.
func (p *WorkerPool) Size() int {
	return p.numWorkers
}

func (p *WorkerPool) worker() {
	for task := range p.taskChan {
		task()
		p.wg.Done()
	}
}

// Submit submits a task to the pool.
func (p *WorkerPool) Submit(task func()) {
	p.wg.Add(1)
	p.taskChan <- task
}

// Wait waits for all submitted tasks to complete.
func (p *WorkerPool) Wait() {
	p.wg.Wait()
}

// Close shuts down the worker pool.
func (p *WorkerPool) Close() {
	p.once.Do(func() {
		close(p.taskChan)
	})
}
