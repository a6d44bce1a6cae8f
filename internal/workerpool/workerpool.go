// Package workerpool provides a generic fixed-size worker pool.
package workerpool

import (
	"context"
	"runtime"
	"sync"
)

// DefaultWorkers is used when a caller asks for zero or fewer workers.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// Pool distributes jobs across a fixed number of workers and collects results.
type Pool[Job any, Result any] struct {
	numWorkers int
	jobs       chan Job
	results    chan Result
	wg         sync.WaitGroup
}

// New creates a pool with the given number of workers.
// If numWorkers is 0 or negative, it defaults to DefaultWorkers.
// If numJobs is positive and smaller, the pool is shrunk to numJobs workers.
func New[Job any, Result any](numWorkers, numJobs int) *Pool[Job, Result] {
	if numWorkers <= 0 {
		numWorkers = DefaultWorkers
	}
	if numJobs > 0 {
		numWorkers = min(numWorkers, numJobs)
	}

	return &Pool[Job, Result]{
		numWorkers: numWorkers,
		jobs:       make(chan Job, max(numJobs, 0)),
		results:    make(chan Result, max(numJobs, 0)),
	}
}

// Workers returns the number of workers the pool runs.
func (p *Pool[Job, Result]) Workers() int {
	return p.numWorkers
}

// Start launches the workers. Each worker calls fn for every job it receives
// until the job channel is closed or ctx is done.
func (p *Pool[Job, Result]) Start(ctx context.Context, fn func(context.Context, Job) Result) {
	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				if ctx.Err() != nil {
					continue // drain
				}
				p.results <- fn(ctx, job)
			}
		}()
	}
}

// Submit queues a job.
func (p *Pool[Job, Result]) Submit(job Job) {
	p.jobs <- job
}

// TrySubmit queues a job unless the queue is full.
func (p *Pool[Job, Result]) TrySubmit(job Job) bool {
	select {
	case p.jobs <- job:
		return true
	default:
		return false
	}
}

// Close stops accepting jobs. The results channel is closed once every
// worker has returned.
func (p *Pool[Job, Result]) Close() {
	close(p.jobs)
	go func() {
		p.wg.Wait()
		close(p.results)
	}()
}

// Results returns the channel results are delivered on.
func (p *Pool[Job, Result]) Results() <-chan Result {
	return p.results
}

type indexed[T any] struct {
	i int
	v T
}

// Map applies fn to every item using up to workers goroutines and returns the
// results in input order. If ctx is cancelled the remaining items are skipped
// and ctx.Err() is returned.
func Map[In any, Out any](ctx context.Context, workers int, items []In, fn func(context.Context, In) Out) ([]Out, error) {
	out := make([]Out, len(items))
	if len(items) == 0 {
		return out, ctx.Err()
	}

	p := New[indexed[In], indexed[Out]](workers, len(items))
	p.Start(ctx, func(ctx context.Context, job indexed[In]) indexed[Out] {
		return indexed[Out]{i: job.i, v: fn(ctx, job.v)}
	})
	for i, item := range items {
		p.Submit(indexed[In]{i: i, v: item})
	}
	p.Close()

	for r := range p.Results() {
		out[r.i] = r.v
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
