// Package worker runs classification jobs on a bounded pool of goroutines.
package worker

import (
	"context"
	"sync"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

type envelope struct {
	seq    int
	job    Job
	result Result
}

// Pool manages a fixed set of workers. Results are collected as they
// arrive, so Submit never deadlocks on a full result channel, and Wait
// returns them in submission order.
type Pool struct {
	workers    int
	jobQueue   chan envelope
	results    chan envelope
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	closeOnce  sync.Once

	seq       int
	collected map[int]Result
	collector chan struct{}
}

// NewPool creates a pool bound to parent; cancelling parent stops the workers
func NewPool(parent context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if parent == nil {
		parent = context.Background()
	}

	ctx, cancel := context.WithCancel(parent)

	return &Pool{
		workers:    workers,
		jobQueue:   make(chan envelope, workers*2),
		results:    make(chan envelope, workers*2),
		ctx:        ctx,
		cancelFunc: cancel,
		collected:  make(map[int]Result),
		collector:  make(chan struct{}),
	}
}

// Start starts the workers and the result collector
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	go func() {
		defer close(p.collector)
		for env := range p.results {
			p.collected[env.seq] = env.result
		}
	}()
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case env, ok := <-p.jobQueue:
			if !ok {
				return
			}
			env.result = env.job.Execute(p.ctx)
			p.results <- env
		}
	}
}

// Submit queues a job. It must be called from a single goroutine. Returns
// false when the pool was shut down before the job could be queued.
func (p *Pool) Submit(job Job) bool {
	if p.ctx.Err() != nil {
		return false
	}

	env := envelope{seq: p.seq, job: job}
	p.seq++

	select {
	case <-p.ctx.Done():
		return false
	case p.jobQueue <- env:
		return true
	}
}

// Wait closes the queue, waits for all workers and returns results in
// submission order. Jobs skipped because of cancellation have no result.
func (p *Pool) Wait() []Result {
	close(p.jobQueue)
	p.wg.Wait()
	p.closeResults()
	<-p.collector
	p.cancelFunc()

	results := make([]Result, 0, len(p.collected))
	for seq := 0; seq < p.seq; seq++ {
		if r, ok := p.collected[seq]; ok {
			results = append(results, r)
		}
	}
	return results
}

// Shutdown stops the pool without waiting for queued jobs
func (p *Pool) Shutdown() {
	p.cancelFunc()
	p.wg.Wait()
	p.closeResults()
	<-p.collector
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}
