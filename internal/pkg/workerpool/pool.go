// Package workerpool runs queued tasks on a fixed number of goroutines. Task
// starts can be paced by a shared token bucket.
package workerpool

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

type Task func(ctx context.Context) error

type Result struct {
	Err error
}

type Pool struct {
	size    int
	queue   chan Task
	limiter *rate.Limiter
	running sync.WaitGroup
}

type Option func(*Pool)

// WithLimiter paces task starts. The limiter may be shared by several pools
// so that the pace holds across batches.
func WithLimiter(l *rate.Limiter) Option {
	return func(p *Pool) { p.limiter = l }
}

// NewLimiter returns a limiter allowing perSecond starts with a burst of one,
// or nil when perSecond is not positive.
func NewLimiter(perSecond int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

// New creates a pool of size goroutines. Submit blocks once queue tasks are
// waiting and no goroutine is free.
func New(size, queue int, opts ...Option) *Pool {
	if size <= 0 {
		size = 1
	}
	if queue < 0 {
		queue = 0
	}
	p := &Pool{size: size, queue: make(chan Task, queue)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pool) Submit(t Task) {
	if p == nil || t == nil {
		return
	}
	p.queue <- t
}

// Close ends the queue. Queued tasks still run at the configured pace.
func (p *Pool) Close() {
	if p == nil {
		return
	}
	close(p.queue)
}

// Run starts the goroutines. The returned channel yields one Result per task
// that ran and is closed once the queue is drained or ctx is done. Callers
// must drain it.
func (p *Pool) Run(ctx context.Context) <-chan Result {
	if p == nil {
		out := make(chan Result)
		close(out)
		return out
	}
	out := make(chan Result, p.size)

	p.running.Add(p.size)
	for i := 0; i < p.size; i++ {
		go p.work(ctx, out)
	}
	go func() {
		p.running.Wait()
		close(out)
	}()
	return out
}

func (p *Pool) work(ctx context.Context, out chan<- Result) {
	defer p.running.Done()
	for {
		var t Task
		select {
		case <-ctx.Done():
			return
		case next, ok := <-p.queue:
			if !ok {
				return
			}
			t = next
		}

		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return
			}
		}

		res := Result{Err: t(ctx)}
		select {
		case <-ctx.Done():
			return
		case out <- res:
		}
	}
}
