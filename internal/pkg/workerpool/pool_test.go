package workerpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestPool_RunsEveryTask(t *testing.T) {
	p := New(4, 32)
	results := p.Run(context.Background())

	var ran atomic.Int32
	boom := errors.New("boom")
	for i := 0; i < 32; i++ {
		p.Submit(func(context.Context) error {
			ran.Add(1)
			if i%8 == 0 {
				return boom
			}
			return nil
		})
	}
	p.Close()

	var total, failed int
	for r := range results {
		total++
		if errors.Is(r.Err, boom) {
			failed++
		}
	}
	if total != 32 || ran.Load() != 32 {
		t.Fatalf("expected 32 results, got %d (ran %d)", total, ran.Load())
	}
	if failed != 4 {
		t.Fatalf("expected 4 failures, got %d", failed)
	}
}

func TestPool_LimiterPacesStartsAfterClose(t *testing.T) {
	const (
		tasks     = 5
		perSecond = 20
	)
	p := New(3, tasks, WithLimiter(NewLimiter(perSecond)))
	results := p.Run(context.Background())

	start := time.Now()
	for i := 0; i < tasks; i++ {
		p.Submit(func(context.Context) error { return nil })
	}
	p.Close()

	n := 0
	for range results {
		n++
	}
	elapsed := time.Since(start)

	if n != tasks {
		t.Fatalf("expected %d results, got %d", tasks, n)
	}
	if min := time.Duration(tasks-1) * time.Second / perSecond; elapsed < min {
		t.Fatalf("expected at least %v for %d tasks at %d/s, took %v", min, tasks, perSecond, elapsed)
	}
}

func TestPool_SharedLimiterSpansPools(t *testing.T) {
	lim := NewLimiter(20)
	start := time.Now()
	for round := 0; round < 2; round++ {
		p := New(2, 2, WithLimiter(lim))
		results := p.Run(context.Background())
		p.Submit(func(context.Context) error { return nil })
		p.Submit(func(context.Context) error { return nil })
		p.Close()
		for range results {
		}
	}
	if elapsed := time.Since(start); elapsed < 3*time.Second/20 {
		t.Fatalf("expected pace to carry across pools, took %v", elapsed)
	}
}

func TestPool_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := New(2, 8, WithLimiter(NewLimiter(1)))
	results := p.Run(ctx)
	for i := 0; i < 8; i++ {
		p.Submit(func(context.Context) error { return nil })
	}
	cancel()

	done := make(chan struct{})
	go func() {
		for range results {
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("results not closed after cancel")
	}
}

func TestNewLimiter_DisabledWhenNotPositive(t *testing.T) {
	if NewLimiter(0) != nil || NewLimiter(-3) != nil {
		t.Fatalf("expected nil limiter")
	}
}
