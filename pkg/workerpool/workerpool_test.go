package workerpool

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"wheres-my-food/pkg/logger"
)

func TestPool(t *testing.T) {
	t.Parallel()

	t.Run("runs submitted tasks and drains on close", func(t *testing.T) {
		p := New(2, 16, logger.Nop())
		var count atomic.Int32
		for i := 0; i < 10; i++ {
			if !p.Submit("count", func(ctx context.Context) { count.Add(1) }) {
				t.Fatalf("expected task %d to be accepted", i)
			}
		}
		if err := p.Close(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if count.Load() != 10 {
			t.Fatalf("expected 10 tasks run, got %d", count.Load())
		}
	})

	t.Run("full queue drops without blocking", func(t *testing.T) {
		p := New(1, 1, logger.Nop())
		release := make(chan struct{})
		started := make(chan struct{})

		p.Submit("block", func(ctx context.Context) {
			close(started)
			<-release
		})
		<-started
		if !p.Submit("queued", func(ctx context.Context) {}) {
			t.Fatalf("expected second task to fit in queue")
		}

		done := make(chan bool, 1)
		go func() { done <- p.Submit("dropped", func(ctx context.Context) {}) }()
		select {
		case ok := <-done:
			if ok {
				t.Fatalf("expected task to be dropped")
			}
		case <-time.After(time.Second):
			t.Fatalf("Submit blocked on full queue")
		}

		close(release)
		if err := p.Close(context.Background()); err != nil {
			t.Fatalf("close: %v", err)
		}
	})

	t.Run("submit after close is rejected", func(t *testing.T) {
		p := New(1, 1, logger.Nop())
		if err := p.Close(context.Background()); err != nil {
			t.Fatalf("close: %v", err)
		}
		if p.Submit("late", func(ctx context.Context) {}) {
			t.Fatalf("expected submit after close to be rejected")
		}
	})

	t.Run("panicking task does not kill the worker", func(t *testing.T) {
		p := New(1, 4, logger.Nop())
		var ran atomic.Bool
		p.Submit("panic", func(ctx context.Context) { panic("boom") })
		p.Submit("after", func(ctx context.Context) { ran.Store(true) })
		if err := p.Close(context.Background()); err != nil {
			t.Fatalf("close: %v", err)
		}
		if !ran.Load() {
			t.Fatalf("expected task after panic to run")
		}
	})
}

func TestInline(t *testing.T) {
	t.Parallel()

	ran := false
	if !(Inline{}).Submit("sync", func(ctx context.Context) { ran = true }) {
		t.Fatalf("expected inline submit to succeed")
	}
	if !ran {
		t.Fatalf("expected task to run synchronously")
	}
}
