//go:build !integration

package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSubmit_ExecutesTasks(t *testing.T) {
	p := NewPool("test", 2, 8, PolicyAbort)

	var done int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		if err := p.Submit(func() {
			defer wg.Done()
			atomic.AddInt32(&done, 1)
		}); err != nil {
			wg.Done()
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	wg.Wait()

	if atomic.LoadInt32(&done) != 8 {
		t.Errorf("done = %d, want 8", done)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := p.Shutdown(ctx); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

// saturate fills the single worker and the whole queue, returning the
// release function for the blocked worker.
func saturate(t *testing.T, p *Pool, queueSize int) func() {
	t.Helper()

	block := make(chan struct{})
	started := make(chan struct{})
	if err := p.Submit(func() {
		close(started)
		<-block
	}); err != nil {
		t.Fatalf("seed task: %v", err)
	}
	<-started

	for i := 0; i < queueSize; i++ {
		if err := p.Submit(func() { <-block }); err != nil {
			t.Fatalf("queue fill %d: %v", i, err)
		}
	}

	var once sync.Once
	return func() { once.Do(func() { close(block) }) }
}

func TestSubmit_CallerRunsOnFullQueue(t *testing.T) {
	p := NewPool("test", 1, 1, PolicyCallerRuns)
	release := saturate(t, p, 1)
	defer release()

	ran := false
	if err := p.Submit(func() { ran = true }); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// With caller-runs the overflow task finished synchronously.
	if !ran {
		t.Error("overflow task should have run on the submitting goroutine")
	}
}

func TestSubmit_DiscardOnFullQueue(t *testing.T) {
	p := NewPool("test", 1, 1, PolicyDiscard)
	release := saturate(t, p, 1)
	defer release()

	var ran int32
	if err := p.Submit(func() { atomic.AddInt32(&ran, 1) }); err != nil {
		t.Fatalf("discard policy must not error: %v", err)
	}

	release()
	time.Sleep(50 * time.Millisecond)

	if atomic.LoadInt32(&ran) != 0 {
		t.Error("overflow task should have been discarded")
	}
}

func TestSubmit_AbortOnFullQueue(t *testing.T) {
	p := NewPool("test", 1, 1, PolicyAbort)
	release := saturate(t, p, 1)
	defer release()

	err := p.Submit(func() {})
	if !errors.Is(err, ErrQueueFull) {
		t.Errorf("err = %v, want ErrQueueFull", err)
	}
}

func TestSubmit_AfterShutdown(t *testing.T) {
	p := NewPool("test", 1, 4, PolicyAbort)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := p.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	if err := p.Submit(func() {}); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("err = %v, want ErrPoolClosed", err)
	}

	// Caller-runs pools still execute after close instead of erroring.
	p2 := NewPool("test2", 1, 4, PolicyCallerRuns)
	if err := p2.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	ran := false
	if err := p2.Submit(func() { ran = true }); err != nil {
		t.Errorf("caller-runs submit after close: %v", err)
	}
	if !ran {
		t.Error("caller-runs task should execute even after close")
	}
}

func TestShutdown_DrainsQueue(t *testing.T) {
	p := NewPool("test", 1, 16, PolicyAbort)

	var done int32
	for i := 0; i < 16; i++ {
		if err := p.Submit(func() {
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&done, 1)
		}); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	if atomic.LoadInt32(&done) != 16 {
		t.Errorf("done = %d, want all queued tasks drained", done)
	}
}

func TestExecute_RecoversPanics(t *testing.T) {
	p := NewPool("test", 1, 4, PolicyAbort)

	done := make(chan struct{})
	if err := p.Submit(func() { panic("boom") }); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := p.Submit(func() { close(done) }); err != nil {
		t.Fatalf("submit: %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker died after a panicking task")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = p.Shutdown(ctx)
}
