package future

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// loopDispatcher queues posted work like a real event loop and only runs it
// when pumped, which mimics callbacks being marshaled onto an owning
// thread. Tests that want synchronous delivery use the default
// InlineDispatcher instead.
type loopDispatcher struct {
	mu    sync.Mutex
	queue []func()
}

func (d *loopDispatcher) Post(fn func()) {
	d.mu.Lock()
	d.queue = append(d.queue, fn)
	d.mu.Unlock()
}

func (d *loopDispatcher) Pump() {
	for {
		d.mu.Lock()
		if len(d.queue) == 0 {
			d.mu.Unlock()
			return
		}
		fn := d.queue[0]
		d.queue = d.queue[1:]
		d.mu.Unlock()
		fn()
	}
}

func TestDispatcher_CallbacksWaitForPump(t *testing.T) {
	disp := &loopDispatcher{}
	var fired atomic.Bool

	f := New(func(ctx context.Context) (int, error) {
		return 1, nil
	}, WithDispatcher(disp))
	f.OnDone(func(int) { fired.Store(true) })

	if err := f.Start(); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	<-f.Done()

	if fired.Load() {
		t.Fatal("callback ran before the dispatcher was pumped")
	}

	disp.Pump()
	if !fired.Load() {
		t.Fatal("callback did not run after pumping")
	}
}

func TestDispatcher_GetPumpsWhileBlocked(t *testing.T) {
	disp := &loopDispatcher{}
	release := make(chan struct{})

	// Work already sitting in the owner's queue; the task cannot finish
	// until it runs. Without Get pumping, this deadlocks.
	disp.Post(func() { close(release) })

	f := New(func(ctx context.Context) (int, error) {
		<-release
		return 11, nil
	}, WithDispatcher(disp))

	if err := f.Start(); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}

	result, err := f.GetWithTimeout(2 * time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != 11 {
		t.Errorf("expected 11, got %d", result)
	}
}

func TestDispatcher_LateRegistrationStillPosted(t *testing.T) {
	disp := &loopDispatcher{}

	f := New(func(ctx context.Context) (int, error) {
		return 3, nil
	}, WithDispatcher(disp))

	if err := f.Start(); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	<-f.Done()
	disp.Pump()

	var got atomic.Int64
	f.OnDone(func(n int) { got.Store(int64(n)) })

	if got.Load() != 0 {
		t.Fatal("late callback must go through the dispatcher, not run inline")
	}
	disp.Pump()
	if got.Load() != 3 {
		t.Errorf("late callback received %d, want 3", got.Load())
	}
}

func TestDispatcher_PoolCallbacksMarshaled(t *testing.T) {
	disp := &loopDispatcher{}
	p := NewPool(2, WithPoolDispatcher(disp))
	defer p.Close()

	var poolDone atomic.Int32
	p.OnDone(func(any) { poolDone.Add(1) })

	f, err := Submit(p, func(ctx context.Context) (int, error) {
		return 8, nil
	})
	if err != nil {
		t.Fatalf("unexpected submit error: %v", err)
	}
	<-f.Done()

	if poolDone.Load() != 0 {
		t.Fatal("pool callback ran before the dispatcher was pumped")
	}
	disp.Pump()
	if poolDone.Load() != 1 {
		t.Errorf("expected 1 pool done callback, got %d", poolDone.Load())
	}
}
