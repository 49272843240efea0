package future

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Pool is a fixed set of persistent workers consuming tasks from a shared
// FIFO queue. Workers are created once at construction and live until
// Shutdown seals the queue and they finish draining it.
//
// Submit and Map are package-level generic functions because methods cannot
// introduce type parameters; a single pool can therefore carry futures of
// different result types.
type Pool struct {
	workerCount int
	namePrefix  string
	initializer func(workerID int) error
	disp        Dispatcher
	hook        func(recovered any)
	rateLimiter *rate.Limiter

	queue *taskQueue
	done  chan struct{} // closed when every worker has exited

	stopped   atomic.Bool
	broken    atomic.Bool
	initCause atomic.Pointer[WorkerInitError]
	alive     atomic.Int32
	completed atomic.Int64
	failed    atomic.Int64

	cbMu    sync.Mutex
	doneCbs []func(any)
	failCbs []func(error)

	futMu   sync.Mutex
	nextID  uint64
	pending map[uint64]canceller
}

// canceller is the type-erased view of an outstanding future that
// CancelPending needs.
type canceller interface {
	Cancel(force bool) bool
}

// NewPool spawns maxWorkers persistent workers. If maxWorkers <= 0 it
// defaults to runtime.GOMAXPROCS(0). Each worker runs the configured
// initializer once before consuming tasks.
func NewPool(maxWorkers int, opts ...PoolOption) *Pool {
	if maxWorkers <= 0 {
		maxWorkers = runtime.GOMAXPROCS(0)
	}
	cfg := newPoolConfig(opts...)

	p := &Pool{
		workerCount: maxWorkers,
		namePrefix:  cfg.namePrefix,
		initializer: cfg.initializer,
		disp:        cfg.dispatcher,
		hook:        cfg.panicHook,
		rateLimiter: cfg.rateLimiter,
		queue:       newTaskQueue(),
		done:        make(chan struct{}),
		pending:     make(map[uint64]canceller),
	}
	p.alive.Store(int32(maxWorkers))

	var g errgroup.Group
	for i := range maxWorkers {
		g.Go(func() error {
			return p.worker(i)
		})
	}
	go func() {
		_ = g.Wait()
		close(p.done)
	}()

	return p
}

// worker runs the initializer and then consumes tasks until the queue is
// closed and drained. A task's error or panic never escapes this loop; it
// is captured into the task's future.
func (p *Pool) worker(id int) error {
	if p.initializer != nil {
		if err := p.initializer(id); err != nil {
			initErr := &WorkerInitError{
				Worker: fmt.Sprintf("%s-%d", p.namePrefix, id),
				Err:    err,
			}
			p.dispatchFailure(initErr)
			if p.alive.Add(-1) == 0 {
				p.breakPool(initErr)
			}
			return initErr
		}
	}

	for {
		t, ok := p.queue.Pop()
		if !ok {
			return nil
		}
		if p.rateLimiter != nil {
			_ = p.rateLimiter.Wait(context.Background())
		}
		t.run()
	}
}

// breakPool runs when the last worker failed to initialize: nothing will
// ever consume the queue, so queued futures are failed explicitly instead
// of being silently dropped, and later submissions are rejected.
func (p *Pool) breakPool(cause *WorkerInitError) {
	p.initCause.Store(cause)
	p.broken.Store(true)
	p.queue.Close()
	for {
		t, ok := p.queue.Pop()
		if !ok {
			return
		}
		t.abort(p.brokenError())
	}
}

// brokenError wraps ErrPoolBroken with the initializer failure that caused
// it, when known.
func (p *Pool) brokenError() error {
	if cause := p.initCause.Load(); cause != nil {
		return fmt.Errorf("%w: %v", ErrPoolBroken, cause)
	}
	return ErrPoolBroken
}

// Submit wraps fn into a Pending future, enqueues it, and returns
// immediately. The future inherits the pool's dispatcher and panic hook
// unless the given options override them. It returns ErrShutdown after
// Shutdown and ErrPoolBroken once every worker has failed to initialize.
func Submit[R any](p *Pool, fn Task[R], opts ...Option) (*Future[R], error) {
	if p.broken.Load() {
		return nil, p.brokenError()
	}
	if p.stopped.Load() {
		return nil, ErrShutdown
	}

	all := make([]Option, 0, len(opts)+2)
	all = append(all, WithDispatcher(p.disp), WithPanicHook(p.hook))
	all = append(all, opts...)
	f := New(fn, all...)

	id := p.track(f)
	f.observer = func(result any, err error, st State) {
		p.untrack(id)
		p.recordOutcome(result, err, st)
	}

	if err := p.queue.Push(&poolTask{run: f.run, abort: f.abort}); err != nil {
		p.untrack(id)
		if p.broken.Load() {
			return nil, p.brokenError()
		}
		return nil, ErrShutdown
	}
	return f, nil
}

func (p *Pool) track(h canceller) uint64 {
	p.futMu.Lock()
	defer p.futMu.Unlock()
	p.nextID++
	p.pending[p.nextID] = h
	return p.nextID
}

func (p *Pool) untrack(id uint64) {
	p.futMu.Lock()
	defer p.futMu.Unlock()
	delete(p.pending, id)
}

func (p *Pool) snapshotPending() []canceller {
	p.futMu.Lock()
	defer p.futMu.Unlock()
	out := make([]canceller, 0, len(p.pending))
	for _, h := range p.pending {
		out = append(out, h)
	}
	return out
}

// recordOutcome is every pool future's terminal hook: it bumps the
// counters and fires the pool-scope callbacks, once per future,
// independently of the future's own callbacks.
func (p *Pool) recordOutcome(result any, err error, st State) {
	switch st {
	case StateCompleted:
		p.completed.Add(1)
		p.dispatchDone(result)
	case StateFailed:
		p.failed.Add(1)
		p.dispatchFailure(err)
	case StateCancelled:
		// Cancellation counts as neither completed nor failed, but the
		// pool failure callbacks still hear about it.
		p.dispatchFailure(err)
	}
}

func (p *Pool) dispatchDone(result any) {
	p.cbMu.Lock()
	cbs := make([]func(any), len(p.doneCbs))
	copy(cbs, p.doneCbs)
	p.cbMu.Unlock()

	if len(cbs) == 0 {
		return
	}
	p.disp.Post(func() {
		for _, cb := range cbs {
			p.invoke(func() { cb(result) })
		}
	})
}

func (p *Pool) dispatchFailure(err error) {
	p.cbMu.Lock()
	cbs := make([]func(error), len(p.failCbs))
	copy(cbs, p.failCbs)
	p.cbMu.Unlock()

	if len(cbs) == 0 {
		return
	}
	p.disp.Post(func() {
		for _, cb := range cbs {
			p.invoke(func() { cb(err) })
		}
	})
}

func (p *Pool) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			p.hook(r)
		}
	}()
	fn()
}

// OnDone registers a pool-scope callback invoked on the owning thread once
// per future that completes.
func (p *Pool) OnDone(cb func(result any)) {
	p.cbMu.Lock()
	defer p.cbMu.Unlock()
	p.doneCbs = append(p.doneCbs, cb)
}

// OnFailure registers a pool-scope callback invoked on the owning thread
// once per future that fails or is cancelled, and for worker initializer
// failures.
func (p *Pool) OnFailure(cb func(err error)) {
	p.cbMu.Lock()
	defer p.cbMu.Unlock()
	p.failCbs = append(p.failCbs, cb)
}

// Completed returns the number of futures that reached Completed.
func (p *Pool) Completed() int64 {
	return p.completed.Load()
}

// Failed returns the number of futures that reached Failed.
func (p *Pool) Failed() int64 {
	return p.failed.Load()
}

// QueueLen reports the number of tasks waiting for a worker.
func (p *Pool) QueueLen() int {
	return p.queue.Len()
}

// Shutdown stops accepting submissions, seals the queue, and by default
// blocks (pumping the dispatcher) until the workers have drained every
// queued task and exited. It is idempotent: repeated calls just wait again.
//
// CancelPending gracefully cancels outstanding futures first; NoWait skips
// the drain wait; WithShutdownTimeout bounds it.
func (p *Pool) Shutdown(opts ...ShutdownOption) error {
	cfg := &shutdownConfig{wait: true}
	for _, opt := range opts {
		opt(cfg)
	}

	p.stopped.Store(true)
	if cfg.cancelPending {
		for _, h := range p.snapshotPending() {
			h.Cancel(false)
		}
	}
	p.queue.Close()

	if !cfg.wait {
		return nil
	}
	if err := waitPumping(p.done, cfg.timeout, p.disp); err != nil {
		if errors.Is(err, ErrTimeout) {
			return ErrShutdownTimeout
		}
		return err
	}
	return nil
}

// Close makes the pool usable as a scoped resource: defer p.Close() is
// shutdown-and-wait.
func (p *Pool) Close() error {
	return p.Shutdown()
}
