package future

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// State is the lifecycle stage of a Future. Transitions are monotonic: once
// a terminal state (Cancelled, Completed, Failed) is committed it never
// changes.
type State int32

const (
	StatePending State = iota
	StateRunning
	StateCancelRequested
	StateCancelled
	StateCompleted
	StateFailed
)

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	return s == StateCancelled || s == StateCompleted || s == StateFailed
}

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateCancelRequested:
		return "cancel-requested"
	case StateCancelled:
		return "cancelled"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Task is the deferred unit of work: arguments are bound by the closure and
// the context is the cooperative cancellation token. A task that wants to
// honor graceful cancellation checks ctx and returns ctx.Err() early;
// a task that ignores it simply runs to normal completion or failure.
type Task[R any] func(ctx context.Context) (R, error)

// Future tracks one task's lifecycle: its state, its eventual result or
// error, and its registered callbacks. The terminal transition is committed
// by exactly one goroutine (the worker, a watchdog, or a forced cancel) and
// callbacks are delivered exactly once, in registration order, on the
// owning thread via the configured Dispatcher.
//
// A Future is either started standalone with Start, which gives it a
// dedicated goroutine, or created by Submit, which runs it on a pool
// worker.
type Future[R any] struct {
	fn       Task[R]
	disp     Dispatcher
	hook     func(recovered any)
	watchdog time.Duration

	ctx     context.Context
	cancel  context.CancelFunc
	started atomic.Bool

	mu       sync.Mutex
	state    State
	result   R
	err      error
	doneCbs  []func(R)
	failCbs  []func(error)
	timer    *time.Timer
	observer func(result any, err error, st State)
	done     chan struct{}
}

// New creates a Pending future for fn. It does not run anything until
// Start is called or a pool worker picks it up.
func New[R any](fn Task[R], opts ...Option) *Future[R] {
	cfg := newConfig(opts...)
	ctx, cancel := context.WithCancel(context.Background())
	return &Future[R]{
		fn:       fn,
		disp:     cfg.dispatcher,
		hook:     cfg.panicHook,
		watchdog: cfg.watchdog,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start launches the task on a dedicated goroutine. It returns
// ErrAlreadyStarted on the second and later calls.
func (f *Future[R]) Start() error {
	if !f.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	go f.run()
	return nil
}

// run executes the task on the calling goroutine and commits the terminal
// transition. Pool workers call this directly; Start calls it on a fresh
// goroutine.
func (f *Future[R]) run() {
	f.mu.Lock()
	switch f.state {
	case StatePending:
		f.state = StateRunning
		if f.watchdog > 0 {
			f.timer = time.AfterFunc(f.watchdog, f.onWatchdog)
		}
		f.mu.Unlock()
	case StateCancelRequested:
		// Cancelled while still queued; never run the task.
		var zero R
		f.commit(zero, ErrCancelled, StateCancelled)
		return
	default:
		// Already terminal (forced cancel won) or already running.
		f.mu.Unlock()
		return
	}

	res, err := f.execute()
	f.complete(res, err)
}

// execute invokes the task with panic recovery so a panicking task becomes
// a Failed future instead of crashing its worker.
func (f *Future[R]) execute() (res R, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			err = fmt.Errorf("task panic: %v\nstack trace:\n%s", r, buf[:n])
		}
	}()

	return f.fn(f.ctx)
}

// complete resolves the task's outcome into a terminal state. If a forced
// cancel already committed, the outcome of the detached task is discarded.
func (f *Future[R]) complete(res R, err error) {
	f.mu.Lock()
	if f.state.Terminal() {
		f.mu.Unlock()
		return
	}

	cancelRequested := f.state == StateCancelRequested

	switch {
	case err == nil:
		f.commit(res, nil, StateCompleted)
	case cancelRequested && (errors.Is(err, context.Canceled) || errors.Is(err, ErrCancelled)):
		var zero R
		f.commit(zero, ErrCancelled, StateCancelled)
	default:
		var zero R
		f.commit(zero, err, StateFailed)
	}
}

// commit writes the terminal state and dispatches callbacks. It must be
// called with f.mu held; it releases the lock. Exactly one caller ever gets
// here per future (guarded by the terminal check under the lock). The done
// channel closes last, strictly after the outcome is durably set and the
// callbacks are posted, so anyone woken by it observes the terminal values
// and a single Pump delivers the callbacks.
func (f *Future[R]) commit(res R, err error, st State) {
	f.state = st
	f.result = res
	f.err = err
	if f.timer != nil {
		f.timer.Stop()
	}
	dones, fails := f.doneCbs, f.failCbs
	f.doneCbs, f.failCbs = nil, nil
	obs := f.observer
	f.mu.Unlock()

	f.cancel()

	if obs != nil {
		obs(any(res), err, st)
	}

	if st == StateCompleted {
		if len(dones) > 0 {
			f.disp.Post(func() {
				for _, cb := range dones {
					f.invokeDone(cb, res)
				}
			})
		}
	} else if len(fails) > 0 {
		f.disp.Post(func() {
			for _, cb := range fails {
				f.invokeFail(cb, err)
			}
		})
	}

	close(f.done)
}

// onWatchdog is the WithWatchdog expiry path: force-cancel the future with
// a timeout error while the (now detached) task keeps running unobserved.
func (f *Future[R]) onWatchdog() {
	f.mu.Lock()
	if f.state.Terminal() {
		f.mu.Unlock()
		return
	}
	f.cancel()
	var zero R
	f.commit(zero, fmt.Errorf("task exceeded %v: %w", f.watchdog, ErrTimeout), StateCancelled)
}

// abort fails a future whose task will never run, e.g. it was queued on a
// pool that lost all of its workers.
func (f *Future[R]) abort(err error) {
	f.mu.Lock()
	if f.state.Terminal() {
		f.mu.Unlock()
		return
	}
	var zero R
	f.commit(zero, err, StateFailed)
}

// Cancel requests cancellation and reports whether the request was
// accepted; it is accepted only before the future is terminal.
//
// With force == false the request is advisory: the task's context is
// cancelled and the task decides whether to honor it. With force == true
// the future becomes Cancelled immediately and the running task is
// detached: it may keep executing in the background, but its outcome is
// discarded. Go offers no safe way to kill a goroutine, so forced
// cancellation is best-effort detachment, never guaranteed preemption.
//
// A Cancelled future delivers ErrCancelled (or the watchdog's timeout
// error) to its failure callbacks; done callbacks never fire.
func (f *Future[R]) Cancel(force bool) bool {
	f.mu.Lock()
	if f.state.Terminal() {
		f.mu.Unlock()
		return false
	}

	f.cancel()
	if force {
		var zero R
		f.commit(zero, ErrCancelled, StateCancelled)
		return true
	}

	if f.state == StatePending || f.state == StateRunning {
		f.state = StateCancelRequested
	}
	f.mu.Unlock()
	return true
}

// OnDone registers cb to run on the owning thread with the task's result.
// Callbacks fire in registration order, exactly once, and only if the
// future Completes. Registration after completion fires immediately with
// the stored result.
//
// For multi-value results ([]any) combine with the Unpack adapters; for
// result-less notification use Notify.
func (f *Future[R]) OnDone(cb func(R)) {
	f.mu.Lock()
	switch {
	case f.state == StateCompleted:
		res := f.result
		f.mu.Unlock()
		f.disp.Post(func() {
			f.invokeDone(cb, res)
		})
	case f.state.Terminal():
		// Failed or Cancelled: a done callback never fires.
		f.mu.Unlock()
	default:
		f.doneCbs = append(f.doneCbs, cb)
		f.mu.Unlock()
	}
}

// OnFailure registers cb to run on the owning thread with the captured
// error if the future Fails or is Cancelled. Never invoked together with a
// done callback for the same future. Registration after the terminal
// transition fires immediately with the stored error.
func (f *Future[R]) OnFailure(cb func(error)) {
	f.mu.Lock()
	switch {
	case f.state == StateFailed || f.state == StateCancelled:
		err := f.err
		f.mu.Unlock()
		f.disp.Post(func() {
			f.invokeFail(cb, err)
		})
	case f.state == StateCompleted:
		f.mu.Unlock()
	default:
		f.failCbs = append(f.failCbs, cb)
		f.mu.Unlock()
	}
}

// invokeDone runs a done callback with panic isolation: a panicking
// callback is reported through the hook and must not stall delivery to the
// callbacks registered after it.
func (f *Future[R]) invokeDone(cb func(R), res R) {
	defer func() {
		if r := recover(); r != nil {
			f.hook(r)
		}
	}()
	cb(res)
}

func (f *Future[R]) invokeFail(cb func(error), err error) {
	defer func() {
		if r := recover(); r != nil {
			f.hook(r)
		}
	}()
	cb(err)
}

// Get blocks until the future is terminal and returns the result. On
// Failed it returns the captured error, on Cancelled ErrCancelled (or the
// watchdog's timeout error). While blocked it pumps the dispatcher, so a
// Get on the owning thread cannot deadlock against callbacks marshaled to
// that same thread.
func (f *Future[R]) Get() (R, error) {
	return f.GetWithTimeout(0)
}

// GetWithTimeout is Get with a bounded wait; it returns ErrTimeout if the
// future is not terminal within the timeout. A timeout of 0 waits forever.
func (f *Future[R]) GetWithTimeout(timeout time.Duration) (R, error) {
	var zero R
	if err := waitPumping(f.done, timeout, f.disp); err != nil {
		return zero, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateCompleted {
		return f.result, nil
	}
	return zero, f.err
}

// Done returns a channel that is closed once the future is terminal.
func (f *Future[R]) Done() <-chan struct{} {
	return f.done
}

// Running reports whether the task is currently executing (including with
// a pending graceful-cancel request).
func (f *Future[R]) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state == StateRunning || f.state == StateCancelRequested
}

// IsReady reports whether the future has reached a terminal state.
func (f *Future[R]) IsReady() bool {
	return f.State().Terminal()
}

// State returns the current lifecycle state.
func (f *Future[R]) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}
