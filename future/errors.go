package future

import (
	"errors"
	"fmt"
)

var (
	// ErrCancelled is delivered when a future reaches the Cancelled state,
	// either through Cancel or because its task honored a graceful
	// cancellation request.
	ErrCancelled = errors.New("future cancelled")

	// ErrTimeout is returned when a bounded wait (GetWithTimeout, or the
	// watchdog armed by WithWatchdog) expires before the future is terminal.
	ErrTimeout = errors.New("wait timed out")

	// ErrAlreadyStarted is returned by Start when the future has already
	// been started.
	ErrAlreadyStarted = errors.New("future already started")

	// ErrShutdown is returned by Submit after the pool has been shut down.
	ErrShutdown = errors.New("pool is shut down")

	// ErrShutdownTimeout is returned by Shutdown when workers do not drain
	// within the configured timeout.
	ErrShutdownTimeout = errors.New("error in shutting down: timeout reached")

	// ErrPoolBroken is returned by Submit when every worker failed to
	// initialize and the pool can no longer execute anything.
	ErrPoolBroken = errors.New("pool broken: every worker failed to initialize")

	// ErrQueueClosed is returned when pushing to a closed task queue.
	ErrQueueClosed = errors.New("queue is closed")
)

// WorkerInitError reports a worker whose initializer failed. The worker is
// lost but the pool keeps running with the remaining workers; the error is
// surfaced through the pool's failure callbacks.
type WorkerInitError struct {
	Worker string
	Err    error
}

func (e *WorkerInitError) Error() string {
	return fmt.Sprintf("worker %s failed to initialize: %v", e.Worker, e.Err)
}

func (e *WorkerInitError) Unwrap() error {
	return e.Err
}
