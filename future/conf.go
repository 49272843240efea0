package future

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/time/rate"
)

// Option configures a single Future at creation time.
type Option func(*config)

type config struct {
	dispatcher Dispatcher
	panicHook  func(recovered any)
	watchdog   time.Duration
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		dispatcher: InlineDispatcher{},
		panicHook:  defaultPanicHook,
	}

	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// defaultPanicHook reports a panicking callback when no hook is configured.
// Callback panics are isolated at the dispatch boundary; this is the last
// resort so they are at least visible.
func defaultPanicHook(recovered any) {
	fmt.Fprintf(os.Stderr, "futureme: callback panic: %v\n", recovered)
}

// WithDispatcher sets the dispatcher that marshals the future's callbacks
// onto the owning thread. If not specified, callbacks run inline on the
// worker goroutine.
func WithDispatcher(d Dispatcher) Option {
	return func(cfg *config) {
		if d != nil {
			cfg.dispatcher = d
		}
	}
}

// WithPanicHook sets the hook invoked when a registered callback panics
// during dispatch. The panic is swallowed after the hook runs so one bad
// callback cannot stall delivery to the others.
func WithPanicHook(hook func(recovered any)) Option {
	return func(cfg *config) {
		if hook != nil {
			cfg.panicHook = hook
		}
	}
}

// WithWatchdog bounds the task's running time. If the task is still running
// when d elapses, the forced-cancellation path fires: the future becomes
// Cancelled and failure callbacks receive an error wrapping ErrTimeout.
func WithWatchdog(d time.Duration) Option {
	return func(cfg *config) {
		if d > 0 {
			cfg.watchdog = d
		}
	}
}

// PoolOption configures a worker pool at construction time.
type PoolOption func(*poolConfig)

type poolConfig struct {
	namePrefix  string
	initializer func(workerID int) error
	dispatcher  Dispatcher
	panicHook   func(recovered any)
	rateLimiter *rate.Limiter
}

func newPoolConfig(opts ...PoolOption) *poolConfig {
	cfg := &poolConfig{
		namePrefix: "worker",
		dispatcher: InlineDispatcher{},
		panicHook:  defaultPanicHook,
	}

	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithNamePrefix sets the prefix used to name workers in diagnostics such
// as WorkerInitError. Defaults to "worker".
func WithNamePrefix(prefix string) PoolOption {
	return func(cfg *poolConfig) {
		if prefix != "" {
			cfg.namePrefix = prefix
		}
	}
}

// WithInitializer runs fn once on each worker before it consumes any task.
// A failing initializer is fatal to that worker only: the pool keeps
// running at reduced capacity and reports a WorkerInitError through the
// pool's failure callbacks.
func WithInitializer(fn func(workerID int) error) PoolOption {
	return func(cfg *poolConfig) {
		cfg.initializer = fn
	}
}

// WithPoolDispatcher sets the dispatcher inherited by every future the pool
// creates, and used for the pool's own aggregate callbacks.
func WithPoolDispatcher(d Dispatcher) PoolOption {
	return func(cfg *poolConfig) {
		if d != nil {
			cfg.dispatcher = d
		}
	}
}

// WithPoolPanicHook sets the callback panic hook inherited by every future
// the pool creates.
func WithPoolPanicHook(hook func(recovered any)) PoolOption {
	return func(cfg *poolConfig) {
		if hook != nil {
			cfg.panicHook = hook
		}
	}
}

// WithRateLimit sets a rate limiter for controlling task throughput.
// tasksPerSecond specifies the maximum number of tasks to start per second.
// burst specifies the maximum number of tasks that can start in a burst.
// This is useful for preventing overwhelming external services or APIs.
// If not specified, no rate limiting is applied.
//
// Example:
//
//	WithRateLimit(10, 5) // Allow 10 tasks/sec with burst of 5
func WithRateLimit(tasksPerSecond float64, burst int) PoolOption {
	return func(cfg *poolConfig) {
		if tasksPerSecond > 0 && burst > 0 {
			cfg.rateLimiter = rate.NewLimiter(rate.Limit(tasksPerSecond), burst)
		}
	}
}

// ShutdownOption adjusts how Shutdown behaves.
type ShutdownOption func(*shutdownConfig)

type shutdownConfig struct {
	wait          bool
	cancelPending bool
	timeout       time.Duration
}

// NoWait makes Shutdown return immediately after sealing the queue instead
// of waiting for workers to drain.
func NoWait() ShutdownOption {
	return func(cfg *shutdownConfig) {
		cfg.wait = false
	}
}

// CancelPending requests graceful cancellation of every future that is not
// yet terminal before the queue is sealed. Tasks that never check their
// context still run to completion; queued tasks whose cancellation is seen
// before they start are skipped.
func CancelPending() ShutdownOption {
	return func(cfg *shutdownConfig) {
		cfg.cancelPending = true
	}
}

// WithShutdownTimeout bounds the drain wait; ErrShutdownTimeout is returned
// if workers are still busy when d elapses. Zero waits forever.
func WithShutdownTimeout(d time.Duration) ShutdownOption {
	return func(cfg *shutdownConfig) {
		if d > 0 {
			cfg.timeout = d
		}
	}
}
