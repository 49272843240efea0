// Package future lets a single-threaded event-loop owner (a UI thread, a
// game loop) launch blocking or CPU-bound work on background goroutines
// without ever blocking itself, while guaranteeing that completion and
// failure notifications run back on the owning thread.
//
// The primary types are Future[R], the handle to one deferred task, and
// Pool, a fixed set of persistent workers consuming a shared FIFO queue.
// Thread affinity for callbacks comes from the Dispatcher interface: the
// caller supplies Post (schedule a function on the owning thread) and Pump
// (process outstanding posted work), and the package does the rest.
//
// # Standalone futures
//
//	f := future.New(func(ctx context.Context) (int, error) {
//	    return expensive(ctx, 10, 20)
//	}, future.WithDispatcher(loop))
//	f.OnDone(func(n int) { label.SetText(strconv.Itoa(n)) })
//	f.OnFailure(func(err error) { showError(err) })
//	_ = f.Start()
//
// Exactly one of the two callback sets fires, exactly once, in
// registration order, after the terminal state is committed. Callbacks
// registered after completion fire immediately with the stored outcome.
//
// # Pools
//
//	pool := future.NewPool(4, future.WithNamePrefix("render"))
//	defer pool.Close()
//
//	f, err := future.Submit(pool, loadThumbnail(path))
//	results, err := future.Map(ctx, pool, resize, images)
//	for f := range future.AsCompleted(ctx, futures) {
//	    // completion order, each future exactly once
//	}
//
// Submit and Map are package-level functions because Go methods cannot add
// type parameters; one pool can carry futures of different result types.
//
// # Cancellation
//
// Graceful cancellation (Cancel(false)) cancels the task's context and is
// purely advisory: a task that never checks its context runs to normal
// completion. Forced cancellation (Cancel(true), or the WithWatchdog
// expiry) commits Cancelled immediately and detaches the task; Go has no
// safe thread-kill primitive, so the detached task may keep running in the
// background with its outcome discarded. Cancelled futures report
// ErrCancelled through their failure callbacks.
//
// # Blocking waits
//
// Get, GetWithTimeout, Map and Shutdown pump the dispatcher while they
// block. Without that, a wait on the owning thread could never observe
// callbacks marshaled to that same thread.
//
// # Multi-value results
//
// A task returning several values uses []any as its result type and pairs
// it with a fixed-arity adapter chosen at registration time:
//
//	f := future.New(func(ctx context.Context) ([]any, error) {
//	    return []any{"ada", 36, "engineer"}, nil
//	})
//	f.OnDone(future.Unpack3(func(name string, age int, job string) {
//	    fmt.Println(name, age, job)
//	}))
//
// # Error handling
//
// A task's returned error or panic never escapes its worker: it is
// captured into the future and surfaced through Get or the failure
// callbacks, never both paths for the same future. A callback that panics
// during dispatch is isolated and reported through the panic hook, so it
// cannot stall delivery to later callbacks or other futures.
package future
