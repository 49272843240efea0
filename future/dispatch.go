package future

import (
	"time"
)

// Dispatcher marshals completion callbacks onto the thread that owns the
// futures, typically a UI or event-loop thread. The package only consumes
// this interface; the event loop itself lives with the caller.
//
// Post schedules a zero-argument function for execution on the owning
// thread. Pump processes posted work that is still outstanding; blocking
// waits inside this package (Get, Map, Shutdown) call Pump so that work
// marshaled to the waiting thread is still delivered while it blocks.
type Dispatcher interface {
	Post(fn func())
	Pump()
}

// InlineDispatcher runs posted callbacks immediately on the posting
// goroutine. It is the default when no dispatcher is configured, and the
// dispatcher to use in tests that want synchronous delivery.
type InlineDispatcher struct{}

func (InlineDispatcher) Post(fn func()) { fn() }

func (InlineDispatcher) Pump() {}

// pumpInterval is how often a blocked wait gives the dispatcher a chance to
// process posted work.
const pumpInterval = time.Millisecond

// waitPumping blocks until done is closed or the timeout elapses, pumping
// the dispatcher in between so completions marshaled to the calling thread
// can be observed. A timeout of 0 waits forever.
func waitPumping(done <-chan struct{}, timeout time.Duration, d Dispatcher) error {
	select {
	case <-done:
		return nil
	default:
	}

	var deadline <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		deadline = t.C
	}

	tick := time.NewTicker(pumpInterval)
	defer tick.Stop()

	for {
		select {
		case <-done:
			return nil
		case <-deadline:
			return ErrTimeout
		case <-tick.C:
			d.Pump()
		}
	}
}
