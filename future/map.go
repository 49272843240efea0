package future

import (
	"context"
	"sync"
	"time"
)

// Map submits one task per input, blocks until all of them are terminal,
// and returns the results in input order regardless of completion order.
// The first error, scanned in input order, is returned alongside the
// partial results. While blocked it pumps the pool's dispatcher, like Get.
func Map[T, R any](ctx context.Context, p *Pool, fn func(ctx context.Context, in T) (R, error), inputs []T) ([]R, error) {
	results := make([]R, len(inputs))
	if len(inputs) == 0 {
		return results, nil
	}

	futures := make([]*Future[R], len(inputs))
	for i, in := range inputs {
		f, err := Submit(p, func(ctx context.Context) (R, error) {
			return fn(ctx, in)
		})
		if err != nil {
			return results, err
		}
		futures[i] = f
	}

	tick := time.NewTicker(pumpInterval)
	defer tick.Stop()

	var firstErr error
	for i, f := range futures {
	wait:
		for {
			select {
			case <-f.Done():
				break wait
			case <-ctx.Done():
				return results, ctx.Err()
			case <-tick.C:
				p.disp.Pump()
			}
		}

		r, err := f.Get() // non-blocking: the future is terminal
		if err != nil && firstErr == nil {
			firstErr = err
		}
		results[i] = r
	}
	return results, firstErr
}

// AsCompleted yields each future exactly once, as soon as it is terminal,
// in completion order rather than submission order. Futures that were
// already terminal before the call are still yielded. The channel is closed
// once every future has been yielded or ctx is cancelled.
//
// Each future is watched on its done channel, so a completion can never be
// missed between a check and a wait.
func AsCompleted[R any](ctx context.Context, futures []*Future[R]) <-chan *Future[R] {
	out := make(chan *Future[R], len(futures))

	var wg sync.WaitGroup
	for _, f := range futures {
		wg.Add(1)
		go func(f *Future[R]) {
			defer wg.Done()
			select {
			case <-f.Done():
				out <- f
			case <-ctx.Done():
			}
		}(f)
	}

	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}
