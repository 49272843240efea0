package future

import "sync"

// poolTask is a unit queued for a pool worker: run executes the task on the
// dequeuing worker, abort fails the backing future when the pool can no
// longer run anything (every worker lost to initializer failure).
type poolTask struct {
	run   func()
	abort func(err error)
}

// taskQueue is the pool's work queue: unbounded FIFO, safe for multiple
// producers and multiple consumers, with a blocking dequeue that wakes on
// close. Items queued before Close remain poppable so workers drain the
// backlog before exiting.
type taskQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []*poolTask
	closed bool
}

func newTaskQueue() *taskQueue {
	q := &taskQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends an item and wakes one waiting consumer.
// Returns ErrQueueClosed after Close.
func (q *taskQueue) Push(t *poolTask) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	q.items = append(q.items, t)
	q.cond.Signal()
	return nil
}

// Pop blocks until an item is available or the queue is closed and empty.
// The second return is false only when the queue is drained and closed.
func (q *taskQueue) Pop() (*poolTask, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}

	if len(q.items) == 0 {
		return nil, false
	}
	t := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return t, true
}

// Close stops producers and wakes every blocked consumer. Broadcast (not
// Signal) so no consumer is left waiting with no producer to wake it.
func (q *taskQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.cond.Broadcast()
}

// Len reports the number of queued, not yet dequeued items.
func (q *taskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
