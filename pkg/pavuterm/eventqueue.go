package pavuterm

import "sync"

// eventQueue is an unbounded FIFO of catalog events.
//
// The catalog delivers events on the connection's reader goroutine, which must never
// block, so enqueuing never waits. The dispatch loop waits on ready() and drains.
type eventQueue struct {
	mu     sync.Mutex
	events []CatalogEvent
	signal chan struct{} // buffered, size 1
}

func newEventQueue() *eventQueue {
	return &eventQueue{
		events: make([]CatalogEvent, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

func (q *eventQueue) enqueue(event CatalogEvent) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.events = append(q.events, event)

	// a buffer of 1 coalesces multiple signals
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// drain removes and returns everything queued so far, oldest first.
func (q *eventQueue) drain() []CatalogEvent {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return nil
	}

	events := q.events
	q.events = make([]CatalogEvent, 0, cap(events))

	return events
}

func (q *eventQueue) ready() <-chan struct{} {
	return q.signal
}

func (q *eventQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.events)
}
