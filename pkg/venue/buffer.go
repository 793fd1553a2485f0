package venue

import "sync"

// BufferStats is a consistent view of order buffer counters.
type BufferStats struct {
	Accepted uint64 // orders ever accepted by Submit
	Pending  int    // orders currently buffered
}

// OrderBuffer is a bounded, blocking, multi-producer/multi-consumer FIFO of
// NEW orders. Submit blocks while the buffer is full, Take blocks while it is
// empty, and DrainAndClose atomically stops intake and hands back whatever is
// still queued. Once closed, blocked and future callers get ErrBufferClosed
// instead of hanging.
type OrderBuffer struct {
	mu       sync.Mutex
	notFull  *sync.Cond
	notEmpty *sync.Cond
	queue    []*Order
	capacity int
	closed   bool
	accepted uint64
}

// NewOrderBuffer creates a buffer with the given capacity (>= 1).
func NewOrderBuffer(capacity int) (*OrderBuffer, error) {
	if capacity < 1 {
		return nil, ErrInvalidCapacity
	}
	b := &OrderBuffer{
		queue:    make([]*Order, 0, capacity),
		capacity: capacity,
	}
	b.notFull = sync.NewCond(&b.mu)
	b.notEmpty = sync.NewCond(&b.mu)
	return b, nil
}

// Capacity returns the fixed capacity of the buffer.
func (b *OrderBuffer) Capacity() int {
	return b.capacity
}

// Len returns the number of orders currently buffered.
func (b *OrderBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Submit enqueues a NEW order, blocking while the buffer is at capacity.
// It returns ErrBufferClosed once shutdown has begun, including for callers
// that were blocked waiting for space.
func (b *OrderBuffer) Submit(o *Order) error {
	if o == nil {
		return ErrNilOrder
	}
	if o.Status != StatusNew {
		return ErrOrderNotNew
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for len(b.queue) >= b.capacity && !b.closed {
		b.notFull.Wait()
	}
	if b.closed {
		return ErrBufferClosed
	}
	b.queue = append(b.queue, o)
	b.accepted++
	b.notEmpty.Signal()
	return nil
}

// Take removes and returns the oldest buffered order, blocking while the
// buffer is empty. After DrainAndClose it returns ErrBufferClosed.
func (b *OrderBuffer) Take() (*Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for len(b.queue) == 0 && !b.closed {
		b.notEmpty.Wait()
	}
	if len(b.queue) == 0 {
		// Closed and drained.
		return nil, ErrBufferClosed
	}
	o := b.queue[0]
	b.queue = b.queue[1:]
	b.notFull.Signal()
	return o, nil
}

// DrainAndClose stops intake, removes every buffered order and returns them.
// All goroutines blocked in Submit or Take are woken. Calling it again
// returns nil.
func (b *OrderBuffer) DrainAndClose() []*Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	drained := b.queue
	b.queue = nil
	b.notFull.Broadcast()
	b.notEmpty.Broadcast()
	return drained
}

// Closed reports whether shutdown has begun.
func (b *OrderBuffer) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Stats returns a consistent snapshot of the buffer counters.
func (b *OrderBuffer) Stats() BufferStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BufferStats{Accepted: b.accepted, Pending: len(b.queue)}
}
