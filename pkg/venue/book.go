package venue

import "container/heap"

// bookEntry wraps a resting order with its arrival sequence for time priority.
type bookEntry struct {
	order   *Order
	arrival uint64
	index   int
}

// priceTimeQueue implements a price-time priority heap over one book side.
// Bids: highest price first. Asks: lowest price first. Ties go to the earlier
// arrival.
type priceTimeQueue struct {
	entries []*bookEntry
	isBids  bool
}

func (q *priceTimeQueue) Len() int { return len(q.entries) }

func (q *priceTimeQueue) Less(i, j int) bool {
	a, b := q.entries[i], q.entries[j]
	if c := a.order.Price.Cmp(b.order.Price); c != 0 {
		if q.isBids {
			return c > 0
		}
		return c < 0
	}
	return a.arrival < b.arrival
}

func (q *priceTimeQueue) Swap(i, j int) {
	q.entries[i], q.entries[j] = q.entries[j], q.entries[i]
	q.entries[i].index = i
	q.entries[j].index = j
}

func (q *priceTimeQueue) Push(x any) {
	entry := x.(*bookEntry)
	entry.index = len(q.entries)
	q.entries = append(q.entries, entry)
}

func (q *priceTimeQueue) Pop() any {
	old := q.entries
	n := len(old)
	entry := old[n-1]
	old[n-1] = nil
	entry.index = -1
	q.entries = old[:n-1]
	return entry
}

func (q *priceTimeQueue) peek() *bookEntry {
	if len(q.entries) == 0 {
		return nil
	}
	return q.entries[0]
}

// book holds the resting orders of a single symbol. It has no internal
// locking: exactly one matching worker owns a given book at any time.
type book struct {
	symbol   string
	bids     priceTimeQueue
	asks     priceTimeQueue
	arrivals uint64
}

func newBook(symbol string) *book {
	b := &book{symbol: symbol, bids: priceTimeQueue{isBids: true}}
	heap.Init(&b.bids)
	heap.Init(&b.asks)
	return b
}

// add rests an order on its own side of the book.
func (b *book) add(o *Order) {
	b.arrivals++
	entry := &bookEntry{order: o, arrival: b.arrivals}
	if o.Side == Buy {
		heap.Push(&b.bids, entry)
	} else {
		heap.Push(&b.asks, entry)
	}
}

func (b *book) side(s Side) *priceTimeQueue {
	if s == Buy {
		return &b.bids
	}
	return &b.asks
}

// best returns the top resting order on the given side, or nil.
func (b *book) best(s Side) *bookEntry {
	return b.side(s).peek()
}

// removeBest pops the top resting order on the given side.
func (b *book) removeBest(s Side) *bookEntry {
	q := b.side(s)
	if q.Len() == 0 {
		return nil
	}
	return heap.Pop(q).(*bookEntry)
}

// depth returns the number of resting orders on a side.
func (b *book) depth(s Side) int {
	return b.side(s).Len()
}

// drain removes every resting order from both sides and returns them. Used by
// the cancellation path during shutdown, after the owning worker has exited.
func (b *book) drain() []*Order {
	out := make([]*Order, 0, b.bids.Len()+b.asks.Len())
	for b.bids.Len() > 0 {
		out = append(out, heap.Pop(&b.bids).(*bookEntry).order)
	}
	for b.asks.Len() > 0 {
		out = append(out, heap.Pop(&b.asks).(*bookEntry).order)
	}
	return out
}
