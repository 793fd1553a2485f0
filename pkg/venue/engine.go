package venue

import (
	"fmt"
	"sync"
	"time"

	"github.com/luxfi/log"
)

// ExecutionListener is invoked by the matching worker after an execution has
// been recorded and both trade views applied. Listeners run on the worker
// goroutine and must not block.
type ExecutionListener func(*Execution)

// MatchingEngine matches incoming orders against resting orders under
// price-time priority. Symbols are statically assigned to partitions; each
// partition is a single goroutine that exclusively owns the books of its
// symbols, so book access needs no locking. Per-symbol FIFO is preserved
// because the dispatcher feeds each partition in buffer order.
type MatchingEngine struct {
	ids        *IDGenerator
	ledger     *ExecutionLedger
	logger     log.Logger
	listeners  []ExecutionListener
	now        func() time.Time
	partitions []*partition
	assignment map[string]*partition
	wg         sync.WaitGroup
}

// partition owns a disjoint set of symbol books and consumes orders for them
// from its input channel.
type partition struct {
	id     int
	engine *MatchingEngine
	in     chan *Order
	books  map[string]*book
}

// NewMatchingEngine creates an engine with numPartitions matching workers.
// numPartitions is clamped to the number of symbols; symbols are assigned
// round-robin.
func NewMatchingEngine(ids *IDGenerator, ledger *ExecutionLedger, symbols []string, numPartitions int, logger log.Logger, listeners ...ExecutionListener) (*MatchingEngine, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("matching engine requires at least one symbol")
	}
	if numPartitions < 1 {
		return nil, fmt.Errorf("matching engine requires at least one partition")
	}
	if numPartitions > len(symbols) {
		numPartitions = len(symbols)
	}

	e := &MatchingEngine{
		ids:        ids,
		ledger:     ledger,
		logger:     logger,
		listeners:  listeners,
		now:        time.Now,
		assignment: make(map[string]*partition, len(symbols)),
	}
	for i := 0; i < numPartitions; i++ {
		e.partitions = append(e.partitions, &partition{
			id:     i,
			engine: e,
			in:     make(chan *Order),
			books:  make(map[string]*book),
		})
	}
	for i, symbol := range symbols {
		if _, dup := e.assignment[symbol]; dup {
			return nil, fmt.Errorf("duplicate symbol %q", symbol)
		}
		p := e.partitions[i%numPartitions]
		p.books[symbol] = newBook(symbol)
		e.assignment[symbol] = p
	}
	return e, nil
}

// Symbols returns the symbols this engine makes markets for.
func (e *MatchingEngine) Symbols() []string {
	out := make([]string, 0, len(e.assignment))
	for symbol := range e.assignment {
		out = append(out, symbol)
	}
	return out
}

// Owns reports whether the engine has a book for the symbol.
func (e *MatchingEngine) Owns(symbol string) bool {
	_, ok := e.assignment[symbol]
	return ok
}

// Start launches the partition workers.
func (e *MatchingEngine) Start() {
	for _, p := range e.partitions {
		e.wg.Add(1)
		go p.run()
	}
}

// Dispatch routes an order to the partition owning its symbol, blocking until
// the partition accepts it. The input channels are unbuffered, so everything
// queued stays in the order buffer where shutdown can drain it.
func (e *MatchingEngine) Dispatch(o *Order) error {
	p, ok := e.assignment[o.Symbol]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSymbol, o.Symbol)
	}
	p.in <- o
	return nil
}

// CloseInputs signals the partition workers that no further orders will
// arrive. Called exactly once, by the dispatcher, after the order buffer has
// closed.
func (e *MatchingEngine) CloseInputs() {
	for _, p := range e.partitions {
		close(p.in)
	}
}

// Join blocks until every partition worker has exited.
func (e *MatchingEngine) Join() {
	e.wg.Wait()
}

// CancelAllResting cancels and returns every order still resting in any book.
// Must only be called after Join: the books are owned by the workers while
// they run.
func (e *MatchingEngine) CancelAllResting() []*Order {
	var cancelled []*Order
	for _, p := range e.partitions {
		for _, b := range p.books {
			for _, o := range b.drain() {
				if err := o.Cancel(); err != nil {
					e.logger.Error("cancel resting order", "order", o.ID, "error", err)
					continue
				}
				cancelled = append(cancelled, o)
			}
		}
	}
	return cancelled
}

// Depth returns the resting bid and ask counts for a symbol. It is only
// accurate while the owning worker is idle; the periodic reporter tolerates
// the skew.
func (e *MatchingEngine) Depth(symbol string) (bids, asks int, err error) {
	p, ok := e.assignment[symbol]
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrUnknownSymbol, symbol)
	}
	b := p.books[symbol]
	return b.depth(Buy), b.depth(Sell), nil
}

func (p *partition) run() {
	defer p.engine.wg.Done()
	for o := range p.in {
		if err := p.process(o); err != nil {
			p.engine.logger.Error("order rejected by matcher",
				"partition", p.id, "order", o.ID, "error", err)
		}
	}
}

// process runs the crossing loop for one incoming order: while the opposite
// book's best order crosses, execute at the resting price, then rest any
// remainder. The caller owns the order from here until it reaches the book or
// a terminal status.
func (p *partition) process(o *Order) error {
	if o == nil {
		return ErrNilOrder
	}
	b, ok := p.books[o.Symbol]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSymbol, o.Symbol)
	}
	if o.Status != StatusNew {
		return ErrOrderNotNew
	}
	if o.Remaining <= 0 {
		return ErrInvalidQuantity
	}

	opposite := o.Side.Opposite()
	for o.Remaining > 0 {
		best := b.best(opposite)
		if best == nil || !crosses(o, best.order) {
			break
		}
		resting := best.order

		qty := o.Remaining
		if resting.Remaining < qty {
			qty = resting.Remaining
		}
		// The resting side sets the trade price.
		price := resting.Price

		buy, sell := o, resting
		if o.Side == Sell {
			buy, sell = resting, o
		}
		exec, err := NewExecution(p.engine.ids, buy, sell, qty, price, p.engine.now())
		if err != nil {
			return err
		}
		if _, err := o.Advance(qty); err != nil {
			return err
		}
		if _, err := resting.Advance(qty); err != nil {
			return err
		}
		if resting.Remaining == 0 {
			b.removeBest(opposite)
		}
		p.engine.publish(exec)
	}

	if o.Remaining > 0 {
		b.add(o)
	}
	return nil
}

// crosses reports whether the incoming order and the resting order can trade.
// Self-matching is permitted: ownership plays no part in the check.
func crosses(incoming, resting *Order) bool {
	if incoming.Side == Buy {
		return incoming.Price.GreaterThanOrEqual(resting.Price)
	}
	return resting.Price.GreaterThanOrEqual(incoming.Price)
}

// publish records the execution, fans out both trade views to the traders'
// statistics, and notifies listeners.
func (e *MatchingEngine) publish(exec *Execution) {
	if err := e.ledger.Record(exec); err != nil {
		e.logger.Error("record execution", "execution", exec.ID, "error", err)
		return
	}
	buyTrade := NewBuyTrade(e.ids, exec)
	exec.BuyOrder.Trader.Stats().ApplyTrade(buyTrade)
	sellTrade := NewSellTrade(e.ids, exec)
	exec.SellOrder.Trader.Stats().ApplyTrade(sellTrade)

	e.logger.Debug("execution",
		"id", exec.ID,
		"symbol", exec.Symbol,
		"qty", exec.Quantity,
		"price", exec.Price.String(),
		"buyer", exec.BuyOrder.Trader.ID(),
		"seller", exec.SellOrder.Trader.ID())

	for _, listener := range e.listeners {
		listener(exec)
	}
}
