package venue

import "sync"

// SymbolVolume holds per-symbol execution counters.
type SymbolVolume struct {
	Count  int64
	Volume int64
}

// LedgerStats is a consistent snapshot of the ledger counters: the totals
// always equal the sum of the per-symbol values.
type LedgerStats struct {
	TotalCount  int64
	TotalVolume int64
	PerSymbol   map[string]SymbolVolume
}

// ExecutionLedger is the thread-safe, append-only store of executions. It is
// written by matching workers and read concurrently by order generators (last
// price lookup) and reporters (statistics). A single lock covers the
// append and the counter updates, so readers can never observe counters that
// disagree with the recorded execution set.
type ExecutionLedger struct {
	mu          sync.RWMutex
	bySymbol    map[string][]*Execution
	last        map[string]*Execution
	perSymbol   map[string]SymbolVolume
	totalCount  int64
	totalVolume int64
}

// NewExecutionLedger creates an empty ledger.
func NewExecutionLedger() *ExecutionLedger {
	return &ExecutionLedger{
		bySymbol:  make(map[string][]*Execution),
		last:      make(map[string]*Execution),
		perSymbol: make(map[string]SymbolVolume),
	}
}

// Record appends an execution and updates the aggregate counters atomically
// with the append.
func (l *ExecutionLedger) Record(e *Execution) error {
	if e == nil {
		return ErrNilOrder
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.bySymbol[e.Symbol] = append(l.bySymbol[e.Symbol], e)
	l.last[e.Symbol] = e
	sv := l.perSymbol[e.Symbol]
	sv.Count++
	sv.Volume += e.Quantity
	l.perSymbol[e.Symbol] = sv
	l.totalCount++
	l.totalVolume += e.Quantity
	return nil
}

// LastExecution returns the most recently recorded execution for the symbol.
// The second return value is false if no execution exists yet.
func (l *ExecutionLedger) LastExecution(symbol string) (*Execution, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.last[symbol]
	return e, ok
}

// Executions returns a copy of the recorded executions for the symbol, in
// record order.
func (l *ExecutionLedger) Executions(symbol string) []*Execution {
	l.mu.RLock()
	defer l.mu.RUnlock()
	src := l.bySymbol[symbol]
	out := make([]*Execution, len(src))
	copy(out, src)
	return out
}

// SnapshotStatistics returns the counters as of a single instant.
func (l *ExecutionLedger) SnapshotStatistics() LedgerStats {
	l.mu.RLock()
	defer l.mu.RUnlock()
	per := make(map[string]SymbolVolume, len(l.perSymbol))
	for sym, sv := range l.perSymbol {
		per[sym] = sv
	}
	return LedgerStats{
		TotalCount:  l.totalCount,
		TotalVolume: l.totalVolume,
		PerSymbol:   per,
	}
}
