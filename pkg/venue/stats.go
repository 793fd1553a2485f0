package venue

import (
	"sync"

	"github.com/shopspring/decimal"
)

// SymbolStats holds a trader's per-symbol running totals. Position goes up on
// buys and down on sells; short positions are allowed.
type SymbolStats struct {
	Count    int64
	Cash     decimal.Decimal
	Position int64
}

// TraderSnapshot is a consistent view of a trader's statistics: TotalCount is
// always the sum of the per-symbol counts and TotalCash the sum of the
// per-symbol cash.
type TraderSnapshot struct {
	TotalCount int64
	TotalCash  decimal.Decimal
	PerSymbol  map[string]SymbolStats
}

// TraderStats accumulates a trader's trade statistics. Updates come from
// matching workers (one per trade view), reads from reporting goroutines at
// any time. One lock guards the whole aggregate so totals and per-symbol
// values always agree.
type TraderStats struct {
	mu         sync.Mutex
	totalCount int64
	totalCash  decimal.Decimal
	perSymbol  map[string]SymbolStats
}

func newTraderStats() *TraderStats {
	return &TraderStats{perSymbol: make(map[string]SymbolStats)}
}

// ApplyTrade folds one trade view into the totals as a single atomic step.
func (s *TraderStats) ApplyTrade(t *Trade) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalCount++
	s.totalCash = s.totalCash.Add(t.Cash)
	sym := s.perSymbol[t.Symbol]
	sym.Count++
	sym.Cash = sym.Cash.Add(t.Cash)
	if t.Direction == Buy {
		sym.Position += t.Quantity
	} else {
		sym.Position -= t.Quantity
	}
	s.perSymbol[t.Symbol] = sym
}

// Snapshot returns the statistics as of a single instant.
func (s *TraderStats) Snapshot() TraderSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	per := make(map[string]SymbolStats, len(s.perSymbol))
	for sym, st := range s.perSymbol {
		per[sym] = st
	}
	return TraderSnapshot{
		TotalCount: s.totalCount,
		TotalCash:  s.totalCash,
		PerSymbol:  per,
	}
}

// Trader identifies a market participant and carries its statistics
// accumulator.
type Trader struct {
	id    string
	stats *TraderStats
}

// NewTrader creates a trader with an empty statistics accumulator.
func NewTrader(id string) *Trader {
	return &Trader{id: id, stats: newTraderStats()}
}

// ID returns the trader's identifier.
func (t *Trader) ID() string { return t.id }

// Stats returns the trader's statistics accumulator.
func (t *Trader) Stats() *TraderStats { return t.stats }

func (t *Trader) String() string { return "Trader{" + t.id + "}" }
