// Package marketdata provides the simulated market's reference prices and
// realistic bid/ask price generation.
package marketdata

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/shopspring/decimal"
)

// MarketData holds the closing prices for the simulated symbols and derives
// randomized buy/sell prices around a current market price. The random source
// is injected per instance, so simulations can be made deterministic.
type MarketData struct {
	mu      sync.Mutex
	rng     *rand.Rand
	closing map[string]decimal.Decimal
	symbols []string
}

// defaultClosingPrices mirrors a plausible big-tech close.
var defaultClosingPrices = map[string]decimal.Decimal{
	"META":  decimal.NewFromFloat(334.50),
	"AAPL":  decimal.NewFromFloat(189.25),
	"AMZN":  decimal.NewFromFloat(145.75),
	"NFLX":  decimal.NewFromFloat(485.30),
	"MSFT":  decimal.NewFromFloat(378.90),
	"GOOGL": decimal.NewFromFloat(2875.40),
}

// New creates market data for the default symbol set.
func New(seed int64) *MarketData {
	md, _ := NewWithPrices(defaultClosingPrices, seed)
	return md
}

// NewWithPrices creates market data for a caller-supplied closing price
// table.
func NewWithPrices(closing map[string]decimal.Decimal, seed int64) (*MarketData, error) {
	if len(closing) == 0 {
		return nil, fmt.Errorf("marketdata requires at least one symbol")
	}
	m := &MarketData{
		rng:     rand.New(rand.NewSource(seed)),
		closing: make(map[string]decimal.Decimal, len(closing)),
	}
	for symbol, price := range closing {
		if !price.IsPositive() {
			return nil, fmt.Errorf("closing price for %q must be positive", symbol)
		}
		m.closing[symbol] = price
		m.symbols = append(m.symbols, symbol)
	}
	return m, nil
}

// Symbols returns a copy of the available symbols.
func (m *MarketData) Symbols() []string {
	out := make([]string, len(m.symbols))
	copy(out, m.symbols)
	return out
}

// RandomSymbol returns a uniformly chosen symbol.
func (m *MarketData) RandomSymbol() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.symbols[m.rng.Intn(len(m.symbols))]
}

// ClosingPrice returns the reference price used before any execution exists
// for the symbol.
func (m *MarketData) ClosingPrice(symbol string) (decimal.Decimal, error) {
	price, ok := m.closing[symbol]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("unknown symbol %q", symbol)
	}
	return price, nil
}

// BuyPrice generates a bid at or slightly above the current market price
// (0-2% over), rounded to cents.
func (m *MarketData) BuyPrice(symbol string, current decimal.Decimal) (decimal.Decimal, error) {
	if _, ok := m.closing[symbol]; !ok {
		return decimal.Decimal{}, fmt.Errorf("unknown symbol %q", symbol)
	}
	m.mu.Lock()
	factor := 1.0 + m.rng.Float64()*0.02
	m.mu.Unlock()
	return current.Mul(decimal.NewFromFloat(factor)).Round(2), nil
}

// SellPrice generates an ask at or slightly below the current market price
// (0-2% under), rounded to cents.
func (m *MarketData) SellPrice(symbol string, current decimal.Decimal) (decimal.Decimal, error) {
	if _, ok := m.closing[symbol]; !ok {
		return decimal.Decimal{}, fmt.Errorf("unknown symbol %q", symbol)
	}
	m.mu.Lock()
	factor := 0.98 + m.rng.Float64()*0.02
	m.mu.Unlock()
	return current.Mul(decimal.NewFromFloat(factor)).Round(2), nil
}
