// Package ordergen generates random orders for trader producer goroutines.
// It derives the simulated market price from the last recorded execution,
// falling back to the symbol's closing price before any trading has happened.
package ordergen

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/luxfi/venue/pkg/marketdata"
	"github.com/luxfi/venue/pkg/venue"
)

// LastPriceSource is the slice of the execution ledger the generator needs.
type LastPriceSource interface {
	LastExecution(symbol string) (*venue.Execution, bool)
}

// Generator implements venue.OrderSource with random symbols, sides,
// quantities and market-tracking prices. Each generator carries its own
// seeded random source.
type Generator struct {
	mu     sync.Mutex
	rng    *rand.Rand
	market *marketdata.MarketData
	ledger LastPriceSource
	ids    *venue.IDGenerator
	minQty int64
	maxQty int64
}

// New creates a generator producing quantities uniform in [minQty, maxQty].
func New(market *marketdata.MarketData, ledger LastPriceSource, ids *venue.IDGenerator, minQty, maxQty int64, seed int64) (*Generator, error) {
	if market == nil || ledger == nil || ids == nil {
		return nil, fmt.Errorf("ordergen requires market data, a ledger and an id generator")
	}
	if minQty < 1 || maxQty < minQty {
		return nil, fmt.Errorf("invalid quantity bounds [%d, %d]", minQty, maxQty)
	}
	return &Generator{
		rng:    rand.New(rand.NewSource(seed)),
		market: market,
		ledger: ledger,
		ids:    ids,
		minQty: minQty,
		maxQty: maxQty,
	}, nil
}

// NextOrder builds a NEW order for the trader.
func (g *Generator) NextOrder(trader *venue.Trader) (*venue.Order, error) {
	symbol := g.market.RandomSymbol()

	g.mu.Lock()
	qty := g.minQty + g.rng.Int63n(g.maxQty-g.minQty+1)
	side := venue.Buy
	if g.rng.Intn(2) == 1 {
		side = venue.Sell
	}
	g.mu.Unlock()

	current, err := g.currentMarketPrice(symbol)
	if err != nil {
		return nil, err
	}
	var price decimal.Decimal
	if side == venue.Buy {
		price, err = g.market.BuyPrice(symbol, current)
	} else {
		price, err = g.market.SellPrice(symbol, current)
	}
	if err != nil {
		return nil, err
	}

	return venue.NewOrder(g.ids, symbol, side, qty, price, trader)
}

// currentMarketPrice is the last execution price if one exists, otherwise the
// closing price.
func (g *Generator) currentMarketPrice(symbol string) (decimal.Decimal, error) {
	if last, ok := g.ledger.LastExecution(symbol); ok {
		return last.Price, nil
	}
	return g.market.ClosingPrice(symbol)
}
