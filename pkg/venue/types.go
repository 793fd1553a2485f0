// Package venue implements a concurrent continuous double-auction trading
// venue: a bounded order buffer feeding partitioned matching workers, an
// append-only execution ledger, and per-trader statistics.
package venue

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Side represents order side
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

// Opposite returns the other side of the market.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// OrderStatus represents order status
type OrderStatus int

const (
	StatusNew OrderStatus = iota
	StatusPartial
	StatusFilled
	StatusCancelled
)

func (s OrderStatus) String() string {
	switch s {
	case StatusNew:
		return "NEW"
	case StatusPartial:
		return "PARTIAL"
	case StatusFilled:
		return "FILLED"
	case StatusCancelled:
		return "CANCELLED"
	default:
		return fmt.Sprintf("OrderStatus(%d)", int(s))
	}
}

// Terminal reports whether the status is final. A terminal order is immutable.
func (s OrderStatus) Terminal() bool {
	return s == StatusFilled || s == StatusCancelled
}

// validTransitions is the single source of truth for the order state machine.
// Both the matching path and the cancellation path go through it.
var validTransitions = map[OrderStatus]map[OrderStatus]bool{
	StatusNew:     {StatusPartial: true, StatusFilled: true, StatusCancelled: true},
	StatusPartial: {StatusPartial: true, StatusFilled: true, StatusCancelled: true},
}

// Order describes a request to trade a symbol. ID, Symbol, Side, Quantity,
// Price and Trader are immutable after construction. Remaining and Status are
// mutated only by the matching worker that owns the order's symbol, or by the
// cancellation path during shutdown.
type Order struct {
	ID        uint64
	Symbol    string
	Side      Side
	Quantity  int64 // original quantity
	Remaining int64
	Price     decimal.Decimal
	Trader    *Trader
	Status    OrderStatus
}

// NewOrder creates a NEW order with an id from the generator.
func NewOrder(ids *IDGenerator, symbol string, side Side, quantity int64, price decimal.Decimal, trader *Trader) (*Order, error) {
	if trader == nil {
		return nil, ErrNilTrader
	}
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if !price.IsPositive() {
		return nil, ErrInvalidPrice
	}
	return &Order{
		ID:        ids.NextOrderID(),
		Symbol:    symbol,
		Side:      side,
		Quantity:  quantity,
		Remaining: quantity,
		Price:     price,
		Trader:    trader,
		Status:    StatusNew,
	}, nil
}

func (o *Order) transition(next OrderStatus) error {
	if o.Status == next {
		if next == StatusPartial {
			return nil
		}
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, next)
	}
	if !validTransitions[o.Status][next] {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, next)
	}
	o.Status = next
	return nil
}

// Advance applies a fill of qty to the order, decrementing the remaining
// quantity and moving the status to PARTIAL or FILLED. It returns the new
// status. Terminal orders and over-fills are rejected.
func (o *Order) Advance(qty int64) (OrderStatus, error) {
	if qty <= 0 {
		return o.Status, ErrInvalidQuantity
	}
	if qty > o.Remaining {
		return o.Status, fmt.Errorf("fill %d exceeds remaining %d on order %d", qty, o.Remaining, o.ID)
	}
	next := StatusPartial
	if qty == o.Remaining {
		next = StatusFilled
	}
	if err := o.transition(next); err != nil {
		return o.Status, err
	}
	o.Remaining -= qty
	return o.Status, nil
}

// Cancel moves the order to CANCELLED. Remaining quantity is left as-is so
// the unfilled amount stays visible in the cancelled set.
func (o *Order) Cancel() error {
	return o.transition(StatusCancelled)
}

func (o *Order) String() string {
	return fmt.Sprintf("Order{id=%d, symbol=%s, side=%s, qty=%d, remaining=%d, price=%s, trader=%s, status=%s}",
		o.ID, o.Symbol, o.Side, o.Quantity, o.Remaining, o.Price, o.Trader.ID(), o.Status)
}

// Execution is an immutable record of a match between one buy and one sell
// order. It is created by the matching engine and owned by the ledger.
type Execution struct {
	ID        uint64
	BuyOrder  *Order
	SellOrder *Order
	Symbol    string
	Quantity  int64
	Price     decimal.Decimal
	Timestamp time.Time
}

// NewExecution validates the legs and creates an execution record.
func NewExecution(ids *IDGenerator, buy, sell *Order, quantity int64, price decimal.Decimal, at time.Time) (*Execution, error) {
	if buy == nil || sell == nil {
		return nil, ErrNilOrder
	}
	if buy.Symbol != sell.Symbol {
		return nil, ErrSymbolMismatch
	}
	if buy.Side != Buy || sell.Side != Sell {
		return nil, ErrSideMismatch
	}
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	return &Execution{
		ID:        ids.NextExecutionID(),
		BuyOrder:  buy,
		SellOrder: sell,
		Symbol:    buy.Symbol,
		Quantity:  quantity,
		Price:     price,
		Timestamp: at,
	}, nil
}

func (e *Execution) String() string {
	return fmt.Sprintf("Execution[id=%d, symbol=%s, qty=%d, price=%s, buyer=%s, seller=%s]",
		e.ID, e.Symbol, e.Quantity, e.Price,
		e.BuyOrder.Trader.ID(), e.SellOrder.Trader.ID())
}

// Trade is a directional per-trader view of an execution. Two trades are
// derived from every execution, one per leg. Cash is signed: negative for
// buys, positive for sells.
type Trade struct {
	ID           uint64
	Execution    *Execution
	Symbol       string
	Quantity     int64
	Price        decimal.Decimal
	Trader       *Trader
	Counterparty *Trader
	Direction    Side
	Cash         decimal.Decimal
	Timestamp    time.Time
}

// NewBuyTrade derives the buyer-side view of an execution.
func NewBuyTrade(ids *IDGenerator, e *Execution) *Trade {
	notional := e.Price.Mul(decimal.NewFromInt(e.Quantity))
	return &Trade{
		ID:           ids.NextTradeID(),
		Execution:    e,
		Symbol:       e.Symbol,
		Quantity:     e.Quantity,
		Price:        e.Price,
		Trader:       e.BuyOrder.Trader,
		Counterparty: e.SellOrder.Trader,
		Direction:    Buy,
		Cash:         notional.Neg(),
		Timestamp:    e.Timestamp,
	}
}

// NewSellTrade derives the seller-side view of an execution.
func NewSellTrade(ids *IDGenerator, e *Execution) *Trade {
	notional := e.Price.Mul(decimal.NewFromInt(e.Quantity))
	return &Trade{
		ID:           ids.NextTradeID(),
		Execution:    e,
		Symbol:       e.Symbol,
		Quantity:     e.Quantity,
		Price:        e.Price,
		Trader:       e.SellOrder.Trader,
		Counterparty: e.BuyOrder.Trader,
		Direction:    Sell,
		Cash:         notional,
		Timestamp:    e.Timestamp,
	}
}
