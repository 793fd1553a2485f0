package venue

import "sync/atomic"

// IDGenerator hands out unique, strictly increasing ids per kind. It is safe
// for unbounded concurrent callers: each kind is an independent atomic
// counter, so order, execution and trade id generation never contend with
// each other. Construct one per venue and inject it; there is no global
// instance.
type IDGenerator struct {
	orderID     atomic.Uint64
	executionID atomic.Uint64
	tradeID     atomic.Uint64
}

// NewIDGenerator creates a generator whose counters start at 1.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{}
}

// NextOrderID returns the next unissued order id.
func (g *IDGenerator) NextOrderID() uint64 {
	return g.orderID.Add(1)
}

// NextExecutionID returns the next unissued execution id.
func (g *IDGenerator) NextExecutionID() uint64 {
	return g.executionID.Add(1)
}

// NextTradeID returns the next unissued trade id.
func (g *IDGenerator) NextTradeID() uint64 {
	return g.tradeID.Add(1)
}
