package venue

import "errors"

// Common venue errors
var (
	ErrNilOrder          = errors.New("order must not be nil")
	ErrNilTrader         = errors.New("order must reference a trader")
	ErrOrderNotNew       = errors.New("order is not in NEW status")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrInvalidPrice      = errors.New("price must be positive")
	ErrInvalidCapacity   = errors.New("capacity must be positive")
	ErrUnknownSymbol     = errors.New("unknown symbol")
	ErrSymbolMismatch    = errors.New("buy and sell orders must share a symbol")
	ErrSideMismatch      = errors.New("order side does not match execution leg")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrBufferClosed      = errors.New("order buffer is closed")
	ErrAlreadyStarted    = errors.New("venue already started")
	ErrNotRunning        = errors.New("venue is not running")
)
