package venue

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/luxfi/log"
)

// State is the venue lifecycle state.
type State int32

const (
	StateCreated State = iota
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "CREATED"
	case StateRunning:
		return "RUNNING"
	case StateStopping:
		return "STOPPING"
	case StateStopped:
		return "STOPPED"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// OrderSource produces new orders for a trader. Implementations are supplied
// by the caller (e.g. a random order generator); the venue only requires that
// returned orders are NEW.
type OrderSource interface {
	NextOrder(trader *Trader) (*Order, error)
}

// Config wires a venue together. Symbols, Traders and Source are required.
type Config struct {
	Symbols        []string
	Traders        []*Trader
	Source         OrderSource
	BufferCapacity int
	Partitions     int
	// OrderInterval throttles each producer between submissions. Zero means
	// producers run flat out and backpressure comes from the buffer alone.
	OrderInterval time.Duration
	IDs           *IDGenerator
	Ledger        *ExecutionLedger
	Logger        log.Logger
	Listeners     []ExecutionListener
}

// Venue is the lifecycle coordinator: it owns the order buffer, the matching
// engine and the trader producer goroutines, and runs the shutdown protocol
// that leaves every accepted order in a terminal state.
type Venue struct {
	cfg    Config
	state  atomic.Int32
	ids    *IDGenerator
	ledger *ExecutionLedger
	buffer *OrderBuffer
	engine *MatchingEngine
	logger log.Logger

	stopCh    chan struct{}
	producers sync.WaitGroup
	consumers sync.WaitGroup
}

// New validates the configuration and builds a venue in the CREATED state.
func New(cfg Config) (*Venue, error) {
	if len(cfg.Symbols) == 0 {
		return nil, fmt.Errorf("venue requires at least one symbol")
	}
	if len(cfg.Traders) == 0 {
		return nil, fmt.Errorf("venue requires at least one trader")
	}
	if cfg.Source == nil {
		return nil, fmt.Errorf("venue requires an order source")
	}
	if cfg.BufferCapacity < 1 {
		return nil, ErrInvalidCapacity
	}
	if cfg.Partitions < 1 {
		return nil, fmt.Errorf("venue requires at least one partition")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("venue requires a logger")
	}
	if cfg.IDs == nil {
		cfg.IDs = NewIDGenerator()
	}
	if cfg.Ledger == nil {
		cfg.Ledger = NewExecutionLedger()
	}

	buffer, err := NewOrderBuffer(cfg.BufferCapacity)
	if err != nil {
		return nil, err
	}
	engine, err := NewMatchingEngine(cfg.IDs, cfg.Ledger, cfg.Symbols, cfg.Partitions,
		cfg.Logger.New("module", "matching"), cfg.Listeners...)
	if err != nil {
		return nil, err
	}

	return &Venue{
		cfg:    cfg,
		ids:    cfg.IDs,
		ledger: cfg.Ledger,
		buffer: buffer,
		engine: engine,
		logger: cfg.Logger,
		stopCh: make(chan struct{}),
	}, nil
}

// Ledger returns the venue's execution ledger.
func (v *Venue) Ledger() *ExecutionLedger { return v.ledger }

// IDs returns the venue's id generator.
func (v *Venue) IDs() *IDGenerator { return v.ids }

// Traders returns the configured traders.
func (v *Venue) Traders() []*Trader { return v.cfg.Traders }

// BufferStats returns the order buffer counters.
func (v *Venue) BufferStats() BufferStats { return v.buffer.Stats() }

// State returns the current lifecycle state.
func (v *Venue) State() State { return State(v.state.Load()) }

// IsRunning reports whether the venue is in the RUNNING state.
func (v *Venue) IsRunning() bool { return v.State() == StateRunning }

// Submit validates an order and enqueues it, blocking while the buffer is
// full. Invalid orders are rejected here, synchronously, before they can
// reach a book.
func (v *Venue) Submit(o *Order) error {
	if o == nil {
		return ErrNilOrder
	}
	if o.Trader == nil {
		return ErrNilTrader
	}
	if o.Status != StatusNew {
		return ErrOrderNotNew
	}
	if o.Remaining <= 0 {
		return ErrInvalidQuantity
	}
	if !v.engine.Owns(o.Symbol) {
		return fmt.Errorf("%w: %q", ErrUnknownSymbol, o.Symbol)
	}
	return v.buffer.Submit(o)
}

// Start spawns the matching workers, the dispatcher and one producer per
// trader, and transitions CREATED -> RUNNING. Valid only from CREATED.
func (v *Venue) Start() error {
	if !v.state.CompareAndSwap(int32(StateCreated), int32(StateRunning)) {
		return fmt.Errorf("%w: state is %s", ErrAlreadyStarted, v.State())
	}

	v.engine.Start()

	v.consumers.Add(1)
	go v.runDispatcher()

	for _, trader := range v.cfg.Traders {
		v.producers.Add(1)
		go v.runProducer(trader)
	}

	v.logger.Info("venue started",
		"traders", len(v.cfg.Traders),
		"symbols", len(v.cfg.Symbols),
		"partitions", v.cfg.Partitions,
		"buffer_capacity", v.cfg.BufferCapacity)
	return nil
}

// Stop runs the shutdown protocol: close the buffer so blocked submitters
// fail fast, cancel everything drained from it, join every worker, cancel
// everything still resting in the books, and transition to STOPPED. It
// returns the full cancelled set. Valid only from RUNNING.
func (v *Venue) Stop() ([]*Order, error) {
	if !v.state.CompareAndSwap(int32(StateRunning), int32(StateStopping)) {
		return nil, fmt.Errorf("%w: state is %s", ErrNotRunning, v.State())
	}

	close(v.stopCh)

	cancelled := make([]*Order, 0)
	for _, o := range v.buffer.DrainAndClose() {
		if err := o.Cancel(); err != nil {
			v.logger.Error("cancel queued order", "order", o.ID, "error", err)
			continue
		}
		cancelled = append(cancelled, o)
	}

	// Producers exit on the closed buffer, the dispatcher follows, and the
	// partition workers drain their channels and return. Only then is it safe
	// to touch the books.
	v.producers.Wait()
	v.consumers.Wait()
	v.engine.Join()

	cancelled = append(cancelled, v.engine.CancelAllResting()...)

	v.state.Store(int32(StateStopped))
	v.logger.Info("venue stopped", "cancelled", len(cancelled))
	return cancelled, nil
}

// runDispatcher moves orders from the buffer to their owning partition. It
// exits once the buffer is closed and drained, then releases the partition
// workers.
func (v *Venue) runDispatcher() {
	defer v.consumers.Done()
	defer v.engine.CloseInputs()
	for {
		o, err := v.buffer.Take()
		if err != nil {
			return
		}
		if err := v.engine.Dispatch(o); err != nil {
			// Unknown symbols are rejected in Submit; this guards the book
			// against anything that slips through.
			v.logger.Error("dispatch failed", "order", o.ID, "error", err)
		}
	}
}

// runProducer generates and submits orders for one trader until shutdown.
func (v *Venue) runProducer(trader *Trader) {
	defer v.producers.Done()
	for {
		select {
		case <-v.stopCh:
			return
		default:
		}

		o, err := v.cfg.Source.NextOrder(trader)
		if err != nil {
			v.logger.Error("order generation failed", "trader", trader.ID(), "error", err)
			return
		}
		if err := v.Submit(o); err != nil {
			if errors.Is(err, ErrBufferClosed) {
				return
			}
			v.logger.Warn("order rejected", "trader", trader.ID(), "order", o.ID, "error", err)
			continue
		}

		if v.cfg.OrderInterval > 0 {
			select {
			case <-v.stopCh:
				return
			case <-time.After(v.cfg.OrderInterval):
			}
		}
	}
}
