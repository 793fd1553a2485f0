package venue

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrderBufferRejectsBadCapacity(t *testing.T) {
	_, err := NewOrderBuffer(0)
	assert.ErrorIs(t, err, ErrInvalidCapacity)
	_, err = NewOrderBuffer(-1)
	assert.ErrorIs(t, err, ErrInvalidCapacity)

	b, err := NewOrderBuffer(8)
	require.NoError(t, err)
	assert.Equal(t, 8, b.Capacity())
	assert.Equal(t, 0, b.Len())
}

func TestBufferFIFO(t *testing.T) {
	ids := NewIDGenerator()
	trader := NewTrader("T1")
	b, err := NewOrderBuffer(4)
	require.NoError(t, err)

	var orders []*Order
	for i := 0; i < 4; i++ {
		o := mustOrder(t, ids, trader, "AAPL", Buy, 10, "50.00")
		require.NoError(t, b.Submit(o))
		orders = append(orders, o)
	}
	assert.Equal(t, 4, b.Len())

	for i := 0; i < 4; i++ {
		got, err := b.Take()
		require.NoError(t, err)
		assert.Equal(t, orders[i].ID, got.ID, "take %d out of order", i)
	}
	assert.Equal(t, 0, b.Len())
}

func TestBufferRejectsInvalidOrders(t *testing.T) {
	b, err := NewOrderBuffer(1)
	require.NoError(t, err)

	assert.ErrorIs(t, b.Submit(nil), ErrNilOrder)

	ids := NewIDGenerator()
	o := mustOrder(t, ids, NewTrader("T1"), "AAPL", Buy, 10, "50.00")
	require.NoError(t, o.Cancel())
	assert.ErrorIs(t, b.Submit(o), ErrOrderNotNew)
	assert.Equal(t, 0, b.Len())
}

func TestSubmitBlocksWhenFullAndTakeUnblocks(t *testing.T) {
	ids := NewIDGenerator()
	trader := NewTrader("T1")
	b, err := NewOrderBuffer(1)
	require.NoError(t, err)

	first := mustOrder(t, ids, trader, "AAPL", Buy, 10, "50.00")
	require.NoError(t, b.Submit(first))

	second := mustOrder(t, ids, trader, "AAPL", Sell, 10, "50.00")
	done := make(chan error, 1)
	go func() {
		done <- b.Submit(second)
	}()

	select {
	case <-done:
		t.Fatal("submit returned while buffer was full")
	case <-time.After(50 * time.Millisecond):
	}

	got, err := b.Take()
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("submit did not unblock after take")
	}

	got, err = b.Take()
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
}

func TestTakeBlocksWhenEmptyAndSubmitUnblocks(t *testing.T) {
	ids := NewIDGenerator()
	b, err := NewOrderBuffer(1)
	require.NoError(t, err)

	type result struct {
		o   *Order
		err error
	}
	done := make(chan result, 1)
	go func() {
		o, err := b.Take()
		done <- result{o, err}
	}()

	select {
	case <-done:
		t.Fatal("take returned while buffer was empty")
	case <-time.After(50 * time.Millisecond):
	}

	o := mustOrder(t, ids, NewTrader("T1"), "AAPL", Buy, 10, "50.00")
	require.NoError(t, b.Submit(o))

	select {
	case r := <-done:
		require.NoError(t, r.err)
		assert.Equal(t, o.ID, r.o.ID)
	case <-time.After(time.Second):
		t.Fatal("take did not unblock after submit")
	}
}

func TestDrainAndClose(t *testing.T) {
	ids := NewIDGenerator()
	trader := NewTrader("T1")
	b, err := NewOrderBuffer(8)
	require.NoError(t, err)

	var submitted []*Order
	for i := 0; i < 3; i++ {
		o := mustOrder(t, ids, trader, "AAPL", Buy, 10, "50.00")
		require.NoError(t, b.Submit(o))
		submitted = append(submitted, o)
	}

	drained := b.DrainAndClose()
	require.Len(t, drained, 3)
	for i, o := range drained {
		assert.Equal(t, submitted[i].ID, o.ID)
	}
	assert.True(t, b.Closed())
	assert.Equal(t, 0, b.Len())

	// Idempotent: second close drains nothing.
	assert.Nil(t, b.DrainAndClose())

	// Fail fast after close.
	o := mustOrder(t, ids, trader, "AAPL", Buy, 10, "50.00")
	assert.ErrorIs(t, b.Submit(o), ErrBufferClosed)
	_, err = b.Take()
	assert.ErrorIs(t, err, ErrBufferClosed)
}

func TestDrainAndCloseWakesBlockedCallers(t *testing.T) {
	ids := NewIDGenerator()
	trader := NewTrader("T1")
	b, err := NewOrderBuffer(1)
	require.NoError(t, err)
	require.NoError(t, b.Submit(mustOrder(t, ids, trader, "AAPL", Buy, 10, "50.00")))

	submitErr := make(chan error, 1)
	go func() {
		submitErr <- b.Submit(mustOrder(t, ids, trader, "AAPL", Sell, 10, "50.00"))
	}()
	takeErr := make(chan error, 1)
	go func() {
		// Second taker: the single buffered order can satisfy at most one.
		_, err1 := b.Take()
		_, err2 := b.Take()
		if err1 != nil {
			takeErr <- err1
			return
		}
		takeErr <- err2
	}()

	time.Sleep(50 * time.Millisecond)
	b.DrainAndClose()

	select {
	case err := <-submitErr:
		assert.ErrorIs(t, err, ErrBufferClosed)
	case <-time.After(time.Second):
		t.Fatal("blocked submit was not woken by close")
	}
	select {
	case err := <-takeErr:
		assert.ErrorIs(t, err, ErrBufferClosed)
	case <-time.After(time.Second):
		t.Fatal("blocked take was not woken by close")
	}
}

func TestBufferStats(t *testing.T) {
	ids := NewIDGenerator()
	trader := NewTrader("T1")
	b, err := NewOrderBuffer(4)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, b.Submit(mustOrder(t, ids, trader, "AAPL", Buy, 10, "50.00")))
	}
	_, err = b.Take()
	require.NoError(t, err)

	stats := b.Stats()
	assert.Equal(t, uint64(3), stats.Accepted)
	assert.Equal(t, 2, stats.Pending)
}

func TestBufferConcurrentProducersConsumers(t *testing.T) {
	const producers = 8
	const perProducer = 200

	ids := NewIDGenerator()
	trader := NewTrader("T1")
	b, err := NewOrderBuffer(16)
	require.NoError(t, err)

	price := mustDecimal(t, "50.00")
	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				o, err := NewOrder(ids, "AAPL", Buy, 10, price, trader)
				if err != nil {
					return
				}
				if err := b.Submit(o); err != nil {
					return
				}
			}
		}()
	}

	taken := make(chan uint64, producers*perProducer)
	var consumers sync.WaitGroup
	for i := 0; i < 4; i++ {
		consumers.Add(1)
		go func() {
			defer consumers.Done()
			for {
				o, err := b.Take()
				if err != nil {
					return
				}
				taken <- o.ID
			}
		}()
	}

	wg.Wait()
	// All producers done; drain whatever is left and release the consumers.
	remaining := b.DrainAndClose()
	consumers.Wait()
	close(taken)

	seen := make(map[uint64]bool)
	for id := range taken {
		require.False(t, seen[id], "order %d taken twice", id)
		seen[id] = true
	}
	for _, o := range remaining {
		require.False(t, seen[o.ID], "order %d both taken and drained", o.ID)
		seen[o.ID] = true
	}
	assert.Len(t, seen, producers*perProducer, "orders lost or duplicated")
}
