package marketdata

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSymbolSet(t *testing.T) {
	m := New(1)
	symbols := m.Symbols()
	assert.ElementsMatch(t, []string{"META", "AAPL", "AMZN", "NFLX", "MSFT", "GOOGL"}, symbols)

	price, err := m.ClosingPrice("AAPL")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromFloat(189.25)), "got %s", price)

	_, err = m.ClosingPrice("TSLA")
	assert.Error(t, err)
}

func TestNewWithPricesValidation(t *testing.T) {
	_, err := NewWithPrices(nil, 1)
	assert.Error(t, err)

	_, err = NewWithPrices(map[string]decimal.Decimal{"X": decimal.Zero}, 1)
	assert.Error(t, err)

	m, err := NewWithPrices(map[string]decimal.Decimal{"X": decimal.NewFromInt(10)}, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"X"}, m.Symbols())
}

func TestRandomSymbolIsDeterministicPerSeed(t *testing.T) {
	a := New(7)
	b := New(7)
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.RandomSymbol(), b.RandomSymbol(), "draw %d diverged", i)
	}
}

func TestBuyPriceBand(t *testing.T) {
	m := New(99)
	current := decimal.NewFromFloat(100.00)
	max := decimal.NewFromFloat(102.00)

	for i := 0; i < 200; i++ {
		price, err := m.BuyPrice("AAPL", current)
		require.NoError(t, err)
		// At or up to 2% above the current price.
		assert.True(t, price.GreaterThanOrEqual(current), "buy price %s below current", price)
		assert.True(t, price.LessThanOrEqual(max), "buy price %s above band", price)
		assert.True(t, price.Equal(price.Round(2)), "buy price %s not rounded to cents", price)
	}

	_, err := m.BuyPrice("TSLA", current)
	assert.Error(t, err)
}

func TestSellPriceBand(t *testing.T) {
	m := New(99)
	current := decimal.NewFromFloat(100.00)
	min := decimal.NewFromFloat(98.00)

	for i := 0; i < 200; i++ {
		price, err := m.SellPrice("AAPL", current)
		require.NoError(t, err)
		// Between 2% below and at the current price.
		assert.True(t, price.GreaterThanOrEqual(min), "sell price %s below band", price)
		assert.True(t, price.LessThanOrEqual(current), "sell price %s above current", price)
		assert.True(t, price.Equal(price.Round(2)), "sell price %s not rounded to cents", price)
	}

	_, err := m.SellPrice("TSLA", current)
	assert.Error(t, err)
}
