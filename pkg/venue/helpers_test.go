package venue

import (
	"testing"

	"github.com/luxfi/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func testLogger(t *testing.T) log.Logger {
	t.Helper()
	level, _ := log.ToLevel("debug")
	return log.NewTestLogger(level)
}

func mustOrder(t *testing.T, ids *IDGenerator, trader *Trader, symbol string, side Side, qty int64, price string) *Order {
	t.Helper()
	p, err := decimal.NewFromString(price)
	require.NoError(t, err)
	o, err := NewOrder(ids, symbol, side, qty, p, trader)
	require.NoError(t, err)
	return o
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}
