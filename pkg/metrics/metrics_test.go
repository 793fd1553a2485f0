package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger(t *testing.T) log.Logger {
	t.Helper()
	level, _ := log.ToLevel("debug")
	return log.NewTestLogger(level)
}

func TestCountersAndGauges(t *testing.T) {
	m := New("venue", testLogger(t))

	m.OrderSubmitted()
	m.OrderSubmitted()
	m.OrderRejected()
	m.OrdersCancelled(5)
	m.ExecutionRecorded(30)
	m.ExecutionRecorded(20)
	m.SetBufferDepth(7)
	m.SetBookDepth("AAPL", "bid", 3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ordersSubmitted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ordersRejected))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.ordersCancelled))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.executions))
	assert.Equal(t, 50.0, testutil.ToFloat64(m.executedVolume))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.bufferDepth))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.bookDepth.WithLabelValues("AAPL", "bid")))
}

func TestHandlerExposesVenueMetrics(t *testing.T) {
	m := New("venue", testLogger(t))
	m.ExecutionRecorded(10)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "venue_executions_total 1"), "scrape output missing counter:\n%s", body)
	assert.True(t, strings.Contains(body, "venue_executed_volume_total 10"), "scrape output missing volume:\n%s", body)
}
