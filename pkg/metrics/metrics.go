// Package metrics exposes Prometheus metrics for the venue pipeline.
package metrics

import (
	"net/http"

	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// VenueMetrics registers and updates the simulator's Prometheus collectors.
type VenueMetrics struct {
	registry *prometheus.Registry
	logger   log.Logger

	ordersSubmitted prometheus.Counter
	ordersRejected  prometheus.Counter
	ordersCancelled prometheus.Counter
	executions      prometheus.Counter
	executedVolume  prometheus.Counter
	bufferDepth     prometheus.Gauge
	bookDepth       *prometheus.GaugeVec
}

// New creates a registry with the venue collectors registered.
func New(namespace string, logger log.Logger) *VenueMetrics {
	registry := prometheus.NewRegistry()

	m := &VenueMetrics{
		registry: registry,
		logger:   logger,

		ordersSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_submitted_total",
			Help:      "Total number of orders accepted by the order buffer",
		}),
		ordersRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_rejected_total",
			Help:      "Total number of orders rejected at submission",
		}),
		ordersCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_cancelled_total",
			Help:      "Total number of orders cancelled at shutdown",
		}),
		executions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "executions_total",
			Help:      "Total number of executions recorded",
		}),
		executedVolume: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "executed_volume_total",
			Help:      "Total executed quantity across all symbols",
		}),
		bufferDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "order_buffer_depth",
			Help:      "Orders currently waiting in the order buffer",
		}),
		bookDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "orderbook_depth",
			Help:      "Resting orders per symbol and side",
		}, []string{"symbol", "side"}),
	}

	registry.MustRegister(
		m.ordersSubmitted,
		m.ordersRejected,
		m.ordersCancelled,
		m.executions,
		m.executedVolume,
		m.bufferDepth,
		m.bookDepth,
	)
	return m
}

// OrderSubmitted counts one accepted order.
func (m *VenueMetrics) OrderSubmitted() { m.ordersSubmitted.Inc() }

// OrderRejected counts one rejected order.
func (m *VenueMetrics) OrderRejected() { m.ordersRejected.Inc() }

// OrdersCancelled counts orders cancelled during shutdown.
func (m *VenueMetrics) OrdersCancelled(n int) { m.ordersCancelled.Add(float64(n)) }

// ExecutionRecorded counts one execution and its volume.
func (m *VenueMetrics) ExecutionRecorded(quantity int64) {
	m.executions.Inc()
	m.executedVolume.Add(float64(quantity))
}

// SetBufferDepth updates the order buffer depth gauge.
func (m *VenueMetrics) SetBufferDepth(depth int) { m.bufferDepth.Set(float64(depth)) }

// SetBookDepth updates the resting-order gauge for one symbol side.
func (m *VenueMetrics) SetBookDepth(symbol, side string, depth int) {
	m.bookDepth.WithLabelValues(symbol, side).Set(float64(depth))
}

// Handler returns the scrape handler for the venue registry.
func (m *VenueMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve starts an HTTP server exposing /metrics on addr. The returned server
// can be shut down by the caller.
func (m *VenueMetrics) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		m.logger.Info("metrics server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			m.logger.Error("metrics server failed", "error", err)
		}
	}()
	return srv
}
