// venue-sim runs the trading venue simulation: N trader goroutines submit
// random orders through the bounded buffer, partitioned matching workers
// cross them, and statistics are reported periodically until the run
// duration elapses or the process is interrupted.
package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/luxfi/log"

	"github.com/luxfi/venue/pkg/config"
	"github.com/luxfi/venue/pkg/feed"
	"github.com/luxfi/venue/pkg/marketdata"
	"github.com/luxfi/venue/pkg/metrics"
	"github.com/luxfi/venue/pkg/ordergen"
	"github.com/luxfi/venue/pkg/venue"
)

func main() {
	logger := log.Root().New("module", "venue-sim")
	cfg := config.Load("", logger)

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	market := marketdata.New(seed)
	ids := venue.NewIDGenerator()
	ledger := venue.NewExecutionLedger()

	gen, err := ordergen.New(market, ledger, ids, cfg.MinQuantity, cfg.MaxQuantity, seed+1)
	if err != nil {
		logger.Error("order generator init failed", "error", err)
		os.Exit(1)
	}

	venueMetrics := metrics.New("venue", logger.New("module", "metrics"))
	feedServer := feed.NewServer(logger.New("module", "feed"))

	traders := make([]*venue.Trader, 0, cfg.NumTraders)
	for i := 1; i <= cfg.NumTraders; i++ {
		traders = append(traders, venue.NewTrader("Trader"+strconv.Itoa(i)))
	}

	v, err := venue.New(venue.Config{
		Symbols:        market.Symbols(),
		Traders:        traders,
		Source:         gen,
		BufferCapacity: cfg.BufferCapacity,
		Partitions:     cfg.Partitions,
		OrderInterval:  cfg.OrderInterval,
		IDs:            ids,
		Ledger:         ledger,
		Logger:         logger,
		Listeners: []venue.ExecutionListener{
			func(e *venue.Execution) { venueMetrics.ExecutionRecorded(e.Quantity) },
			feedServer.BroadcastExecution,
		},
	})
	if err != nil {
		logger.Error("venue init failed", "error", err)
		os.Exit(1)
	}

	metricsServer := venueMetrics.Serve(cfg.MetricsAddr)
	go func() {
		if err := feedServer.Start(cfg.FeedAddr); err != nil {
			logger.Error("feed server failed", "error", err)
		}
	}()

	started := time.Now()
	if err := v.Start(); err != nil {
		logger.Error("venue start failed", "error", err)
		os.Exit(1)
	}
	logger.Info("trading started", "startup", time.Since(started).String(), "seed", seed)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	deadline := time.After(cfg.RunDuration)
	ticker := time.NewTicker(cfg.StatsInterval)
	defer ticker.Stop()

run:
	for {
		select {
		case <-deadline:
			logger.Info("run duration elapsed", "duration", cfg.RunDuration.String())
			break run
		case sig := <-sigCh:
			logger.Info("signal received, stopping", "signal", sig.String())
			break run
		case <-ticker.C:
			report(logger, v, traders)
			venueMetrics.SetBufferDepth(v.BufferStats().Pending)
		}
	}

	stopStart := time.Now()
	cancelled, err := v.Stop()
	if err != nil {
		logger.Error("venue stop failed", "error", err)
		os.Exit(1)
	}
	venueMetrics.OrdersCancelled(len(cancelled))
	logger.Info("trading stopped", "took", time.Since(stopStart).String(), "cancelled_orders", len(cancelled))

	report(logger, v, traders)

	feedServer.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	metricsServer.Shutdown(shutdownCtx)

	logger.Info("simulation complete")
}

// report logs queue, ledger and per-trader statistics.
func report(logger log.Logger, v *venue.Venue, traders []*venue.Trader) {
	queue := v.BufferStats()
	logger.Info("order queue", "accepted", queue.Accepted, "pending", queue.Pending)

	ledgerStats := v.Ledger().SnapshotStatistics()
	logger.Info("executions", "count", ledgerStats.TotalCount, "volume", ledgerStats.TotalVolume)
	for symbol, sv := range ledgerStats.PerSymbol {
		logger.Info("symbol executions", "symbol", symbol, "count", sv.Count, "volume", sv.Volume)
	}

	for _, trader := range traders {
		snap := trader.Stats().Snapshot()
		logger.Info("trader",
			"id", trader.ID(),
			"trades", snap.TotalCount,
			"cash", snap.TotalCash.StringFixed(2))
		for symbol, st := range snap.PerSymbol {
			logger.Info("trader symbol",
				"id", trader.ID(),
				"symbol", symbol,
				"trades", st.Count,
				"cash", st.Cash.StringFixed(2),
				"position", st.Position)
		}
	}
}
