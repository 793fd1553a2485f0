// Package config loads simulator configuration from the environment, with an
// optional .env file and numeric defaults for everything.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/luxfi/log"
)

// Config holds every tunable of the simulator.
type Config struct {
	NumTraders     int
	BufferCapacity int
	Partitions     int
	MinQuantity    int64
	MaxQuantity    int64
	RunDuration    time.Duration
	StatsInterval  time.Duration
	// OrderInterval paces each trader between submissions. Zero disables
	// pacing and leaves backpressure entirely to the order buffer.
	OrderInterval time.Duration
	// Seed for the market data and order generator random sources. Zero
	// means derive one from the wall clock.
	Seed        int64
	MetricsAddr string
	FeedAddr    string
}

// Default returns the stock configuration: 2 traders, 20s run, stats every
// 5s, order quantities in [10, 100].
func Default() Config {
	return Config{
		NumTraders:     2,
		BufferCapacity: 256,
		Partitions:     4,
		MinQuantity:    10,
		MaxQuantity:    100,
		RunDuration:    20 * time.Second,
		StatsInterval:  5 * time.Second,
		OrderInterval:  time.Millisecond,
		MetricsAddr:    ":9100",
		FeedAddr:       ":8600",
	}
}

// Load reads configuration from a .env file (if present) and environment
// variables, falling back to defaults for unset or invalid values.
// Priority: ENV > .env > defaults.
func Load(envPath string, logger log.Logger) Config {
	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	cfg := Default()
	cfg.NumTraders = intEnv("NUM_TRADERS", cfg.NumTraders, logger)
	cfg.BufferCapacity = intEnv("BUFFER_CAPACITY", cfg.BufferCapacity, logger)
	cfg.Partitions = intEnv("PARTITIONS", cfg.Partitions, logger)
	cfg.MinQuantity = int64Env("MIN_ORDER_QTY", cfg.MinQuantity, logger)
	cfg.MaxQuantity = int64Env("MAX_ORDER_QTY", cfg.MaxQuantity, logger)
	cfg.RunDuration = durationEnv("RUN_DURATION_MS", cfg.RunDuration, logger)
	cfg.StatsInterval = durationEnv("STATS_INTERVAL_MS", cfg.StatsInterval, logger)
	cfg.OrderInterval = durationEnv("ORDER_INTERVAL_MS", cfg.OrderInterval, logger)

	if seed := os.Getenv("RAND_SEED"); seed != "" {
		if v, err := strconv.ParseInt(seed, 10, 64); err == nil {
			cfg.Seed = v
		} else {
			logger.Warn("invalid RAND_SEED, deriving from clock", "value", seed)
		}
	}
	if addr := os.Getenv("METRICS_ADDR"); addr != "" {
		cfg.MetricsAddr = addr
	}
	if addr := os.Getenv("FEED_ADDR"); addr != "" {
		cfg.FeedAddr = addr
	}
	return cfg
}

// intEnv parses a positive integer from the environment, warning and keeping
// the default on bad input.
func intEnv(name string, def int, logger log.Logger) int {
	raw := os.Getenv(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		logger.Warn("invalid value, using default", "var", name, "value", raw, "default", def)
		return def
	}
	return v
}

func int64Env(name string, def int64, logger log.Logger) int64 {
	raw := os.Getenv(name)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		logger.Warn("invalid value, using default", "var", name, "value", raw, "default", def)
		return def
	}
	return v
}

func durationEnv(name string, def time.Duration, logger log.Logger) time.Duration {
	raw := os.Getenv(name)
	if raw == "" {
		return def
	}
	ms, err := strconv.Atoi(raw)
	if err != nil || ms < 0 {
		logger.Warn("invalid value, using default", "var", name, "value", raw, "default", def)
		return def
	}
	return time.Duration(ms) * time.Millisecond
}
