// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Load layers defaults, an optional YAML file and PADEL_ env vars.
// - Validation failures wrap ErrInvalidConfig; provider failures wrap ErrLoadConfig.
package config

import (
	"runtime"
	"strings"
	"time"
)

// Storage drivers understood by the repository layer.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// MaxPageSize is the largest page the storage backend will serve per round-trip.
const MaxPageSize = 1000

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// RequestTimeoutMS bounds a whole request, storage fetch included.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// StorageDriver is "postgres" or "sqlite".
	StorageDriver string `koanf:"storage_driver"`

	// DatabaseURL is the Postgres connection string.
	DatabaseURL string `koanf:"database_url"`

	// SQLitePath is the SQLite file used when StorageDriver is sqlite.
	SQLitePath string `koanf:"sqlite_path"`

	// PageSize is the number of rows requested per storage round-trip.
	PageSize int `koanf:"page_size"`

	// ResolveBatchSize and ResolveConcurrency shape the identity lookup fan-out.
	ResolveBatchSize   int `koanf:"resolve_batch_size"`
	ResolveConcurrency int `koanf:"resolve_concurrency"`

	// DefaultMinMatches is the matches floor for graph and ranking listings.
	DefaultMinMatches int `koanf:"default_min_matches"`

	// DefaultMinWeight is the edge weight floor for the graph.
	DefaultMinWeight int `koanf:"default_min_weight"`

	// BroadScanThreshold switches edge loading to a single broad scan above this many players.
	BroadScanThreshold int `koanf:"broad_scan_threshold"`

	// H2HEdgeLimit caps the edges per side considered for mutual connections.
	H2HEdgeLimit int `koanf:"h2h_edge_limit"`

	// RateLimitRPS and RateLimitBurst configure the API token bucket; RPS <= 0 disables it.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`

	// MetricsNamespace and MetricsSubsystem prefix every metric name.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`

	// MetricsBucketsMS overrides the latency histogram buckets (file only).
	MetricsBucketsMS []float64 `koanf:"metrics_buckets_ms"`

	// MetricsLabels are constant labels attached to every metric (file only).
	MetricsLabels map[string]string `koanf:"metrics_labels"`

	// Environment, when set, is exported as the constant "env" metric label.
	Environment string `koanf:"environment"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		RequestTimeoutMS:   15_000,
		StorageDriver:      DriverSQLite,
		SQLitePath:         "padel.db",
		PageSize:           MaxPageSize,
		ResolveBatchSize:   200,
		ResolveConcurrency: runtime.NumCPU(),
		DefaultMinMatches:  5,
		DefaultMinWeight:   2,
		BroadScanThreshold: 3000,
		H2HEdgeLimit:       500,
		RateLimitRPS:       50,
		RateLimitBurst:     100,
		MetricsNamespace:   "padel",
		MetricsSubsystem:   "analytics",
	}
}

// ConstLabels merges MetricsLabels with the env label from Environment.
func (c *Config) ConstLabels() map[string]string {
	labels := make(map[string]string, len(c.MetricsLabels)+1)
	for k, v := range c.MetricsLabels {
		labels[k] = v
	}
	if env := strings.TrimSpace(c.Environment); env != "" {
		labels["env"] = env
	}
	return labels
}

// RequestTimeout returns RequestTimeoutMS as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}
