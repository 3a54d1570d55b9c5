package config

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment wiring.
const (
	envPrefix     = "PADEL_"
	envConfigFile = "PADEL_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if PADEL_CONFIG is set
//  3. env (prefix PADEL_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(envConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: file %s: %w", ErrLoadConfig, path, err)
		}
	}

	// PADEL_PAGE_SIZE -> page_size (flat keys, underscores preserved).
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, strings.ToLower(envPrefix))
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.PageSize < 1 || c.PageSize > MaxPageSize:
		return fmt.Errorf("%w: page_size must be within 1..%d, got %d", ErrInvalidConfig, MaxPageSize, c.PageSize)
	case c.ResolveBatchSize < 1:
		return fmt.Errorf("%w: resolve_batch_size must be positive", ErrInvalidConfig)
	case c.DefaultMinMatches < 0 || c.DefaultMinWeight < 0:
		return fmt.Errorf("%w: default floors must not be negative", ErrInvalidConfig)
	}

	if err := c.validateMetrics(); err != nil {
		return err
	}

	switch c.StorageDriver {
	case DriverPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("%w: database_url is required for the postgres driver", ErrInvalidConfig)
		}
	case DriverSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("%w: sqlite_path is required for the sqlite driver", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage_driver %q", ErrInvalidConfig, c.StorageDriver)
	}
	return nil
}

// metricName matches Prometheus metric name parts and label names.
var metricName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func (c *Config) validateMetrics() error {
	for _, part := range []string{c.MetricsNamespace, c.MetricsSubsystem} {
		if part != "" && !metricName.MatchString(part) {
			return fmt.Errorf("%w: invalid metrics name part %q", ErrInvalidConfig, part)
		}
	}
	for i, b := range c.MetricsBucketsMS {
		if b <= 0 || (i > 0 && b <= c.MetricsBucketsMS[i-1]) {
			return fmt.Errorf("%w: metrics_buckets_ms must be positive and strictly increasing", ErrInvalidConfig)
		}
	}
	for name := range c.ConstLabels() {
		if !metricName.MatchString(name) || strings.HasPrefix(name, "__") {
			return fmt.Errorf("%w: invalid metrics label %q", ErrInvalidConfig, name)
		}
	}
	return nil
}
