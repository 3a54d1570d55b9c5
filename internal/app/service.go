// Package service orchestrates storage reads and the analytics core, and
// implements the dependencies required by the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	repository "github.com/okian/padel/internal/adapters/repository"
	"github.com/okian/padel/internal/domain/scoring"
	"github.com/okian/padel/pkg/logger"
	"github.com/okian/padel/pkg/metrics"
)

// Service implements the API dependencies for the analytics system.
type Service struct {
	mu sync.RWMutex

	source repository.Source
	engine *scoring.Engine
	clock  func() time.Time

	// Configuration
	pageSize           int
	resolveBatchSize   int
	resolveConcurrency int
	defaultMinMatches  int
	defaultMinWeight   int
	broadScanThreshold int
	h2hEdgeLimit       int

	// State
	started   bool
	startedAt time.Time

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSource sets the storage backend.
func WithSource(src repository.Source) Option {
	return func(s *Service) {
		s.source = src
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock sets the time source for power scores and streaks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.clock = now
		}
	}
}

// WithPageSize sets the storage page size.
func WithPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 && n <= repository.MaxPageSize {
			s.pageSize = n
		}
	}
}

// WithResolveBatchSize sets how many ids go into one identity or edge lookup.
func WithResolveBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.resolveBatchSize = n
		}
	}
}

// WithResolveConcurrency bounds the concurrent batched lookups.
func WithResolveConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.resolveConcurrency = n
		}
	}
}

// WithDefaultMinMatches sets the matches floor used when a query leaves it unset.
func WithDefaultMinMatches(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.defaultMinMatches = n
		}
	}
}

// WithDefaultMinWeight sets the edge weight threshold used when a query leaves it unset.
func WithDefaultMinWeight(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.defaultMinWeight = n
		}
	}
}

// WithBroadScanThreshold sets the player count above which edges are read in
// one broad scan instead of per-id batches.
func WithBroadScanThreshold(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.broadScanThreshold = n
		}
	}
}

// WithH2HEdgeLimit sets how many of each player's heaviest edges feed a comparison.
func WithH2HEdgeLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.h2hEdgeLimit = n
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		clock:              time.Now,
		pageSize:           repository.MaxPageSize,
		resolveBatchSize:   200,
		resolveConcurrency: runtime.NumCPU(),
		defaultMinMatches:  5,
		defaultMinWeight:   2,
		broadScanThreshold: 3000,
		h2hEdgeLimit:       500,
	}

	for _, opt := range opts {
		opt(s)
	}
	s.engine = scoring.NewEngine(scoring.WithClock(s.clock))

	return s
}

// Start checks the configuration and marks the service ready.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.source == nil {
		return ErrNoSource
	}

	s.started = true
	s.startedAt = s.clock()
	s.logger.Info(ctx, "analytics service started",
		logger.Int("pageSize", s.pageSize),
		logger.Int("resolveBatchSize", s.resolveBatchSize),
		logger.Int("resolveConcurrency", s.resolveConcurrency),
		logger.Int("broadScanThreshold", s.broadScanThreshold),
	)
	return nil
}

// Stop closes the storage source.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if err := s.source.Close(); err != nil {
		s.logger.Warn(context.Background(), "closing storage source", logger.Error(err))
	}
	s.started = false
	s.logger.Info(context.Background(), "analytics service stopped")
}

// ready returns the source when the service is running.
func (s *Service) ready() (repository.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.source, nil
}

// notFound maps a storage miss to ErrPlayerNotFound.
func notFound(id string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s: %w", id, ErrPlayerNotFound)
	}
	return err
}

// timed records the duration of an analytics step.
func timed(op string, start time.Time) {
	metrics.RecordAnalyticsDuration(op, float64(time.Since(start).Microseconds())/1000)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	goroutines := runtime.NumGoroutine()
	metrics.UpdateSystemMemoryUsage(mem.Alloc)
	metrics.UpdateSystemGoroutineCount(goroutines)

	stats := map[string]interface{}{
		"started":            s.started,
		"pageSize":           s.pageSize,
		"resolveBatchSize":   s.resolveBatchSize,
		"resolveConcurrency": s.resolveConcurrency,
		"defaultMinMatches":  s.defaultMinMatches,
		"defaultMinWeight":   s.defaultMinWeight,
		"broadScanThreshold": s.broadScanThreshold,
		"h2hEdgeLimit":       s.h2hEdgeLimit,
		"goroutines":         goroutines,
		"memoryBytes":        mem.Alloc,
	}
	if s.started {
		stats["uptimeSeconds"] = s.clock().Sub(s.startedAt).Seconds()
	}
	return stats
}
