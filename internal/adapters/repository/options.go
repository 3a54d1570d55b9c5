package repository

import "github.com/okian/padel/pkg/logger"

type settings struct {
	log      logger.Logger
	maxConns int32
}

func newSettings(opts []Option) settings {
	s := settings{log: logger.NewNop()}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Option applies a configuration option to a store.
type Option func(*settings)

// WithLogger sets the logger used for rejected rows and connection events.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.log = l.Named("repository")
		}
	}
}

// WithMaxConns caps the Postgres connection pool.
func WithMaxConns(n int32) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxConns = n
		}
	}
}
