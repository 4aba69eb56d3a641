package repository

import (
	"time"

	"github.com/okian/xcroster/pkg/logger"
)

// Option applies a configuration option to the SQLStore.
type Option func(*SQLStore)

// WithMetricsUpdateInterval sets how often row counts are exported.
// Zero disables the background updater.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *SQLStore) {
		if interval >= 0 {
			s.metricsUpdateInterval = interval
		}
	}
}

// WithTopTimesLimit sets how many rows TopTimes returns.
func WithTopTimesLimit(n int) Option {
	return func(s *SQLStore) {
		if n > 0 {
			s.topTimesLimit = n
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *SQLStore) {
		if l != nil {
			s.logger = l
		}
	}
}
