package inventory

import (
	"log/slog"

	"github.com/vinv-group/vinv-go/internal/metrics"
)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger receiving diagnostics such as malformed input
// and failed whole-document rechecks.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithIDGenerator replaces the generator used when AddRecord receives no id.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithTransactionalAdd makes AddRecord recheck the whole document before
// notifying. A failed recheck rolls the insertion back and returns
// ErrInvalidDocument.
func WithTransactionalAdd() Option {
	return func(s *Store) {
		s.transactional = true
	}
}

// WithMetrics records operation outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}
