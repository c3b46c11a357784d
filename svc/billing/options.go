package billing

import (
	"log/slog"
	"time"

	"github.com/qalam-studio/qalam/svc/notify"
)

// DefaultGracePeriod is how long a past_due subscription keeps its plan.
const DefaultGracePeriod = 7 * 24 * time.Hour

// Provider events that lose a write race are re-applied this many times.
const (
	maxConflictRetries = 3
	conflictRetryDelay = 5 * time.Millisecond
)

// Option configures the Service.
type Option func(*Service)

// WithNotifier sets the dispatcher for lifecycle notifications. Wrap it in
// notify.NewDetached to keep delivery off the webhook path.
func WithNotifier(d notify.Dispatcher) Option {
	return func(s *Service) {
		if d != nil {
			s.notifier = d
		}
	}
}

// WithDeduper enables webhook event de-duplication.
func WithDeduper(d Deduper) Option {
	return func(s *Service) {
		s.deduper = d
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithGracePeriod overrides DefaultGracePeriod.
func WithGracePeriod(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.grace = d
		}
	}
}
