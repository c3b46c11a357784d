package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/qalam-studio/qalam/pkg/logger"
)

// Detached dispatches in the background. Dispatch always returns nil;
// delivery errors are logged.
type Detached struct {
	next    Dispatcher
	timeout time.Duration
	logger  *slog.Logger
	wg      sync.WaitGroup
}

// NewDetached wraps next. Each delivery is bounded by timeout.
func NewDetached(next Dispatcher, timeout time.Duration, log *slog.Logger) *Detached {
	if log == nil {
		log = logger.Discard()
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Detached{next: next, timeout: timeout, logger: log}
}

// Dispatch starts delivery and returns immediately. The caller's
// cancellation does not abort the delivery.
func (d *Detached) Dispatch(ctx context.Context, n Notification) error {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()

		defer func() {
			if rec := recover(); rec != nil {
				d.logger.ErrorContext(ctx, "notification dispatch panicked",
					logger.UserID(n.UserID), logger.EventType(n.EventType), slog.Any("panic", rec))
			}
		}()

		if err := d.next.Dispatch(ctx, n); err != nil {
			d.logger.WarnContext(ctx, "notification dispatch failed",
				logger.UserID(n.UserID), logger.EventType(n.EventType), logger.Error(err))
		}
	}()
	return nil
}

// Wait blocks until in-flight deliveries finish or ctx is done.
func (d *Detached) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
