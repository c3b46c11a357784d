package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// JobFunc is a unit of periodic work.
type JobFunc func(ctx context.Context) error

type job struct {
	name     string
	schedule Schedule
	fn       JobFunc
}

// Runner executes jobs on their schedules.
type Runner struct {
	mu       sync.Mutex
	jobs     []job
	names    map[string]struct{}
	logger   *slog.Logger
	location *time.Location
	timeout  time.Duration
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the runner logger.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithLocation sets the time zone used to evaluate schedules.
func WithLocation(loc *time.Location) RunnerOption {
	return func(r *Runner) {
		if loc != nil {
			r.location = loc
		}
	}
}

// WithJobTimeout bounds each job execution. Zero means no bound.
func WithJobTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.timeout = d
	}
}

// NewRunner creates an empty runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		names:    make(map[string]struct{}),
		logger:   slog.Default(),
		location: time.UTC,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add registers a job. Jobs whose schedule never fires are accepted and ignored.
func (r *Runner) Add(name string, s Schedule, fn JobFunc) error {
	if fn == nil {
		return ErrNilJob
	}
	if s == nil {
		return ErrInvalidSchedule
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.names[name]; exists {
		return fmt.Errorf("%w: %s", ErrJobAlreadyRegistered, name)
	}
	r.names[name] = struct{}{}
	r.jobs = append(r.jobs, job{name: name, schedule: s, fn: fn})

	r.logger.Info("registered periodic job",
		slog.String("job", name),
		slog.String("schedule", s.String()))
	return nil
}

// Start blocks running jobs until ctx is cancelled.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	jobs := append([]job(nil), r.jobs...)
	r.mu.Unlock()

	if len(jobs) == 0 {
		return ErrNoJobs
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, j := range jobs {
		g.Go(func() error {
			r.loop(gctx, j)
			return nil
		})
	}
	_ = g.Wait()

	// Loops also return when every schedule is off.
	<-ctx.Done()
	r.logger.Info("scheduler shutting down")
	return ctx.Err()
}

func (r *Runner) loop(ctx context.Context, j job) {
	for {
		now := time.Now().In(r.location)
		next := j.schedule.Next(now)
		if next.IsZero() {
			return
		}

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		r.run(ctx, j)
	}
}

func (r *Runner) run(ctx context.Context, j job) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.ErrorContext(ctx, "periodic job panicked",
				slog.String("job", j.name),
				slog.Any("panic", rec))
		}
	}()

	if err := j.fn(ctx); err != nil {
		r.logger.ErrorContext(ctx, "periodic job failed",
			slog.String("job", j.name),
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)))
		return
	}

	r.logger.DebugContext(ctx, "periodic job finished",
		slog.String("job", j.name),
		slog.Duration("duration", time.Since(start)))
}
