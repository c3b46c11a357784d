package dunning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/qalam-studio/qalam/pkg/logger"
	"github.com/qalam-studio/qalam/pkg/schedule"
	"github.com/qalam-studio/qalam/svc/billing"
	"github.com/qalam-studio/qalam/svc/notify"
)

// Store lists and updates subscriptions.
type Store interface {
	ListPastDue(ctx context.Context) ([]billing.Subscription, error)
	Update(ctx context.Context, sub billing.Subscription) error
}

// Lifecycle applies state transitions. *billing.Service implements it.
type Lifecycle interface {
	EnsureGracePeriod(ctx context.Context, sub billing.Subscription) (billing.Subscription, error)
	SuspendExpired(ctx context.Context, sub billing.Subscription) (billing.Subscription, error)
}

// Failure describes one subscription the pass could not fully handle.
type Failure struct {
	SubscriptionID uuid.UUID `json:"subscription_id"`
	UserID         uuid.UUID `json:"user_id"`
	Error          string    `json:"error"`
}

// Summary reports one pass.
type Summary struct {
	Checked       int       `json:"checked"`
	GraceStarted  int       `json:"grace_started"`
	RemindersSent int       `json:"reminders_sent"`
	Suspended     int       `json:"suspended"`
	Skipped       int       `json:"skipped"`
	Failed        int       `json:"failed"`
	Failures      []Failure `json:"failures,omitempty"`
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeGraceStarted
	outcomeReminded
	outcomeSuspended
)

// Scheduler runs dunning passes.
type Scheduler struct {
	store     Store
	lifecycle Lifecycle
	notifier  notify.Dispatcher
	cfg       Config
	log       *slog.Logger
	now       func() time.Time
}

type Option func(*Scheduler)

func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

func WithConfig(cfg Config) Option {
	return func(s *Scheduler) {
		if cfg.SecondReminderAfter > 0 {
			s.cfg.SecondReminderAfter = cfg.SecondReminderAfter
		}
		if cfg.FinalReminderWindow > 0 {
			s.cfg.FinalReminderWindow = cfg.FinalReminderWindow
		}
		if cfg.Schedule != "" {
			s.cfg.Schedule = cfg.Schedule
		}
	}
}

// New creates a Scheduler. notifier is called synchronously so the pass
// knows whether a reminder was delivered.
func New(store Store, lifecycle Lifecycle, notifier notify.Dispatcher, opts ...Option) *Scheduler {
	if notifier == nil {
		notifier = notify.Nop
	}
	s := &Scheduler{
		store:     store,
		lifecycle: lifecycle,
		notifier:  notifier,
		cfg:       DefaultConfig(),
		log:       logger.Discard(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunOnce performs a single pass. Only a failure to list subscriptions is
// returned; everything else is reported in the Summary.
func (s *Scheduler) RunOnce(ctx context.Context) (Summary, error) {
	subs, err := s.store.ListPastDue(ctx)
	if err != nil {
		return Summary{}, errors.Join(ErrFailedToListSubscriptions, err)
	}

	var sum Summary
	for _, sub := range subs {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		sum.Checked++

		out, err := s.process(ctx, sub)
		if errors.Is(err, billing.ErrConcurrentUpdate) {
			// A webhook moved the subscription mid-pass and its write wins.
			// A reminder already delivered still counts as sent.
			s.log.LogAttrs(ctx, slog.LevelInfo, "subscription changed during dunning",
				logger.SubscriptionID(sub.ID),
				logger.UserID(sub.UserID),
				slog.Bool("reminder_sent", out == outcomeReminded),
			)
			err = nil
		}
		switch out {
		case outcomeGraceStarted:
			sum.GraceStarted++
		case outcomeReminded:
			sum.RemindersSent++
		case outcomeSuspended:
			sum.Suspended++
		case outcomeSkipped:
			if err == nil {
				sum.Skipped++
			}
		}
		if err != nil {
			sum.Failed++
			sum.Failures = append(sum.Failures, Failure{SubscriptionID: sub.ID, UserID: sub.UserID, Error: err.Error()})
			s.log.LogAttrs(ctx, slog.LevelError, "dunning failed for subscription",
				logger.SubscriptionID(sub.ID),
				logger.UserID(sub.UserID),
				slog.Int("dunning_count", sub.DunningCount),
				logger.Error(err),
			)
		}
	}

	s.log.LogAttrs(ctx, slog.LevelInfo, "dunning pass finished",
		slog.Int("checked", sum.Checked),
		slog.Int("grace_started", sum.GraceStarted),
		slog.Int("reminders_sent", sum.RemindersSent),
		slog.Int("suspended", sum.Suspended),
		slog.Int("failed", sum.Failed),
	)
	return sum, nil
}

func (s *Scheduler) process(ctx context.Context, sub billing.Subscription) (outcome, error) {
	now := s.now()

	if sub.GracePeriodEnd == nil {
		if _, err := s.lifecycle.EnsureGracePeriod(ctx, sub); err != nil {
			return outcomeSkipped, err
		}
		return outcomeGraceStarted, nil
	}

	if sub.GraceExpired(now) {
		suspended, err := s.lifecycle.SuspendExpired(ctx, sub)
		if err != nil {
			return outcomeSkipped, err
		}
		// The suspension stands even when the notice cannot be delivered.
		err = s.notifier.Dispatch(ctx, notify.Notification{
			UserID:    suspended.UserID,
			EventType: notify.EventSubscriptionSuspended,
			Data: map[string]any{
				"stage":            notify.StageFinal,
				"grace_period_end": sub.GracePeriodEnd.Format(time.DateOnly),
			},
		})
		if err != nil {
			return outcomeSuspended, errors.Join(ErrSuspensionNoticeFailed, err)
		}
		return outcomeSuspended, nil
	}

	stage, ok := s.reminderStage(sub, now)
	if !ok {
		return outcomeSkipped, nil
	}

	err := s.notifier.Dispatch(ctx, notify.Notification{
		UserID:    sub.UserID,
		EventType: notify.EventPaymentFailedReminder,
		Data: map[string]any{
			"stage":            stage,
			"grace_period_end": sub.GracePeriodEnd.Format(time.DateOnly),
			"days_remaining":   daysRemaining(*sub.GracePeriodEnd, now),
		},
	})
	if err != nil {
		return outcomeSkipped, errors.Join(ErrReminderFailed, fmt.Errorf("%s reminder: %w", stage, err))
	}

	sub.DunningCount++
	sentAt := now
	sub.LastDunningEmail = &sentAt
	sub.UpdatedAt = now
	if err := s.store.Update(ctx, sub); err != nil {
		return outcomeReminded, fmt.Errorf("record %s reminder: %w", stage, err)
	}
	return outcomeReminded, nil
}

func (s *Scheduler) reminderStage(sub billing.Subscription, now time.Time) (string, bool) {
	switch sub.DunningCount {
	case 0:
		return notify.StageFirst, true
	case 1:
		if sub.LastDunningEmail == nil || now.Sub(*sub.LastDunningEmail) >= s.cfg.SecondReminderAfter {
			return notify.StageSecond, true
		}
	case 2:
		if sub.GracePeriodEnd.Sub(now) <= s.cfg.FinalReminderWindow {
			return notify.StageFinal, true
		}
	}
	return "", false
}

func daysRemaining(end, now time.Time) int {
	return int(math.Ceil(end.Sub(now).Hours() / 24))
}

// Register adds the pass to a schedule runner. A Never schedule is
// accepted and registers nothing.
func (s *Scheduler) Register(r *schedule.Runner, sched schedule.Schedule) error {
	if sched == nil || sched.String() == schedule.Never().String() {
		s.log.Info("in-process dunning schedule disabled")
		return nil
	}
	return r.Add("dunning", sched, func(ctx context.Context) error {
		_, err := s.RunOnce(ctx)
		return err
	})
}

// Schedule parses the configured schedule expression.
func (s *Scheduler) Schedule() (schedule.Schedule, error) {
	return schedule.Parse(s.cfg.Schedule)
}
