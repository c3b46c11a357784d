package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/qalam-studio/qalam/pkg/logger"
	"github.com/qalam-studio/qalam/pkg/statemachine"
	"github.com/qalam-studio/qalam/svc/notify"
)

// Outcome tells how a single event was handled.
type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeIgnored   Outcome = "ignored"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeFailed    Outcome = "failed"
)

// EventError describes an event skipped because of an error.
type EventError struct {
	EventID string    `json:"event_id"`
	Type    EventType `json:"type"`
	Error   string    `json:"error"`
}

// Result summarizes a batch.
type Result struct {
	Processed  int          `json:"processed"`
	Ignored    int          `json:"ignored"`
	Duplicates int          `json:"duplicates"`
	Failed     int          `json:"failed"`
	Errors     []EventError `json:"errors,omitempty"`
}

// Service applies billing events to stored subscriptions.
type Service struct {
	store    Store
	profiles ProfileStore
	catalog  PlanCatalog
	machine  *statemachine.Machine[Status, trigger, *change]

	notifier notify.Dispatcher
	deduper  Deduper
	log      *slog.Logger
	now      func() time.Time
	grace    time.Duration
}

// NewService wires a Service. Notifications are discarded unless
// WithNotifier is given.
func NewService(store Store, profiles ProfileStore, catalog PlanCatalog, opts ...Option) *Service {
	s := &Service{
		store:    store,
		profiles: profiles,
		catalog:  catalog,
		machine:  newMachine(),
		notifier: notify.Nop,
		log:      logger.Discard(),
		now:      time.Now,
		grace:    DefaultGracePeriod,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GracePeriod returns the configured grace window.
func (s *Service) GracePeriod() time.Duration { return s.grace }

// GetSubscription returns the stored subscription of a user.
func (s *Service) GetSubscription(ctx context.Context, userID uuid.UUID) (Subscription, error) {
	if userID == uuid.Nil {
		return Subscription{}, ErrMissingUserID
	}
	return s.store.GetByUserID(ctx, userID)
}

// HandleEvents applies a batch. A failing event is logged and counted; it
// never stops the remaining events.
func (s *Service) HandleEvents(ctx context.Context, events []Event) Result {
	var res Result
	for _, e := range events {
		outcome, err := s.HandleEvent(ctx, e)
		switch outcome {
		case OutcomeProcessed:
			res.Processed++
		case OutcomeIgnored:
			res.Ignored++
		case OutcomeDuplicate:
			res.Duplicates++
		case OutcomeFailed:
			res.Failed++
			res.Errors = append(res.Errors, EventError{EventID: e.ID, Type: e.Type, Error: err.Error()})
		}
	}
	return res
}

// HandleEvent applies a single event. Unknown event types are ignored.
// A non-nil error always comes with OutcomeFailed.
func (s *Service) HandleEvent(ctx context.Context, e Event) (Outcome, error) {
	if e.DecodeErr != nil {
		s.log.LogAttrs(ctx, slog.LevelWarn, "undecodable billing event skipped",
			logger.Provider(e.Provider),
			logger.EventID(e.ID),
			slog.String("provider_event", e.ProviderEvent),
			logger.Error(e.DecodeErr),
		)
		return OutcomeFailed, e.DecodeErr
	}
	if !e.Type.Known() {
		s.log.InfoContext(ctx, "ignoring unhandled billing event",
			logger.Provider(e.Provider), logger.EventID(e.ID), slog.String("provider_event", e.ProviderEvent))
		return OutcomeIgnored, nil
	}

	key := e.Key()
	if s.deduper != nil && key != "" {
		claimed, err := s.deduper.Claim(ctx, key)
		switch {
		case err != nil:
			// Processing twice is recoverable, dropping a payment is not.
			s.log.WarnContext(ctx, "billing event de-duplication unavailable",
				logger.EventID(e.ID), logger.Error(err))
		case !claimed:
			s.log.InfoContext(ctx, "duplicate billing event",
				logger.Provider(e.Provider), logger.EventID(e.ID), logger.EventType(string(e.Type)))
			return OutcomeDuplicate, nil
		}
	}

	outcome, err := s.dispatch(ctx, e)
	if err != nil {
		s.log.LogAttrs(ctx, slog.LevelWarn, "billing event skipped",
			logger.Provider(e.Provider),
			logger.EventID(e.ID),
			logger.EventType(string(e.Type)),
			logger.SubscriptionID(e.SubscriptionID),
			logger.Error(err),
		)
		if s.deduper != nil && key != "" {
			if rerr := s.deduper.Release(ctx, key); rerr != nil {
				s.log.WarnContext(ctx, "failed to release billing event claim",
					logger.EventID(e.ID), logger.Error(rerr))
			}
		}
		return OutcomeFailed, err
	}
	return outcome, nil
}

func (s *Service) dispatch(ctx context.Context, e Event) (Outcome, error) {
	switch e.Type {
	case EventSubscriptionActivated:
		return OutcomeProcessed, s.activate(ctx, e)
	case EventSaleCompleted:
		return s.settle(ctx, e)
	case EventPaymentDenied, EventPaymentFailed:
		_, err := s.transition(ctx, e, triggerPaymentFailed)
		return OutcomeProcessed, err
	case EventSubscriptionCancelled:
		return OutcomeProcessed, s.end(ctx, e, triggerCancel)
	case EventSubscriptionSuspended:
		return OutcomeProcessed, s.end(ctx, e, triggerSuspend)
	case EventSubscriptionExpired:
		return OutcomeProcessed, s.end(ctx, e, triggerExpire)
	default:
		return OutcomeIgnored, fmt.Errorf("%w: %s", ErrUnknownEventType, e.Type)
	}
}

func (s *Service) activate(ctx context.Context, e Event) error {
	userID := e.UserID
	if userID == uuid.Nil && e.SubscriptionID != "" {
		if existing, err := s.store.GetByProviderID(ctx, e.SubscriptionID); err == nil {
			userID = existing.UserID
		}
	}
	if userID == uuid.Nil {
		return ErrMissingUserID
	}

	plan, period, err := s.catalog.ResolveProviderPlan(e.PlanID)
	if err != nil {
		return fmt.Errorf("activation for plan %q: %w", e.PlanID, err)
	}

	var stored Subscription
	err = s.retryConflicts(ctx, func(ctx context.Context) error {
		sub, err := s.store.GetByUserID(ctx, userID)
		switch {
		case errors.Is(err, ErrSubscriptionNotFound):
			sub = Subscription{UserID: userID}
		case err != nil:
			return err
		}

		c := &change{sub: &sub, event: e, now: s.now(), grace: s.grace, plan: plan, period: period}
		next, err := s.machine.Fire(ctx, sub.Status, triggerActivate, c)
		if err != nil {
			return errors.Join(ErrInvalidTransition, err)
		}
		sub.Status = next
		sub.UpdatedAt = c.now

		if stored, err = s.store.Upsert(ctx, sub); err != nil {
			return fmt.Errorf("upsert subscription: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.syncTier(ctx, stored)

	s.notify(ctx, stored.UserID, notify.EventSubscriptionActivated, map[string]any{
		"plan_name":          plan.Name,
		"current_period_end": stored.CurrentPeriodEnd.Format(time.DateOnly),
	})
	return nil
}

// settle records the payment first. The status only moves when the current
// state allows it; a payment for a non-entitled subscription is still kept.
func (s *Service) settle(ctx context.Context, e Event) (Outcome, error) {
	sub, err := s.lookup(ctx, e)
	if err != nil {
		return OutcomeFailed, err
	}

	paymentID := e.PaymentID
	if paymentID == "" {
		paymentID = e.ID
	}
	err = s.store.InsertPayment(ctx, Payment{
		ID:                uuid.New(),
		UserID:            sub.UserID,
		SubscriptionID:    sub.ID,
		ProviderPaymentID: paymentID,
		Amount:            e.Amount,
		Currency:          e.Currency,
		CreatedAt:         s.now(),
	})
	if errors.Is(err, ErrDuplicatePayment) {
		return OutcomeDuplicate, nil
	}
	if err != nil {
		return OutcomeFailed, fmt.Errorf("record payment: %w", err)
	}

	updated, err := s.applyLatest(ctx, sub, e, triggerSettle)
	if statemachine.IsNoTransitionAvailableError(err) {
		s.log.WarnContext(ctx, "payment received for inactive subscription",
			logger.SubscriptionID(sub.ID), logger.Status(string(sub.Status)))
		return OutcomeProcessed, nil
	}
	if err != nil {
		return OutcomeFailed, err
	}

	s.notify(ctx, updated.UserID, notify.EventPaymentReceived, map[string]any{
		"amount":   e.Amount.StringFixed(2),
		"currency": e.Currency,
	})
	return OutcomeProcessed, nil
}

func (s *Service) end(ctx context.Context, e Event, t trigger) error {
	sub, err := s.transition(ctx, e, t)
	if err != nil {
		return err
	}
	s.notify(ctx, sub.UserID, notify.EventSubscriptionCancelled, map[string]any{
		"status":             string(sub.Status),
		"effective_end_date": effectiveEndDate(sub, s.now()).Format(time.DateOnly),
	})
	return nil
}

func (s *Service) transition(ctx context.Context, e Event, t trigger) (Subscription, error) {
	sub, err := s.lookup(ctx, e)
	if err != nil {
		return Subscription{}, err
	}
	return s.applyLatest(ctx, sub, e, t)
}

// applyLatest is apply for provider events: the event describes the
// provider's current state, so a write that lost a race is fired again
// against the reloaded row.
func (s *Service) applyLatest(ctx context.Context, sub Subscription, e Event, t trigger) (Subscription, error) {
	var updated Subscription
	first := true
	err := s.retryConflicts(ctx, func(ctx context.Context) error {
		if !first {
			fresh, err := s.store.GetByUserID(ctx, sub.UserID)
			if err != nil {
				return err
			}
			sub = fresh
		}
		first = false

		var err error
		updated, err = s.apply(ctx, sub, e, t)
		return err
	})
	return updated, err
}

// retryConflicts runs fn again while it fails with ErrConcurrentUpdate.
func (s *Service) retryConflicts(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(maxConflictRetries, retry.NewConstant(conflictRetryDelay))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if errors.Is(err, ErrConcurrentUpdate) {
			s.log.DebugContext(ctx, "subscription changed concurrently, retrying", logger.Error(err))
			return retry.RetryableError(err)
		}
		return err
	})
}

// EnsureGracePeriod opens the grace window of a past_due subscription that
// has none. Subscriptions that already have one are returned unchanged.
// A concurrent write to sub returns ErrConcurrentUpdate without retrying.
func (s *Service) EnsureGracePeriod(ctx context.Context, sub Subscription) (Subscription, error) {
	if sub.GracePeriodEnd != nil {
		return sub, nil
	}
	return s.apply(ctx, sub, Event{}, triggerPaymentFailed)
}

// SuspendExpired suspends a past_due subscription whose grace period has
// elapsed. It returns ErrGracePeriodActive while the window is still open.
func (s *Service) SuspendExpired(ctx context.Context, sub Subscription) (Subscription, error) {
	updated, err := s.apply(ctx, sub, Event{}, triggerGraceExpired)
	if statemachine.IsTransitionRejectedError(err) {
		return sub, ErrGracePeriodActive
	}
	return updated, err
}

func (s *Service) apply(ctx context.Context, sub Subscription, e Event, t trigger) (Subscription, error) {
	c := &change{sub: &sub, event: e, now: s.now(), grace: s.grace}
	from := sub.Status
	next, err := s.machine.Fire(ctx, from, t, c)
	if err != nil {
		return sub, errors.Join(ErrInvalidTransition, err)
	}
	sub.Status = next
	sub.UpdatedAt = c.now

	if err := s.store.Update(ctx, sub); err != nil {
		return sub, fmt.Errorf("update subscription: %w", err)
	}
	sub.Version++

	s.log.LogAttrs(ctx, slog.LevelInfo, "subscription transitioned",
		logger.SubscriptionID(sub.ID),
		logger.UserID(sub.UserID),
		slog.String("from", string(from)),
		slog.String("to", string(next)),
		slog.Bool("recovered", c.recovered),
	)
	s.syncTier(ctx, sub)
	return sub, nil
}

func (s *Service) lookup(ctx context.Context, e Event) (Subscription, error) {
	if e.SubscriptionID != "" {
		sub, err := s.store.GetByProviderID(ctx, e.SubscriptionID)
		if err == nil || !errors.Is(err, ErrSubscriptionNotFound) || e.UserID == uuid.Nil {
			return sub, err
		}
	}
	if e.UserID == uuid.Nil {
		return Subscription{}, ErrSubscriptionNotFound
	}
	return s.store.GetByUserID(ctx, e.UserID)
}

// syncTier keeps the profile tier in line with the subscription. A failure
// leaves the stored subscription authoritative.
func (s *Service) syncTier(ctx context.Context, sub Subscription) {
	if s.profiles == nil {
		return
	}
	if err := s.profiles.SetSubscriptionTier(ctx, sub.UserID, sub.Tier()); err != nil {
		s.log.ErrorContext(ctx, "failed to sync subscription tier",
			logger.UserID(sub.UserID), logger.PlanSlug(sub.Tier()), logger.Error(err))
	}
}

func (s *Service) notify(ctx context.Context, userID uuid.UUID, eventType string, data map[string]any) {
	err := s.notifier.Dispatch(ctx, notify.Notification{UserID: userID, EventType: eventType, Data: data})
	if err != nil {
		s.log.WarnContext(ctx, "billing notification failed",
			logger.UserID(userID), logger.EventType(eventType), logger.Error(err))
	}
}

func effectiveEndDate(sub Subscription, now time.Time) time.Time {
	if sub.Status == StatusCanceled && sub.CurrentPeriodEnd.After(now) {
		return sub.CurrentPeriodEnd
	}
	return now
}
