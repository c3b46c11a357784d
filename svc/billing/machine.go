package billing

import (
	"context"
	"time"

	"github.com/qalam-studio/qalam/pkg/statemachine"
	"github.com/qalam-studio/qalam/svc/plans"
)

type trigger string

const (
	triggerActivate      trigger = "activate"
	triggerSettle        trigger = "settle"
	triggerPaymentFailed trigger = "payment_failed"
	triggerCancel        trigger = "cancel"
	triggerSuspend       trigger = "suspend"
	triggerExpire        trigger = "expire"
	triggerGraceExpired  trigger = "grace_expired"
)

// change is the data carried through one transition. Actions mutate sub;
// nothing is persisted until the machine returns.
type change struct {
	sub    *Subscription
	event  Event
	now    time.Time
	grace  time.Duration
	plan   plans.Plan
	period plans.BillingPeriod

	recovered bool
}

type (
	guard  = statemachine.Guard[Status, trigger, *change]
	action = statemachine.Action[Status, trigger, *change]
)

func newMachine() *statemachine.Machine[Status, trigger, *change] {
	return statemachine.MustNew(
		statemachine.WithTransitionFromAny[Status, trigger, *change](StatusActive, triggerActivate, activate),

		statemachine.WithGuardedTransition(StatusActive, StatusActive, triggerSettle, nil, []action{settlePeriod}),
		statemachine.WithGuardedTransition(StatusPastDue, StatusActive, triggerSettle, nil, []action{recoverFromDunning, settlePeriod}),

		statemachine.WithGuardedTransition(StatusActive, StatusPastDue, triggerPaymentFailed, nil, []action{startGrace}),
		statemachine.WithGuardedTransition(StatusPastDue, StatusPastDue, triggerPaymentFailed, nil, []action{startGrace}),

		statemachine.WithGuardedTransition(StatusPastDue, StatusSuspended, triggerGraceExpired, []guard{graceElapsed}, nil),

		statemachine.WithGuardedTransition(StatusActive, StatusCanceled, triggerCancel, nil, []action{markCanceled}),
		statemachine.WithGuardedTransition(StatusPastDue, StatusCanceled, triggerCancel, nil, []action{markCanceled}),
		statemachine.WithTransition[Status, trigger, *change](StatusActive, StatusSuspended, triggerSuspend),
		statemachine.WithTransition[Status, trigger, *change](StatusPastDue, StatusSuspended, triggerSuspend),
		statemachine.WithGuardedTransition(StatusActive, StatusExpired, triggerExpire, nil, []action{clearDunning}),
		statemachine.WithGuardedTransition(StatusPastDue, StatusExpired, triggerExpire, nil, []action{clearDunning}),
		statemachine.WithTransition[Status, trigger, *change](StatusCanceled, StatusExpired, triggerExpire),
		statemachine.WithTransition[Status, trigger, *change](StatusSuspended, StatusExpired, triggerExpire),
	)
}

func graceElapsed(_ context.Context, _ Status, _ trigger, c *change) bool {
	return c.sub.GraceExpired(c.now)
}

func activate(_ context.Context, _, _ Status, _ trigger, c *change) error {
	s := c.sub
	s.PlanSlug = c.plan.Slug
	s.BillingPeriod = c.period
	if s.BillingPeriod == "" {
		s.BillingPeriod = plans.PeriodMonthly
	}
	if c.event.SubscriptionID != "" {
		s.ProviderSubID = c.event.SubscriptionID
	}
	s.CurrentPeriodStart = c.event.PeriodStart
	if s.CurrentPeriodStart.IsZero() {
		s.CurrentPeriodStart = c.now
	}
	s.CurrentPeriodEnd = c.event.PeriodEnd
	if s.CurrentPeriodEnd.IsZero() {
		s.CurrentPeriodEnd = periodEnd(s.CurrentPeriodStart, s.BillingPeriod)
	}
	s.ProjectsUsedThisPeriod = 0
	s.CancelAtPeriodEnd = false
	resetDunning(s)
	return nil
}

func settlePeriod(_ context.Context, _, _ Status, _ trigger, c *change) error {
	c.sub.ProjectsUsedThisPeriod = 0
	if !c.event.PeriodEnd.IsZero() {
		if !c.event.PeriodStart.IsZero() {
			c.sub.CurrentPeriodStart = c.event.PeriodStart
		}
		c.sub.CurrentPeriodEnd = c.event.PeriodEnd
	}
	return nil
}

func recoverFromDunning(_ context.Context, _, _ Status, _ trigger, c *change) error {
	c.recovered = true
	resetDunning(c.sub)
	return nil
}

// startGrace opens the grace window once. Repeated failures inside the
// window keep the original end date and reminder count.
func startGrace(_ context.Context, _, _ Status, _ trigger, c *change) error {
	if c.sub.GracePeriodEnd != nil {
		return nil
	}
	end := c.now.Add(c.grace)
	c.sub.GracePeriodEnd = &end
	c.sub.DunningCount = 0
	c.sub.LastDunningEmail = nil
	return nil
}

func markCanceled(_ context.Context, _, _ Status, _ trigger, c *change) error {
	c.sub.CancelAtPeriodEnd = true
	resetDunning(c.sub)
	return nil
}

func clearDunning(_ context.Context, _, _ Status, _ trigger, c *change) error {
	resetDunning(c.sub)
	return nil
}

func resetDunning(s *Subscription) {
	s.GracePeriodEnd = nil
	s.DunningCount = 0
	s.LastDunningEmail = nil
}

func periodEnd(start time.Time, period plans.BillingPeriod) time.Time {
	if period == plans.PeriodYearly {
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(0, 1, 0)
}
