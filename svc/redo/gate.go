package redo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/qalam-studio/qalam/pkg/logger"
	"github.com/qalam-studio/qalam/svc/plans"
)

// ProjectRuns is the owner of a project and the run counter of one tab.
type ProjectRuns struct {
	UserID uuid.UUID
	Count  int
}

// Store reads and increments run counters. Both methods return
// ErrProjectNotFound for unknown projects.
type Store interface {
	GetRunCount(ctx context.Context, projectID uuid.UUID, tab Tab) (ProjectRuns, error)
	IncrementRunCount(ctx context.Context, projectID uuid.UUID, tab Tab) (int, error)
}

// PlanResolver resolves a user's effective plan.
type PlanResolver interface {
	ResolveEffectivePlan(ctx context.Context, userID uuid.UUID) (plans.Plan, error)
}

// Decision is the outcome of a redo check.
type Decision struct {
	Allowed bool `json:"allowed"`
	Current int  `json:"current"`
	Limit   int  `json:"limit"`
}

// Gate enforces redo limits.
type Gate struct {
	store  Store
	plans  PlanResolver
	logger *slog.Logger
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithLogger sets the gate logger.
func WithLogger(l *slog.Logger) GateOption {
	return func(g *Gate) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGate creates a Gate.
func NewGate(store Store, resolver PlanResolver, opts ...GateOption) *Gate {
	g := &Gate{store: store, plans: resolver, logger: logger.Discard()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CheckRedoAllowed reports whether one more generation of tab is permitted.
// It has no side effects.
func (g *Gate) CheckRedoAllowed(ctx context.Context, projectID uuid.UUID, tab Tab) (Decision, error) {
	if !tab.Valid() {
		return Decision{}, fmt.Errorf("%w: %q", ErrUnknownTab, tab)
	}

	runs, err := g.store.GetRunCount(ctx, projectID, tab)
	if err != nil {
		return Decision{}, err
	}

	plan, err := g.plans.ResolveEffectivePlan(ctx, runs.UserID)
	if err != nil {
		return Decision{}, err
	}

	return Decision{
		Allowed: runs.Count <= plan.RedoLimitPerTab,
		Current: runs.Count,
		Limit:   plan.RedoRunLimit(),
	}, nil
}

// IncrementRunCount records one successful generation and returns the new count.
func (g *Gate) IncrementRunCount(ctx context.Context, projectID uuid.UUID, tab Tab) (int, error) {
	if !tab.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrUnknownTab, tab)
	}
	return g.store.IncrementRunCount(ctx, projectID, tab)
}

// Run checks the limit, calls generate when allowed and increments the counter
// only when generate succeeds. A denied call returns ErrRedoLimitReached with
// the decision and never invokes generate.
func (g *Gate) Run(ctx context.Context, projectID uuid.UUID, tab Tab, generate func(context.Context) error) (Decision, error) {
	if generate == nil {
		return Decision{}, ErrNilGenerator
	}

	d, err := g.CheckRedoAllowed(ctx, projectID, tab)
	if err != nil {
		return Decision{}, err
	}
	if !d.Allowed {
		g.logger.InfoContext(ctx, "redo limit reached",
			logger.ProjectID(projectID), logger.Tab(string(tab)),
			slog.Int("current", d.Current), slog.Int("limit", d.Limit))
		return d, ErrRedoLimitReached
	}

	if err := generate(ctx); err != nil {
		return d, fmt.Errorf("generate %s: %w", tab, err)
	}

	count, err := g.store.IncrementRunCount(ctx, projectID, tab)
	if err != nil {
		// Generation already happened; the run goes uncounted.
		g.logger.ErrorContext(ctx, "failed to increment run count",
			logger.ProjectID(projectID), logger.Tab(string(tab)), logger.Error(err))
		return d, errors.Join(fmt.Errorf("increment %s run count", tab), err)
	}
	d.Current = count
	return d, nil
}
