package memstore

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/qalam-studio/qalam/svc/billing"
	"github.com/qalam-studio/qalam/svc/notify"
	"github.com/qalam-studio/qalam/svc/plans"
	"github.com/qalam-studio/qalam/svc/redo"
	"github.com/qalam-studio/qalam/svc/usage"
)

type project struct {
	userID    uuid.UUID
	createdAt time.Time
	runs      map[redo.Tab]int
}

type profile struct {
	email string
	tier  string
}

// Store holds subscriptions, payments, projects, token usage and profiles.
type Store struct {
	mu       sync.Mutex
	now      func() time.Time
	subs     map[uuid.UUID]billing.Subscription
	payments map[string]billing.Payment
	projects map[uuid.UUID]*project
	tokens   []usage.TokenUsage
	profiles map[uuid.UUID]*profile
}

func New() *Store {
	return &Store{
		now:      time.Now,
		subs:     make(map[uuid.UUID]billing.Subscription),
		payments: make(map[string]billing.Payment),
		projects: make(map[uuid.UUID]*project),
		profiles: make(map[uuid.UUID]*profile),
	}
}

// AddProject creates a project owned by userID and returns its id.
func (s *Store) AddProject(userID uuid.UUID, createdAt time.Time) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New()
	s.projects[id] = &project{userID: userID, createdAt: createdAt, runs: make(map[redo.Tab]int)}
	return id
}

// AddProfile creates or replaces a profile with the free tier.
func (s *Store) AddProfile(userID uuid.UUID, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[userID] = &profile{email: email, tier: plans.FreeSlug}
}

// Tier returns the stored subscription tier of a profile, "" when unknown.
func (s *Store) Tier(userID uuid.UUID) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.profiles[userID]; ok {
		return p.tier
	}
	return ""
}

// Payments returns recorded payments ordered by creation time.
func (s *Store) Payments() []billing.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]billing.Payment, 0, len(s.payments))
	for _, p := range s.payments {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b billing.Payment) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out
}

// Subscriptions returns the number of stored subscription rows.
func (s *Store) Subscriptions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// billing.Store

func (s *Store) GetByUserID(_ context.Context, userID uuid.UUID) (billing.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[userID]
	if !ok {
		return billing.Subscription{}, billing.ErrSubscriptionNotFound
	}
	return sub, nil
}

func (s *Store) GetByProviderID(_ context.Context, providerSubID string) (billing.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if providerSubID != "" && sub.ProviderSubID == providerSubID {
			return sub, nil
		}
	}
	return billing.Subscription{}, billing.ErrSubscriptionNotFound
}

func (s *Store) Upsert(_ context.Context, sub billing.Subscription) (billing.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if existing, ok := s.subs[sub.UserID]; ok {
		if existing.Version != sub.Version {
			return billing.Subscription{}, billing.ErrConcurrentUpdate
		}
		sub.ID = existing.ID
		sub.CreatedAt = existing.CreatedAt
		sub.Version = existing.Version + 1
	} else {
		if sub.ID == uuid.Nil {
			sub.ID = uuid.New()
		}
		if sub.CreatedAt.IsZero() {
			sub.CreatedAt = now
		}
	}
	if sub.UpdatedAt.IsZero() {
		sub.UpdatedAt = now
	}
	s.subs[sub.UserID] = sub
	return sub, nil
}

func (s *Store) Update(_ context.Context, sub billing.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.subs[sub.UserID]
	if !ok || existing.ID != sub.ID {
		return billing.ErrSubscriptionNotFound
	}
	if existing.Version != sub.Version {
		return billing.ErrConcurrentUpdate
	}
	sub.Version++
	s.subs[sub.UserID] = sub
	return nil
}

func (s *Store) ListPastDue(context.Context) ([]billing.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []billing.Subscription
	for _, sub := range s.subs {
		if sub.Status == billing.StatusPastDue {
			out = append(out, sub)
		}
	}
	slices.SortFunc(out, func(a, b billing.Subscription) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return slices.Compare(a.ID[:], b.ID[:])
	})
	return out, nil
}

func (s *Store) InsertPayment(_ context.Context, p billing.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.payments[p.ProviderPaymentID]; ok {
		return billing.ErrDuplicatePayment
	}
	s.payments[p.ProviderPaymentID] = p
	return nil
}

// billing.ProfileStore and notify.RecipientResolver

func (s *Store) SetSubscriptionTier(_ context.Context, userID uuid.UUID, tier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		p = &profile{}
		s.profiles[userID] = p
	}
	p.tier = tier
	return nil
}

func (s *Store) Email(_ context.Context, userID uuid.UUID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok || p.email == "" {
		return "", notify.ErrRecipientNotFound
	}
	return p.email, nil
}

// redo.Store

func (s *Store) GetRunCount(_ context.Context, projectID uuid.UUID, tab redo.Tab) (redo.ProjectRuns, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[projectID]
	if !ok {
		return redo.ProjectRuns{}, redo.ErrProjectNotFound
	}
	return redo.ProjectRuns{UserID: p.userID, Count: p.runs[tab]}, nil
}

func (s *Store) IncrementRunCount(_ context.Context, projectID uuid.UUID, tab redo.Tab) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[projectID]
	if !ok {
		return 0, redo.ErrProjectNotFound
	}
	p.runs[tab]++
	return p.runs[tab], nil
}

// usage.Store

func (s *Store) CountProjectsCreated(_ context.Context, userID uuid.UUID, from, to time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, p := range s.projects {
		if p.userID == userID && within(p.createdAt, from, to) {
			n++
		}
	}
	return n, nil
}

func (s *Store) SumTokenUsage(_ context.Context, userID uuid.UUID, from, to time.Time) (usage.TokenTotals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	totals := usage.TokenTotals{Cost: decimal.Zero}
	for _, r := range s.tokens {
		if r.UserID == userID && within(r.CreatedAt, from, to) {
			totals.Tokens += r.Tokens
			totals.Cost = totals.Cost.Add(r.Cost)
			totals.Requests++
		}
	}
	return totals, nil
}

func (s *Store) InsertTokenUsage(_ context.Context, rec usage.TokenUsage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = append(s.tokens, rec)
	return nil
}

func within(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}
