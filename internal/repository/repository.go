package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// DB is the subset of *pgxpool.Pool used here.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const defaultQueryTimeout = 5 * time.Second

type base struct {
	db      DB
	timeout time.Duration
}

func newBase(db DB, timeout time.Duration) base {
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	return base{db: db, timeout: timeout}
}

func (b base) ctx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, b.timeout)
}

// Repositories bundles every store over one pool.
type Repositories struct {
	Subscriptions *Subscriptions
	Profiles      *Profiles
	Projects      *Projects
	Usage         *Usage
	Plans         *Plans
}

// New builds all repositories.
func New(db DB, queryTimeout time.Duration) *Repositories {
	b := newBase(db, queryTimeout)
	return &Repositories{
		Subscriptions: &Subscriptions{base: b},
		Profiles:      &Profiles{base: b},
		Projects:      &Projects{base: b},
		Usage:         &Usage{base: b},
		Plans:         &Plans{base: b},
	}
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// parseNumeric reads a numeric column selected as ::text.
func parseNumeric(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
