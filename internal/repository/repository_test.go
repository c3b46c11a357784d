package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qalam-studio/qalam/svc/billing"
	"github.com/qalam-studio/qalam/svc/notify"
	"github.com/qalam-studio/qalam/svc/redo"
)

type fakeRow func(dest ...any) error

func (f fakeRow) Scan(dest ...any) error { return f(dest...) }

type fakeDB struct {
	queries []string
	row     fakeRow
	tag     pgconn.CommandTag
	execErr error
}

func (f *fakeDB) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	f.queries = append(f.queries, sql)
	return f.tag, f.execErr
}

func (f *fakeDB) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	f.queries = append(f.queries, sql)
	return nil, errors.New("not supported")
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	f.queries = append(f.queries, sql)
	return f.row
}

func TestRunCountColumns(t *testing.T) {
	t.Parallel()

	for _, tab := range redo.Tabs() {
		col, err := runCountColumn(tab)
		require.NoError(t, err)
		assert.Equal(t, string(tab)+"_run_count", col)
	}

	_, err := runCountColumn("research_run_count; DROP TABLE projects")
	assert.ErrorIs(t, err, redo.ErrUnknownTab)
}

func TestProjects_IncrementRunCount(t *testing.T) {
	t.Parallel()

	db := &fakeDB{row: func(dest ...any) error {
		*dest[0].(*int) = 3
		return nil
	}}
	repos := New(db, time.Second)

	count, err := repos.Projects.IncrementRunCount(context.Background(), uuid.New(), redo.TabBroll)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	require.Len(t, db.queries, 1)
	assert.Equal(t, "UPDATE projects SET broll_run_count = broll_run_count + 1 WHERE id = $1 RETURNING broll_run_count", db.queries[0])

	db.row = func(...any) error { return pgx.ErrNoRows }
	_, err = repos.Projects.IncrementRunCount(context.Background(), uuid.New(), redo.TabBroll)
	assert.ErrorIs(t, err, redo.ErrProjectNotFound)

	_, err = repos.Projects.GetRunCount(context.Background(), uuid.New(), redo.TabArticle)
	assert.ErrorIs(t, err, redo.ErrProjectNotFound)
	assert.Contains(t, db.queries[len(db.queries)-1], "article_run_count")
}

func TestSubscriptions_ErrorMapping(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := &fakeDB{row: func(...any) error { return pgx.ErrNoRows }}
	repos := New(db, time.Second)

	_, err := repos.Subscriptions.GetByUserID(ctx, uuid.New())
	assert.ErrorIs(t, err, billing.ErrSubscriptionNotFound)

	_, err = repos.Subscriptions.GetByProviderID(ctx, "")
	assert.ErrorIs(t, err, billing.ErrSubscriptionNotFound)

	db.tag = pgconn.NewCommandTag("UPDATE 0")
	assert.ErrorIs(t, repos.Subscriptions.Update(ctx, billing.Subscription{ID: uuid.New()}), billing.ErrSubscriptionNotFound)

	// A conflict on user_id with a newer version returns no row.
	_, err = repos.Subscriptions.Upsert(ctx, billing.Subscription{UserID: uuid.New(), Version: 1})
	assert.ErrorIs(t, err, billing.ErrConcurrentUpdate)
	assert.Contains(t, db.queries[len(db.queries)-1], "WHERE subscriptions.version = EXCLUDED.version")

	db.row = func(dest ...any) error {
		*dest[0].(*int) = 4
		return nil
	}
	err = repos.Subscriptions.Update(ctx, billing.Subscription{ID: uuid.New(), Version: 3})
	assert.ErrorIs(t, err, billing.ErrConcurrentUpdate)
	assert.Contains(t, db.queries[len(db.queries)-2], "AND version = $14")
	db.row = func(...any) error { return pgx.ErrNoRows }

	db.execErr = &pgconn.PgError{Code: "23505"}
	assert.ErrorIs(t, repos.Subscriptions.InsertPayment(ctx, billing.Payment{ProviderPaymentID: "SALE-1"}), billing.ErrDuplicatePayment)
	assert.True(t, strings.Contains(db.queries[len(db.queries)-1], "$5::text::numeric"))
}

func TestProfiles_Email(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	email := "writer@example.com"
	db := &fakeDB{row: func(dest ...any) error {
		*dest[0].(**string) = &email
		return nil
	}}
	repos := New(db, time.Second)

	got, err := repos.Profiles.Email(ctx, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, email, got)

	db.row = func(dest ...any) error {
		*dest[0].(**string) = nil
		return nil
	}
	_, err = repos.Profiles.Email(ctx, uuid.New())
	assert.ErrorIs(t, err, notify.ErrRecipientNotFound)

	db.row = func(...any) error { return pgx.ErrNoRows }
	_, err = repos.Profiles.Email(ctx, uuid.New())
	assert.ErrorIs(t, err, notify.ErrRecipientNotFound)
}
