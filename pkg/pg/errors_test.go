package pg_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/qalam-studio/qalam/pkg/pg"
)

func TestErrorClassifiers(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("get subscription: %w", pgx.ErrNoRows)
	assert.True(t, pg.IsNotFoundError(wrapped))
	assert.False(t, pg.IsNotFoundError(nil))
	assert.False(t, pg.IsNotFoundError(errors.New("boom")))

	assert.True(t, pg.IsDuplicateKeyError(&pgconn.PgError{Code: "23505"}))
	assert.True(t, pg.IsForeignKeyViolationError(fmt.Errorf("upsert: %w", &pgconn.PgError{Code: "23503"})))
	assert.True(t, pg.IsCheckViolationError(&pgconn.PgError{Code: "23514"}))
	assert.False(t, pg.IsDuplicateKeyError(&pgconn.PgError{Code: "23503"}))
}

func TestConnect_EmptyConnectionString(t *testing.T) {
	t.Parallel()

	_, err := pg.Connect(context.Background(), pg.Config{})
	assert.ErrorIs(t, err, pg.ErrEmptyConnectionString)
}

func TestMigrate_NilFS(t *testing.T) {
	t.Parallel()

	err := pg.Migrate(context.Background(), nil, pg.Config{}, nil, nil)
	assert.ErrorIs(t, err, pg.ErrMigrationsNotProvided)
}
