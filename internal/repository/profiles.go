package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/qalam-studio/qalam/pkg/pg"
	"github.com/qalam-studio/qalam/svc/notify"
)

// Profiles keeps the denormalized subscription tier and resolves
// notification recipients.
type Profiles struct {
	base
}

// SetSubscriptionTier creates the profile row when the user has none yet.
func (r *Profiles) SetSubscriptionTier(ctx context.Context, userID uuid.UUID, tier string) error {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		INSERT INTO profiles (id, subscription_tier, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET subscription_tier = EXCLUDED.subscription_tier, updated_at = now()`,
		userID, tier)
	if err != nil {
		return fmt.Errorf("set subscription tier: %w", err)
	}
	return nil
}

func (r *Profiles) Email(ctx context.Context, userID uuid.UUID) (string, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	var email *string
	err := r.db.QueryRow(ctx, `SELECT email FROM profiles WHERE id = $1`, userID).Scan(&email)
	if pg.IsNotFoundError(err) || (err == nil && derefString(email) == "") {
		return "", notify.ErrRecipientNotFound
	}
	if err != nil {
		return "", fmt.Errorf("profile email: %w", err)
	}
	return *email, nil
}
