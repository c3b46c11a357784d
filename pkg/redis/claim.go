package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Claimer marks keys as taken with SETNX. The first caller for a key wins
// until the TTL expires.
type Claimer struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewClaimer creates a Claimer storing keys as prefix+key for ttl.
func NewClaimer(client redis.UniversalClient, prefix string, ttl time.Duration) *Claimer {
	return &Claimer{client: client, prefix: prefix, ttl: ttl}
}

// Claim returns true when the key was not claimed before.
func (c *Claimer) Claim(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, ErrEmptyClaimKey
	}
	ok, err := c.client.SetNX(ctx, c.prefix+key, time.Now().Unix(), c.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim %q: %w", key, err)
	}
	return ok, nil
}

// Release drops a claim so the key can be processed again.
func (c *Claimer) Release(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		return fmt.Errorf("release %q: %w", key, err)
	}
	return nil
}
