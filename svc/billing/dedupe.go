package billing

import (
	"context"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/qalam-studio/qalam/pkg/redis"
)

// Deduper claims webhook event keys so provider retries are applied once.
type Deduper interface {
	// Claim returns false when the key was already claimed.
	Claim(ctx context.Context, key string) (bool, error)
	// Release drops a claim after a failed attempt so a retry can run.
	Release(ctx context.Context, key string) error
}

const dedupeKeyPrefix = "billing:webhook:"

// NewRedisDeduper stores claims in Redis for ttl.
func NewRedisDeduper(client goredis.UniversalClient, ttl time.Duration) Deduper {
	return redis.NewClaimer(client, dedupeKeyPrefix, ttl)
}

// MemoryDeduper keeps claims in process memory. It is meant for single
// instance deployments and tests.
type MemoryDeduper struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	claims map[string]time.Time
}

// NewMemoryDeduper keeps each claim for ttl. A non-positive ttl keeps claims
// forever.
func NewMemoryDeduper(ttl time.Duration) *MemoryDeduper {
	return &MemoryDeduper{ttl: ttl, now: time.Now, claims: make(map[string]time.Time)}
}

func (d *MemoryDeduper) Claim(_ context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if at, ok := d.claims[key]; ok && (d.ttl <= 0 || now.Sub(at) < d.ttl) {
		return false, nil
	}
	d.claims[key] = now
	return true, nil
}

func (d *MemoryDeduper) Release(_ context.Context, key string) error {
	d.mu.Lock()
	delete(d.claims, key)
	d.mu.Unlock()
	return nil
}
