package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	dedupeKeyPrefix  = "notify:booking:"
	defaultDedupeTTL = 24 * time.Hour
)

// Deduper remembers which booking ids have already been relayed so retries
// from the browser or the queue do not page the business twice.
type Deduper struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewDeduper returns nil when redisClient is nil; a nil Deduper claims everything.
func NewDeduper(redisClient *redis.Client, ttl time.Duration) *Deduper {
	if redisClient == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultDedupeTTL
	}
	return &Deduper{redis: redisClient, ttl: ttl}
}

// Claim reports whether this is the first relay of bookingID.
func (d *Deduper) Claim(ctx context.Context, bookingID string) (bool, error) {
	if d == nil || bookingID == "" {
		return true, nil
	}
	ok, err := d.redis.SetNX(ctx, dedupeKeyPrefix+bookingID, time.Now().UTC().Format(time.RFC3339), d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("notify: claim booking %s: %w", bookingID, err)
	}
	return ok, nil
}

// Release forgets bookingID so a later retry is delivered.
func (d *Deduper) Release(ctx context.Context, bookingID string) error {
	if d == nil || bookingID == "" {
		return nil
	}
	if err := d.redis.Del(ctx, dedupeKeyPrefix+bookingID).Err(); err != nil {
		return fmt.Errorf("notify: release booking %s: %w", bookingID, err)
	}
	return nil
}
