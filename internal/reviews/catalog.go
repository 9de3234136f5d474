package reviews

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const catalogKey = "reviews:catalog"

// Catalog loads the review set from Redis, falling back to the built-in
// reviews when nothing has been published.
type Catalog struct {
	redis *redis.Client
}

// NewCatalog creates a catalog. A nil client always serves the defaults.
func NewCatalog(redisClient *redis.Client) *Catalog {
	return &Catalog{redis: redisClient}
}

// Load returns the published review set or the defaults.
func (c *Catalog) Load(ctx context.Context) ([]Review, error) {
	if c == nil || c.redis == nil {
		return Defaults(), nil
	}
	data, err := c.redis.Get(ctx, catalogKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return Defaults(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reviews: get catalog: %w", err)
	}

	var set []Review
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("reviews: unmarshal catalog: %w", err)
	}
	if err := ValidateSet(set); err != nil {
		return nil, err
	}
	return set, nil
}

// Publish replaces the stored review set after validating it.
func (c *Catalog) Publish(ctx context.Context, set []Review) error {
	if c == nil || c.redis == nil {
		return errors.New("reviews: catalog has no redis client")
	}
	if err := ValidateSet(set); err != nil {
		return err
	}
	data, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("reviews: marshal catalog: %w", err)
	}
	if err := c.redis.Set(ctx, catalogKey, data, 0).Err(); err != nil {
		return fmt.Errorf("reviews: set catalog: %w", err)
	}
	return nil
}
