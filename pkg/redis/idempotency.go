package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// PendingMarker occupies an idempotency key while the first request holding it runs.
const PendingMarker = "__pending__"

// IdempotencyStore is the claim/complete/release protocol behind the
// Idempotency-Key header. A key is claimed with a short lock TTL, then either
// completed with the stored response or released so the client may retry.
type IdempotencyStore interface {
	Claim(ctx context.Context, key string, lockTTL time.Duration) (existing string, claimed bool, err error)
	Complete(ctx context.Context, key, value string, ttl time.Duration) error
	Release(ctx context.Context, key string) error
	IdempotencyKey(scope, id string) string
}

// Claim takes key for the caller. When another request already holds it the
// stored value is returned instead: PendingMarker while that request runs, the
// recorded response afterwards.
func (c *Client) Claim(ctx context.Context, key string, lockTTL time.Duration) (string, bool, error) {
	for attempt := 0; attempt < 2; attempt++ {
		claimed, err := c.SetNX(ctx, key, PendingMarker, lockTTL)
		if err != nil {
			return "", false, err
		}
		if claimed {
			return "", true, nil
		}
		existing, err := c.Get(ctx, key)
		if errors.Is(err, redis.Nil) {
			// expired between SETNX and GET
			continue
		}
		if err != nil {
			return "", false, err
		}
		return existing, false, nil
	}
	return "", false, errors.New("idempotency key kept expiring while claiming")
}

// Complete replaces the pending marker with the final response.
func (c *Client) Complete(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.Set(ctx, key, value, ttl)
}

// Release drops a claim so the same key can be retried.
func (c *Client) Release(ctx context.Context, key string) error {
	return c.Del(ctx, key)
}
