package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultDedupTTL = 10 * time.Minute

// DeliveryDedup remembers recently delivered notifications.
// Key format: notify:dedup:<delivery key>
type DeliveryDedup struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDeliveryDedup(client *redis.Client, ttl time.Duration) *DeliveryDedup {
	if ttl <= 0 {
		ttl = defaultDedupTTL
	}
	return &DeliveryDedup{client: client, ttl: ttl}
}

// IsDuplicate reports whether this notification was delivered within the TTL.
func (d *DeliveryDedup) IsDuplicate(ctx context.Context, key string) (bool, error) {
	n, err := d.client.Exists(ctx, dedupKey(key)).Result()
	if err != nil {
		return false, storeErr("dedup check", err)
	}
	return n > 0, nil
}

// Mark records a delivery (expires after the TTL).
func (d *DeliveryDedup) Mark(ctx context.Context, key string) error {
	if err := d.client.Set(ctx, dedupKey(key), "1", d.ttl).Err(); err != nil {
		return storeErr("dedup mark", err)
	}
	return nil
}

func dedupKey(key string) string {
	return "notify:dedup:" + key
}
