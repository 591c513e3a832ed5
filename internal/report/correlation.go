package report

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Correlator counts repeat reports from the same anonymized reporter inside
// a rolling window, so responders can tell a first incident from a pattern.
// Correlation works only on anonymized IDs; real identity never reaches it.
type Correlator interface {
	RecordOccurrence(ctx context.Context, anonymizedUserID string) (int, error)
}

// RedisCorrelator keeps per-reporter counters in Redis with a TTL window.
type RedisCorrelator struct {
	client *redis.Client
	scope  string
	window time.Duration
}

// NewRedisCorrelator creates a correlator. scope namespaces the keys so
// multiple deployments can share an instance; window is the rolling period.
func NewRedisCorrelator(client *redis.Client, scope string, window time.Duration) *RedisCorrelator {
	if client == nil {
		panic("report: redis correlator requires a client")
	}
	if scope == "" {
		scope = "safety"
	}
	if window <= 0 {
		window = 30 * 24 * time.Hour
	}
	return &RedisCorrelator{client: client, scope: scope, window: window}
}

// RecordOccurrence increments and returns the reporter's occurrence count.
// The window restarts from the first occurrence, not the latest.
func (c *RedisCorrelator) RecordOccurrence(ctx context.Context, anonymizedUserID string) (int, error) {
	key := fmt.Sprintf("%s:correlation:%s", c.scope, anonymizedUserID)

	count, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("report: correlation incr: %w", err)
	}
	if count == 1 {
		if err := c.client.Expire(ctx, key, c.window).Err(); err != nil {
			return int(count), fmt.Errorf("report: correlation expire: %w", err)
		}
	}
	return int(count), nil
}

// NopCorrelator always reports the first occurrence. Used when Redis is not
// configured.
type NopCorrelator struct{}

func (NopCorrelator) RecordOccurrence(context.Context, string) (int, error) {
	return 1, nil
}

var _ Correlator = (*RedisCorrelator)(nil)
var _ Correlator = (*NopCorrelator)(nil)
