package registry

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	pkgredis "github.com/Fosho-App/fosho-v1/pkg/redis"
)

const attributeCacheTTL = 30 * time.Second

// CachedEventMetadata caches event attribute records in Redis in front
// of another EventMetadata. Attribute records change rarely (only at
// event creation) so a short TTL keeps the hot join path off postgres
// without risking stale bounds for long.
type CachedEventMetadata struct {
	inner  EventMetadata
	rdb    *pkgredis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedEventMetadata wraps inner with a Redis read-through cache.
func NewCachedEventMetadata(inner EventMetadata, rdb *pkgredis.Client, logger *zap.Logger) *CachedEventMetadata {
	return &CachedEventMetadata{
		inner:  inner,
		rdb:    rdb,
		ttl:    attributeCacheTTL,
		logger: logger,
	}
}

func (c *CachedEventMetadata) cacheKey(eventID string) string {
	return "event-attrs:" + eventID
}

// SetAttributes writes through to the inner store and invalidates the
// cache entry.
func (c *CachedEventMetadata) SetAttributes(ctx context.Context, eventID string, attrs AttributeList) error {
	if err := c.inner.SetAttributes(ctx, eventID, attrs); err != nil {
		return err
	}
	if err := c.rdb.Del(ctx, c.cacheKey(eventID)).Err(); err != nil {
		c.logger.Warn("attribute cache invalidation failed", zap.String("event_id", eventID), zap.Error(err))
	}
	return nil
}

// Attributes reads from Redis first, falling back to the inner store on
// miss or cache error. Cache failures are logged, never surfaced.
func (c *CachedEventMetadata) Attributes(ctx context.Context, eventID string) (AttributeList, error) {
	key := c.cacheKey(eventID)

	if raw, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var attrs AttributeList
		if err := json.Unmarshal(raw, &attrs); err == nil {
			return attrs, nil
		}
	}

	attrs, err := c.inner.Attributes(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(attrs); err == nil {
		if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.logger.Warn("attribute cache write failed", zap.String("event_id", eventID), zap.Error(err))
		}
	}
	return attrs, nil
}
