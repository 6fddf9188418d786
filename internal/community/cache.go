package community

import (
	"context"
	"errors"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/richxcame/fraudshield/internal/trust"
	"github.com/richxcame/fraudshield/pkg/logger"
	"github.com/richxcame/fraudshield/pkg/redis"
	"go.uber.org/zap"
)

// LookupCache is a two-tier TrustCache: an in-process go-cache in front of
// an optional shared Redis tier. Redis failures degrade to a miss.
type LookupCache struct {
	local  *gocache.Cache
	remote *redis.Client
	ttl    time.Duration
}

var _ TrustCache = (*LookupCache)(nil)

// NewLookupCache creates a cache holding records for ttl. remote may be nil.
func NewLookupCache(ttl time.Duration, remote *redis.Client) *LookupCache {
	return &LookupCache{
		local:  gocache.New(ttl, 2*ttl),
		remote: remote,
		ttl:    ttl,
	}
}

func cacheKey(ref trust.EntityRef) string {
	return fmt.Sprintf("trust:%s:%s", ref.Type, ref.ID)
}

// Get returns a cached record
func (c *LookupCache) Get(ctx context.Context, ref trust.EntityRef) (*trust.Record, bool) {
	key := cacheKey(ref)
	if v, ok := c.local.Get(key); ok {
		rec := v.(trust.Record)
		return &rec, true
	}
	if c.remote == nil {
		return nil, false
	}

	var rec trust.Record
	if err := c.remote.GetJSON(ctx, key, &rec); err != nil {
		if !errors.Is(err, redis.ErrCacheMiss) {
			logger.WithContext(ctx).Warn("trust cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	c.local.SetDefault(key, rec)
	return &rec, true
}

// Set stores a record in both tiers
func (c *LookupCache) Set(ctx context.Context, rec *trust.Record) {
	if rec == nil {
		return
	}
	key := cacheKey(trust.EntityRef{ID: rec.EntityID, Type: rec.EntityType})
	c.local.SetDefault(key, *rec)
	if c.remote == nil {
		return
	}
	if err := c.remote.SetJSON(ctx, key, rec, c.ttl); err != nil {
		logger.WithContext(ctx).Warn("trust cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate drops records from both tiers
func (c *LookupCache) Invalidate(ctx context.Context, refs ...trust.EntityRef) {
	if len(refs) == 0 {
		return
	}
	keys := make([]string, 0, len(refs))
	for _, ref := range refs {
		key := cacheKey(ref)
		c.local.Delete(key)
		keys = append(keys, key)
	}
	if c.remote == nil {
		return
	}
	if err := c.remote.Delete(ctx, keys...); err != nil {
		logger.WithContext(ctx).Warn("trust cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
