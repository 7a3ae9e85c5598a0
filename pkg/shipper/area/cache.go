package area

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Cache stores serialized catalog pages.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedCatalog coalesces concurrent fetches of the same district and,
// when a Cache is configured, keeps results for ttl. Cache failures are
// logged and fall through to the underlying catalog.
type CachedCatalog struct {
	next   Catalog
	cache  Cache
	ttl    time.Duration
	prefix string
	logger *otelzap.Logger
	group  singleflight.Group
}

// NewCachedCatalog wraps next. cache may be nil.
func NewCachedCatalog(prefix string, next Catalog, cache Cache, ttl time.Duration, logger *otelzap.Logger) *CachedCatalog {
	if logger == nil {
		logger = otelzap.New(zap.NewNop())
	}
	return &CachedCatalog{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		prefix: prefix,
		logger: logger,
	}
}

// Areas implements Catalog.
func (c *CachedCatalog) Areas(ctx context.Context, district string) ([]Area, error) {
	key := c.prefix + ":areas:" + strings.ToLower(strings.TrimSpace(district))

	v, err, _ := c.group.Do(key, func() (any, error) {
		if areas, ok := c.lookup(ctx, key); ok {
			return areas, nil
		}
		areas, err := c.next.Areas(ctx, district)
		if err != nil {
			return nil, err
		}
		c.store(ctx, key, areas)
		return areas, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Area), nil
}

func (c *CachedCatalog) lookup(ctx context.Context, key string) ([]Area, bool) {
	if c.cache == nil {
		return nil, false
	}
	raw, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Ctx(ctx).Warn("Area cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var areas []Area
	if err := json.Unmarshal(raw, &areas); err != nil {
		c.logger.Ctx(ctx).Warn("Area cache entry unreadable", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return areas, true
}

func (c *CachedCatalog) store(ctx context.Context, key string, areas []Area) {
	if c.cache == nil || len(areas) == 0 {
		return
	}
	raw, err := json.Marshal(areas)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, raw, c.ttl); err != nil {
		c.logger.Ctx(ctx).Warn("Area cache write failed", zap.String("key", key), zap.Error(err))
	}
}
