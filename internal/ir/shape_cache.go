package ir

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"golang.org/x/sync/singleflight"

	"github.com/born-ml/irgraph/internal/cache"
	"github.com/born-ml/irgraph/internal/config"
	"github.com/born-ml/irgraph/internal/hashing"
	"github.com/born-ml/irgraph/internal/shape"
)

const meterName = "github.com/born-ml/irgraph/ir"

// ShapeCache maps structural hashes to inferred shapes so that shape
// inference runs once per distinct subgraph. It is safe for concurrent use.
// Cached shapes are shared and must not be modified.
type ShapeCache struct {
	entries *cache.Cache[hashing.Hash, *shape.Shape]
	group   singleflight.Group
	logger  *slog.Logger

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64

	hitCounter   metric.Int64Counter
	missCounter  metric.Int64Counter
	evictCounter metric.Int64Counter
}

// ShapeCacheStats is a point-in-time view of cache activity.
type ShapeCacheStats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Len       int
	Capacity  int
}

// NewShapeCache creates a shape cache holding at most capacity shapes.
func NewShapeCache(capacity int, logger *slog.Logger) (*ShapeCache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &ShapeCache{logger: logger.With("component", "shape_cache")}
	entries, err := cache.New[hashing.Hash, *shape.Shape](capacity, c.onEvict)
	if err != nil {
		return nil, errors.Wrap(err, "creating shape cache")
	}
	c.entries = entries

	meter := otel.Meter(meterName)
	c.hitCounter = counter(meter, "irgraph.shape_cache.hits", "Shape lookups served from the cache")
	c.missCounter = counter(meter, "irgraph.shape_cache.misses", "Shape lookups that ran shape inference")
	c.evictCounter = counter(meter, "irgraph.shape_cache.evictions", "Shapes dropped to make room")

	c.logger.Debug("shape cache created", "capacity", capacity)
	return c, nil
}

func counter(meter metric.Meter, name, desc string) metric.Int64Counter {
	ctr, err := meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		return noop.Int64Counter{}
	}
	return ctr
}

var defaultShapeCache = sync.OnceValue(func() *ShapeCache {
	cfg := config.Global()
	c, err := NewShapeCache(cfg.ShapeCacheSize, nil)
	if err != nil {
		panic(errors.Wrap(err, "ir: default shape cache"))
	}
	return c
})

// DefaultShapeCache returns the process-wide shape cache, sized by the
// IR_SHAPE_CACHE_SIZE setting on first use.
func DefaultShapeCache() *ShapeCache {
	return defaultShapeCache()
}

// GetOrCompute returns the shape cached under h, running fn to infer and
// cache it on a miss. Concurrent misses on the same hash share a single call
// to fn.
func (c *ShapeCache) GetOrCompute(h hashing.Hash, fn func() shape.Shape) *shape.Shape {
	if s, ok := c.entries.Get(h); ok {
		c.hits.Add(1)
		c.hitCounter.Add(context.Background(), 1)
		return s
	}

	v, _, _ := c.group.Do(h.String(), func() (any, error) {
		// Another caller may have filled the entry while we waited.
		if s, ok := c.entries.Get(h); ok {
			c.hits.Add(1)
			c.hitCounter.Add(context.Background(), 1)
			return s, nil
		}
		c.misses.Add(1)
		c.missCounter.Add(context.Background(), 1)
		s := fn()
		c.logger.Debug("inferred shape", "hash", h.String(), "shape", s.String())
		return c.entries.Add(h, &s), nil
	})
	return v.(*shape.Shape)
}

// Stats returns hit, miss and eviction counts.
func (c *ShapeCache) Stats() ShapeCacheStats {
	return ShapeCacheStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Len:       c.entries.Len(),
		Capacity:  c.entries.Capacity(),
	}
}

// Purge drops every cached shape.
func (c *ShapeCache) Purge() {
	c.entries.Purge()
}

func (c *ShapeCache) onEvict(h hashing.Hash, s *shape.Shape) {
	c.evictions.Add(1)
	c.evictCounter.Add(context.Background(), 1)
	c.logger.Debug("evicted shape", "hash", h.String(), "shape", s.String())
}
