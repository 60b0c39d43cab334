// Package cache keeps recently fetched entity lists in memory for a fixed TTL.
//
// Reads inside the TTL window return the stored value itself (no copy, no
// fetch). Any write to an entity type invalidates every cached variant of it,
// so the next read refetches regardless of age.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/fekuna/omnipos-erp-service/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type Entity string

const (
	EntityOrders             Entity = "orders"
	EntityItems              Entity = "items"
	EntityCompanies          Entity = "companies"
	EntityTransportCompanies Entity = "transport_companies"
	EntityAuditLogs          Entity = "audit_logs"
	EntityUsers              Entity = "users"
)

const DefaultTTL = 5 * time.Minute

// Broadcaster fans invalidations out to other instances.
type Broadcaster interface {
	Publish(ctx context.Context, entity Entity) error
}

type Snapshot struct {
	Data      interface{}
	FetchedAt time.Time
	// IsStale is true when the value is older than the TTL or was invalidated.
	IsStale bool
	Present bool
	Loading bool
}

type entry struct {
	data      interface{}
	fetchedAt time.Time
	valid     bool
}

type bucket struct {
	gen      uint64
	loading  int
	variants map[string]*entry
}

type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	buckets map[Entity]*bucket
	group   singleflight.Group

	broadcaster Broadcaster
	logger      logger.ZapLogger
}

type Option func(*Cache)

func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func WithBroadcaster(b Broadcaster) Option {
	return func(c *Cache) { c.broadcaster = b }
}

func New(ttl time.Duration, log logger.ZapLogger, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		ttl:     ttl,
		now:     time.Now,
		buckets: map[Entity]*bucket{},
		logger:  log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) TTL() time.Duration { return c.ttl }

func (c *Cache) bucketLocked(e Entity) *bucket {
	b, ok := c.buckets[e]
	if !ok {
		b = &bucket{variants: map[string]*entry{}}
		c.buckets[e] = b
	}
	return b
}

// Get returns what is cached for (entity, key) without fetching.
func (c *Cache) Get(e Entity, key string) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	b := c.bucketLocked(e)
	snap := Snapshot{Loading: b.loading > 0}
	en, ok := b.variants[key]
	if !ok {
		snap.IsStale = true
		return snap
	}
	snap.Present = true
	snap.Data = en.data
	snap.FetchedAt = en.fetchedAt
	snap.IsStale = !en.valid || c.now().Sub(en.fetchedAt) >= c.ttl
	return snap
}

func (c *Cache) Set(e Entity, key string, data interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bucketLocked(e).variants[key] = &entry{data: data, fetchedAt: c.now(), valid: true}
}

// Invalidate drops every variant of the entity locally and tells other
// instances to do the same. Broadcast failures are logged only.
func (c *Cache) Invalidate(ctx context.Context, entities ...Entity) {
	for _, e := range entities {
		c.InvalidateLocal(e)
		if c.broadcaster == nil {
			continue
		}
		if err := c.broadcaster.Publish(ctx, e); err != nil {
			c.logger.Warn("failed to broadcast cache invalidation", zap.String("entity", string(e)), zap.Error(err))
		}
	}
}

func (c *Cache) InvalidateLocal(e Entity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.bucketLocked(e)
	b.gen++
	b.variants = map[string]*entry{}
}

// Load returns the cached value for (entity, key) when it is fresh, otherwise
// calls fetch and caches the result. Concurrent loads of the same key share one
// fetch, which runs detached from any single caller's cancellation.
func Load[T any](ctx context.Context, c *Cache, e Entity, key string, fetch func(ctx context.Context) (T, error)) (T, error) {
	if snap := c.Get(e, key); snap.Present && !snap.IsStale {
		if v, ok := snap.Data.(T); ok {
			return v, nil
		}
	}

	ch := c.group.DoChan(string(e)+"|"+key, func() (interface{}, error) {
		c.mu.Lock()
		b := c.bucketLocked(e)
		gen := b.gen
		b.loading++
		c.mu.Unlock()

		data, err := fetch(context.WithoutCancel(ctx))

		c.mu.Lock()
		defer c.mu.Unlock()
		b = c.bucketLocked(e)
		b.loading--
		if err != nil {
			return nil, err
		}
		// A write landed while we were fetching; hand the result to this
		// caller but don't cache it.
		if b.gen == gen {
			b.variants[key] = &entry{data: data, fetchedAt: c.now(), valid: true}
		}
		return data, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return zero, r.Err
		}
		return r.Val.(T), nil
	}
}
