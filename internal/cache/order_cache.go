// Package cache keeps rendered order views so repeated order reads skip the
// database. Writers invalidate entries after commit.
package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bagstore/storefront/internal/metrics"
	"github.com/bagstore/storefront/internal/workflow"
)

// entry is a cached view or, with a nil view, the tombstone an
// invalidation leaves behind. gen counts invalidations of the order.
type entry struct {
	view    *workflow.OrderView
	gen     uint64
	expires time.Time
}

// OrderCache is the in-process cache used when no Redis address is
// configured.
type OrderCache struct {
	mu      sync.Mutex
	cache   map[string]entry
	live    int
	ttl     time.Duration
	timeNow func() time.Time
	logger  *zap.Logger
}

func NewOrderCache(ttl time.Duration, logger *zap.Logger) *OrderCache {
	return &OrderCache{
		cache:   make(map[string]entry),
		ttl:     ttl,
		timeNow: time.Now,
		logger:  logger,
	}
}

func (c *OrderCache) Get(_ context.Context, orderNumber string) (*workflow.OrderView, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.lookupLocked(orderNumber)
	if e.view == nil {
		metrics.OrderCacheLookupsTotal.WithLabelValues("miss").Inc()
		return nil, e.gen, false
	}
	metrics.OrderCacheLookupsTotal.WithLabelValues("hit").Inc()
	return copyView(e.view), e.gen, true
}

func (c *OrderCache) Set(_ context.Context, view *workflow.OrderView, ticket uint64) {
	if view == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.lookupLocked(view.OrderNumber)
	if e.gen != ticket {
		c.logger.Debug("cache: dropped stale order view", zap.String("order_number", view.OrderNumber))
		return
	}
	c.storeLocked(view.OrderNumber, e, entry{view: copyView(view), gen: e.gen, expires: c.expiry()})
	c.logger.Debug("cache: set order", zap.String("order_number", view.OrderNumber), zap.String("status", string(view.Status)))
}

func (c *OrderCache) Invalidate(_ context.Context, orderNumber string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.lookupLocked(orderNumber)
	c.storeLocked(orderNumber, e, entry{gen: e.gen + 1, expires: c.expiry()})
	if e.view != nil {
		c.logger.Debug("cache: deleted order", zap.String("order_number", orderNumber))
	}
}

// Len counts cached views; tombstones are not included.
func (c *OrderCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live
}

// lookupLocked returns the entry for orderNumber with expiry applied. An
// expired view turns into a tombstone that keeps its generation; an expired
// tombstone is dropped.
func (c *OrderCache) lookupLocked(orderNumber string) entry {
	e, found := c.cache[orderNumber]
	if !found || e.expires.IsZero() || c.timeNow().Before(e.expires) {
		return e
	}
	if e.view == nil {
		delete(c.cache, orderNumber)
		return entry{}
	}
	tomb := entry{gen: e.gen, expires: c.expiry()}
	c.storeLocked(orderNumber, e, tomb)
	return tomb
}

func (c *OrderCache) expiry() time.Time {
	if c.ttl <= 0 {
		return time.Time{}
	}
	return c.timeNow().Add(c.ttl)
}

func (c *OrderCache) storeLocked(orderNumber string, prev, next entry) {
	if prev.view != nil {
		c.live--
	}
	if next.view != nil {
		c.live++
	}
	c.cache[orderNumber] = next
	metrics.OrderCacheItems.Set(float64(c.live))
}

func copyView(v *workflow.OrderView) *workflow.OrderView {
	out := *v
	out.Items = slices.Clone(v.Items)
	return &out
}
