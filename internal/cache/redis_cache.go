package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/bagstore/storefront/internal/metrics"
	"github.com/bagstore/storefront/internal/workflow"
)

const keyPrefix = "storefront:order:"

var errStaleView = errors.New("order invalidated since the view was read")

// RedisCache shares order views between instances. Each order has a
// generation key next to its view; Invalidate increments it and Set only
// writes while it still matches the ticket. Redis failures are logged and
// treated as misses.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

func viewKey(orderNumber string) string { return keyPrefix + orderNumber }
func genKey(orderNumber string) string  { return keyPrefix + orderNumber + ":gen" }

func (c *RedisCache) Get(ctx context.Context, orderNumber string) (*workflow.OrderView, uint64, bool) {
	if view, ok := c.lookup(ctx, orderNumber); ok {
		metrics.OrderCacheLookupsTotal.WithLabelValues("hit").Inc()
		return view, 0, true
	}
	metrics.OrderCacheLookupsTotal.WithLabelValues("miss").Inc()

	gen, err := c.client.Get(ctx, genKey(orderNumber)).Uint64()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.logger.Warn("redis get generation failed", zap.String("order_number", orderNumber), zap.Error(err))
	}
	return nil, gen, false
}

func (c *RedisCache) lookup(ctx context.Context, orderNumber string) (*workflow.OrderView, bool) {
	raw, err := c.client.Get(ctx, viewKey(orderNumber)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("redis get failed", zap.String("order_number", orderNumber), zap.Error(err))
		}
		return nil, false
	}

	var view workflow.OrderView
	if err := json.Unmarshal(raw, &view); err != nil {
		c.logger.Warn("dropping undecodable cache entry", zap.String("order_number", orderNumber), zap.Error(err))
		c.Invalidate(ctx, orderNumber)
		return nil, false
	}
	return &view, true
}

func (c *RedisCache) Set(ctx context.Context, view *workflow.OrderView, ticket uint64) {
	if view == nil {
		return
	}
	raw, err := json.Marshal(view)
	if err != nil {
		c.logger.Warn("failed to encode order view", zap.String("order_number", view.OrderNumber), zap.Error(err))
		return
	}

	gk := genKey(view.OrderNumber)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		gen, err := tx.Get(ctx, gk).Uint64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if gen != ticket {
			return errStaleView
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, viewKey(view.OrderNumber), raw, c.ttl)
			if c.ttl > 0 && gen > 0 {
				pipe.Expire(ctx, gk, c.ttl)
			}
			return nil
		})
		return err
	}, gk)
	switch {
	case err == nil:
	case errors.Is(err, errStaleView), errors.Is(err, redis.TxFailedErr):
		c.logger.Debug("cache: dropped stale order view", zap.String("order_number", view.OrderNumber))
	default:
		c.logger.Warn("redis set failed", zap.String("order_number", view.OrderNumber), zap.Error(err))
	}
}

func (c *RedisCache) Invalidate(ctx context.Context, orderNumber string) {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey(orderNumber))
		if c.ttl > 0 {
			pipe.Expire(ctx, genKey(orderNumber), c.ttl)
		}
		pipe.Del(ctx, viewKey(orderNumber))
		return nil
	})
	if err != nil {
		c.logger.Warn("redis invalidate failed", zap.String("order_number", orderNumber), zap.Error(err))
	}
}
