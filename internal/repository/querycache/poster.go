// Package querycache caches predictive database responses in a key-value store.
package querycache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/AitoDotAI/aito-demo/internal/db"
	"github.com/AitoDotAI/aito-demo/internal/transport/aito"
)

const cacheKeyPrefix = "grocery:aito:"

// store is the consumer interface for the query cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedPoster caches successful responses keyed by endpoint and body.
type CachedPoster struct {
	inner      aito.Poster
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner aito.Poster,
	s store,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedPoster {
	return &CachedPoster{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Post returns a cached response or calls the inner poster. Errors are never cached.
func (c *CachedPoster) Post(ctx context.Context, ep aito.Endpoint, body any) ([]byte, error) {
	payload, err := aito.EncodeBody(body)
	if err != nil {
		return nil, err
	}
	key := cacheKey(ep, payload)

	if data, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return data, nil
	}

	c.incCache("miss")

	data, err := c.inner.Post(ctx, ep, json.RawMessage(payload))
	if err != nil {
		return nil, err
	}

	c.putToCache(ctx, key, data)
	return data, nil
}

func (c *CachedPoster) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func cacheKey(ep aito.Endpoint, payload []byte) string {
	h := sha256.New()
	h.Write([]byte(ep))
	h.Write([]byte{0})
	h.Write(payload)
	return cacheKeyPrefix + string(ep) + ":" + hex.EncodeToString(h.Sum(nil))
}

func (c *CachedPoster) getFromCache(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached query", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if len(data) == 0 || !json.Valid(data) {
		return nil, false
	}
	return data, true
}

func (c *CachedPoster) putToCache(ctx context.Context, key string, data []byte) {
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache query", zap.String("key", key), zap.Error(err))
	}
}
