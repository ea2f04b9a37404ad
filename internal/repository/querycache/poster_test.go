package querycache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/AitoDotAI/aito-demo/internal/domain"
	"github.com/AitoDotAI/aito-demo/internal/transport/aito"
)

var productQuery = aito.Query{From: aito.TableProducts, Where: aito.M{"id": "6410405082657"}}

func TestPost_CacheMiss(t *testing.T) {
	inner := &mockPoster{resp: []byte(`{"hits":[{"id":"6410405082657"}]}`)}
	cp, ms := newTestCachedPoster(t, inner)

	var setKey string
	var setTTL time.Duration
	ms.setFn = func(_ context.Context, key string, _ []byte, ttl time.Duration) error {
		setKey, setTTL = key, ttl
		return nil
	}

	data, err := cp.Post(context.Background(), aito.EndpointQuery, productQuery)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `{"hits":[{"id":"6410405082657"}]}` {
		t.Errorf("unexpected data %s", data)
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 inner call, got %d", inner.calls)
	}
	if !strings.HasPrefix(setKey, "grocery:aito:_query:") {
		t.Errorf("unexpected cache key %q", setKey)
	}
	if setTTL != time.Minute {
		t.Errorf("expected ttl 1m, got %v", setTTL)
	}
}

func TestPost_CacheHit(t *testing.T) {
	inner := &mockPoster{resp: []byte(`{"hits":[]}`)}
	cp, ms := newTestCachedPoster(t, inner)

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return []byte(`{"hits":[{"id":"cached"}]}`), nil
	}

	data, err := cp.Post(context.Background(), aito.EndpointQuery, productQuery)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(data), "cached") {
		t.Errorf("expected cached response, got %s", data)
	}
	if inner.calls != 0 {
		t.Errorf("expected no inner calls, got %d", inner.calls)
	}
}

func TestPost_CorruptEntryIsMiss(t *testing.T) {
	inner := &mockPoster{resp: []byte(`{"hits":[]}`)}
	cp, ms := newTestCachedPoster(t, inner)
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return []byte("{truncated"), nil
	}

	if _, err := cp.Post(context.Background(), aito.EndpointQuery, productQuery); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 1 {
		t.Errorf("expected inner call on corrupt cache entry, got %d", inner.calls)
	}
}

func TestPost_StoreErrorsDegradeToInner(t *testing.T) {
	inner := &mockPoster{resp: []byte(`{"hits":[]}`)}
	cp, ms := newTestCachedPoster(t, inner)
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return nil, errors.New("connection refused")
	}
	ms.setFn = func(_ context.Context, _ string, _ []byte, _ time.Duration) error {
		return errors.New("connection refused")
	}

	if _, err := cp.Post(context.Background(), aito.EndpointQuery, productQuery); err != nil {
		t.Fatalf("cache failures must not fail the query: %v", err)
	}
}

func TestPost_ErrorsNotCached(t *testing.T) {
	inner := &mockPoster{err: domain.ErrUpstreamUnavailable}
	cp, ms := newTestCachedPoster(t, inner)

	setCalled := false
	ms.setFn = func(_ context.Context, _ string, _ []byte, _ time.Duration) error {
		setCalled = true
		return nil
	}

	_, err := cp.Post(context.Background(), aito.EndpointQuery, productQuery)
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Errorf("expected inner error, got %v", err)
	}
	if setCalled {
		t.Error("errors must not be cached")
	}
}

func TestCacheKey_DependsOnEndpointAndBody(t *testing.T) {
	body := []byte(`{"from":"products"}`)
	if cacheKey(aito.EndpointQuery, body) == cacheKey(aito.EndpointPredict, body) {
		t.Error("expected endpoint to change the key")
	}
	if cacheKey(aito.EndpointQuery, body) == cacheKey(aito.EndpointQuery, []byte(`{"from":"users"}`)) {
		t.Error("expected body to change the key")
	}
	if cacheKey(aito.EndpointQuery, body) != cacheKey(aito.EndpointQuery, body) {
		t.Error("expected deterministic key")
	}
}

func TestPost_RecordsHitMiss(t *testing.T) {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_cache_total"}, []string{"result"})
	inner := &mockPoster{resp: []byte(`{"hits":[]}`)}
	ms := &mockKVStore{}
	cp := New(inner, ms, time.Minute, counter, zap.NewNop())

	_, _ = cp.Post(context.Background(), aito.EndpointQuery, productQuery)
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) { return []byte(`{}`), nil }
	_, _ = cp.Post(context.Background(), aito.EndpointQuery, productQuery)

	if v := testutil.ToFloat64(counter.WithLabelValues("miss")); v != 1 {
		t.Errorf("expected 1 miss, got %v", v)
	}
	if v := testutil.ToFloat64(counter.WithLabelValues("hit")); v != 1 {
		t.Errorf("expected 1 hit, got %v", v)
	}
}

func TestPost_PreEncodedBodiesForwardedVerbatim(t *testing.T) {
	const body = `{"from":"products","where":{"id":"6410405082657"}}`

	var keys []string
	for _, in := range []any{[]byte(body), json.RawMessage(body)} {
		inner := &mockPoster{resp: []byte(`{"hits":[]}`)}
		cp, ms := newTestCachedPoster(t, inner)
		ms.setFn = func(_ context.Context, key string, _ []byte, _ time.Duration) error {
			keys = append(keys, key)
			return nil
		}

		if _, err := cp.Post(context.Background(), aito.EndpointQuery, in); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		raw, ok := inner.last.(json.RawMessage)
		if !ok {
			t.Fatalf("expected json.RawMessage forwarded, got %T", inner.last)
		}
		if string(raw) != body {
			t.Errorf("expected body forwarded unchanged, got %s", raw)
		}
	}
	if len(keys) != 2 || keys[0] != keys[1] {
		t.Errorf("expected []byte and json.RawMessage to share a cache key, got %v", keys)
	}
}
