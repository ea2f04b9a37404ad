package querycache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/AitoDotAI/aito-demo/internal/db"
	"github.com/AitoDotAI/aito-demo/internal/transport/aito"
)

type mockPoster struct {
	resp  []byte
	err   error
	calls int
	last  any
}

func (m *mockPoster) Post(_ context.Context, _ aito.Endpoint, body any) ([]byte, error) {
	m.calls++
	m.last = body
	return m.resp, m.err
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	return nil
}

func newTestCachedPoster(t *testing.T, inner *mockPoster) (*CachedPoster, *mockKVStore) {
	t.Helper()
	ms := &mockKVStore{}
	return New(inner, ms, time.Minute, nil, zap.NewNop()), ms
}
