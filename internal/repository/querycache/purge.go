package querycache

import (
	"context"
	"fmt"
)

// purger is the store surface needed to drop cached responses.
type purger interface {
	Scan(ctx context.Context, pattern string) ([]string, error)
	Del(ctx context.Context, key string) error
}

// Purge deletes every cached response and returns the number of removed keys.
// Run it after the database content changes.
func Purge(ctx context.Context, s purger) (int, error) {
	keys, err := s.Scan(ctx, cacheKeyPrefix+"*")
	if err != nil {
		return 0, fmt.Errorf("scan cached queries: %w", err)
	}
	for i, k := range keys {
		if err := s.Del(ctx, k); err != nil {
			return i, fmt.Errorf("delete %s: %w", k, err)
		}
	}
	return len(keys), nil
}
