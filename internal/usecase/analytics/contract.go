package analytics

import (
	"context"

	"github.com/AitoDotAI/aito-demo/internal/domain/hit"
	"github.com/AitoDotAI/aito-demo/internal/transport/aito"
)

// Engine runs the analytical queries against the predictive database.
type Engine interface {
	Query(ctx context.Context, q aito.Query) (*aito.Response, error)
	Relate(ctx context.Context, q aito.Query) (*aito.Response, error)
	Aggregate(ctx context.Context, q aito.Query) (hit.Hit, error)
	Batch(ctx context.Context, qs ...aito.Query) ([]aito.Response, error)
}
