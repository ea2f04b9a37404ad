package catalog

import (
	"context"

	"github.com/AitoDotAI/aito-demo/internal/transport/aito"
)

// Querier runs _query calls against the predictive database.
type Querier interface {
	Query(ctx context.Context, q aito.Query) (*aito.Response, error)
}
