package recommend

import (
	"context"

	"github.com/AitoDotAI/aito-demo/internal/domain/product"
	"github.com/AitoDotAI/aito-demo/internal/transport/aito"
)

// Engine runs recommendation and prediction queries.
type Engine interface {
	Recommend(ctx context.Context, q aito.Query) (*aito.Response, error)
	Predict(ctx context.Context, q aito.Query) (*aito.Response, error)
}

// ProductLookup resolves product ids.
type ProductLookup interface {
	ProductsByIDs(ctx context.Context, ids []string) ([]product.Product, error)
}
