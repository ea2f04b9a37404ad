package prompt

import (
	"context"

	"github.com/AitoDotAI/aito-demo/internal/transport/aito"
)

// Engine runs the queries behind prompt analysis.
type Engine interface {
	Query(ctx context.Context, q aito.Query) (*aito.Response, error)
	Predict(ctx context.Context, q aito.Query) (*aito.Response, error)
}
