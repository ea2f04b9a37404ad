package predict

import (
	"context"

	"github.com/AitoDotAI/aito-demo/internal/transport/aito"
)

// Predictor runs _predict calls.
type Predictor interface {
	Predict(ctx context.Context, q aito.Query) (*aito.Response, error)
}
