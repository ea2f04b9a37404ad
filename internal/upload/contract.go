package upload

import (
	"context"
	"encoding/json"
)

// Client is the predictive database surface the uploader needs.
type Client interface {
	Health(ctx context.Context) error
	PutSchema(ctx context.Context, schema json.RawMessage) error
	UploadBatch(ctx context.Context, table string, rows json.RawMessage) error
	UploadFile(ctx context.Context, table, filename string, content []byte) error
}
