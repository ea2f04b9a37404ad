package aito

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/AitoDotAI/aito-demo/internal/domain/hit"
)

// M is a JSON object used to build query clauses.
type M = map[string]any

// Query is a predictive database query body. Zero fields are omitted.
type Query struct {
	From          any    `json:"from,omitempty"` // table name or nested query
	Where         any    `json:"where,omitempty"`
	Get           string `json:"get,omitempty"`
	Predict       string `json:"predict,omitempty"`
	Recommend     string `json:"recommend,omitempty"`
	Goal          any    `json:"goal,omitempty"`
	Relate        any    `json:"relate,omitempty"`
	Exclusiveness *bool  `json:"exclusiveness,omitempty"`
	OrderBy       any    `json:"orderBy,omitempty"`
	Select        []any  `json:"select,omitempty"`
	Aggregate     any    `json:"aggregate,omitempty"`
	Offset        int    `json:"offset,omitempty"`
	Limit         int    `json:"limit,omitempty"`
}

// Response is the common hits envelope.
type Response struct {
	Offset int       `json:"offset"`
	Total  int       `json:"total"`
	Hits   []hit.Hit `json:"hits"`
}

// Bool returns a pointer to b, for optional flags such as Exclusiveness.
func Bool(b bool) *bool { return &b }

// Poster sends a body to a query endpoint. Implemented by *Client and by caching decorators.
type Poster interface {
	Post(ctx context.Context, ep Endpoint, body any) ([]byte, error)
}

// API provides typed query calls.
type API struct {
	poster Poster
}

// NewAPI wraps a Poster.
func NewAPI(p Poster) *API {
	return &API{poster: p}
}

// Query runs a _query.
func (a *API) Query(ctx context.Context, q Query) (*Response, error) {
	return a.hits(ctx, EndpointQuery, q)
}

// Recommend runs a _recommend.
func (a *API) Recommend(ctx context.Context, q Query) (*Response, error) {
	return a.hits(ctx, EndpointRecommend, q)
}

// Predict runs a _predict.
func (a *API) Predict(ctx context.Context, q Query) (*Response, error) {
	return a.hits(ctx, EndpointPredict, q)
}

// Relate runs a _relate.
func (a *API) Relate(ctx context.Context, q Query) (*Response, error) {
	return a.hits(ctx, EndpointRelate, q)
}

// Aggregate runs an _aggregate and returns the result object.
func (a *API) Aggregate(ctx context.Context, q Query) (hit.Hit, error) {
	data, err := a.poster.Post(ctx, EndpointAggregate, q)
	if err != nil {
		return nil, err
	}
	var out hit.Hit
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", EndpointAggregate, err)
	}
	return out, nil
}

// Batch runs several queries in one _batch call. Responses follow query order.
func (a *API) Batch(ctx context.Context, qs ...Query) ([]Response, error) {
	data, err := a.poster.Post(ctx, EndpointBatch, qs)
	if err != nil {
		return nil, err
	}
	var out []Response
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", EndpointBatch, err)
	}
	if len(out) != len(qs) {
		return nil, fmt.Errorf("batch returned %d responses for %d queries", len(out), len(qs))
	}
	return out, nil
}

// Raw sends an arbitrary body and returns the undecoded response.
func (a *API) Raw(ctx context.Context, ep Endpoint, body any) (json.RawMessage, error) {
	data, err := a.poster.Post(ctx, ep, body)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (a *API) hits(ctx context.Context, ep Endpoint, q Query) (*Response, error) {
	data, err := a.poster.Post(ctx, ep, q)
	if err != nil {
		return nil, err
	}
	var out Response
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", ep, err)
	}
	if out.Hits == nil {
		out.Hits = []hit.Hit{}
	}
	return &out, nil
}
