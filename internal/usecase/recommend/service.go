// Package recommend implements personalized recommendations and basket autofill.
package recommend

import (
	"context"
	"fmt"

	"github.com/AitoDotAI/aito-demo/internal/domain"
	"github.com/AitoDotAI/aito-demo/internal/domain/hit"
	"github.com/AitoDotAI/aito-demo/internal/domain/product"
	"github.com/AitoDotAI/aito-demo/internal/transport/aito"
)

// DefaultSmartCartSize caps smart cart predictions.
const DefaultSmartCartSize = 8

// Service handles recommendations.
type Service struct {
	engine   Engine
	products ProductLookup
	autofill hit.Threshold
}

// New creates a recommend service. autofill is the cutoff for predicted purchases.
func New(engine Engine, products ProductLookup, autofill hit.Threshold) *Service {
	return &Service{engine: engine, products: products, autofill: autofill}
}

// Recommend suggests products the user is likely to buy, excluding the cart.
func (s *Service) Recommend(ctx context.Context, userID string, cartIDs []string, count int) ([]product.Product, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: count must be positive", domain.ErrInvalidRequest)
	}

	where := aito.M{"context.user": userID}
	if len(cartIDs) > 0 {
		not := make([]any, len(cartIDs))
		for i, id := range cartIDs {
			not[i] = aito.M{"$not": id}
		}
		where["product.id"] = aito.M{"$and": not}
	}

	resp, err := s.engine.Recommend(ctx, aito.Query{
		From:      aito.TableImpressions,
		Where:     where,
		Recommend: "product",
		Goal:      aito.M{"purchase": true},
		Select:    []any{"name", "id", "tags", "price"},
		Limit:     count,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recommendations: %w", err)
	}
	return product.FromHits(resp.Hits), nil
}

// Autofill predicts the product ids the user will buy on the next visit.
func (s *Service) Autofill(ctx context.Context, userID string) ([]string, error) {
	where := aito.M{}
	if userID != "" {
		where["user"] = userID
	}

	resp, err := s.engine.Predict(ctx, aito.Query{
		From:          aito.TableVisits,
		Where:         where,
		Predict:       "purchases",
		Exclusiveness: aito.Bool(false),
		Select:        []any{"$p", "$value"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch autofill: %w", err)
	}

	kept := hit.Filter(resp.Hits, s.autofill)
	ids := make([]string, 0, len(kept))
	for _, h := range kept {
		if v := h.String(hit.KeyValue); v != "" {
			ids = append(ids, v)
		}
	}
	return ids, nil
}

// SmartCart resolves autofill predictions into products, at most limit of them.
func (s *Service) SmartCart(ctx context.Context, userID string, limit int) ([]product.Product, error) {
	if limit <= 0 {
		limit = DefaultSmartCartSize
	}
	ids, err := s.Autofill(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []product.Product{}, nil
	}
	if len(ids) > limit {
		ids = ids[:limit]
	}
	products, err := s.products.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve predicted products: %w", err)
	}
	if len(products) > limit {
		products = products[:limit]
	}
	return products, nil
}
