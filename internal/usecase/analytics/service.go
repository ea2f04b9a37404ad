// Package analytics implements relation analysis and the admin dashboards.
package analytics

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/AitoDotAI/aito-demo/internal/domain"
	"github.com/AitoDotAI/aito-demo/internal/domain/hit"
	"github.com/AitoDotAI/aito-demo/internal/domain/product"
	"github.com/AitoDotAI/aito-demo/internal/transport/aito"
)

// Relation is a product statistically related to a field value.
type Relation struct {
	Lift  float64 `json:"lift"`
	Value string  `json:"value"`
}

// Count is a value with its frequency.
type Count struct {
	Value string  `json:"value"`
	Count float64 `json:"count"`
}

// ProductAnalytics groups the per-product relation and trend queries.
type ProductAnalytics struct {
	ProductLift []hit.Hit `json:"productLift"`
	UserTags    []hit.Hit `json:"userTags"`
	Basket      []hit.Hit `json:"basket"`
	QueryWords  []hit.Hit `json:"queryWords"`
	Weekly      []hit.Hit `json:"weekly"`
}

// Service runs analytics queries.
type Service struct {
	e Engine
}

// New creates an analytics service.
func New(e Engine) *Service {
	return &Service{e: e}
}

// Relate finds the purchases most lifted by field=value and names them. Relate order is kept.
func (s *Service) Relate(ctx context.Context, field string, value any) ([]Relation, error) {
	if strings.TrimSpace(field) == "" {
		return nil, fmt.Errorf("%w: field is required", domain.ErrInvalidRequest)
	}

	rel, err := s.e.Relate(ctx, aito.Query{
		From:   aito.TableVisits,
		Where:  aito.M{field: value},
		Relate: "purchases",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch relations: %w", err)
	}
	if len(rel.Hits) == 0 {
		return []Relation{}, nil
	}

	ids := make([]any, 0, len(rel.Hits))
	for _, h := range rel.Hits {
		ids = append(ids, relatedPurchase(h))
	}

	resp, err := s.e.Query(ctx, aito.Query{
		From:  aito.TableProducts,
		Where: aito.M{"id": aito.M{"$or": ids}},
		Limit: len(ids),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch related products: %w", err)
	}
	names := make(map[string]string, len(resp.Hits))
	for _, p := range product.FromHits(resp.Hits) {
		names[p.ID] = p.Name
	}

	out := make([]Relation, 0, len(rel.Hits))
	for _, h := range rel.Hits {
		id := relatedPurchase(h)
		name, ok := names[id]
		if !ok {
			name = id
		}
		out = append(out, Relation{Lift: h.Lift(), Value: name})
	}
	return out, nil
}

// SignificantRelations keeps relations whose lift clears hit.SignificantLift.
func SignificantRelations(rels []Relation) []Relation {
	out := make([]Relation, 0, len(rels))
	for _, r := range rels {
		if hit.SignificantLift.Pass(r.Lift) {
			out = append(out, r)
		}
	}
	return out
}

// ProductStats aggregates purchase totals and conversion for one product.
func (s *Service) ProductStats(ctx context.Context, id string) (hit.Hit, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: product id is required", domain.ErrInvalidRequest)
	}
	stats, err := s.e.Aggregate(ctx, aito.Query{
		From:      aito.TableImpressions,
		Where:     aito.M{"product.id": id},
		Aggregate: []any{"purchase.$sum", "purchase.$mean"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product stats: %w", err)
	}
	return stats, nil
}

// ProductAnalytics runs the five per-product queries in one batch.
func (s *Service) ProductAnalytics(ctx context.Context, id string) (*ProductAnalytics, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: product id is required", domain.ErrInvalidRequest)
	}
	purchased := aito.M{"purchases": aito.M{"$has": id}}
	sumPurchase := aito.M{"$sum": aito.M{"$context": "purchase"}}

	res, err := s.e.Batch(ctx,
		aito.Query{
			From:   aito.TableImpressions,
			Where:  aito.M{"purchase": true},
			Relate: aito.M{"product": id},
			Select: []any{"lift", "related"},
		},
		aito.Query{
			From:   aito.TableVisits,
			Where:  purchased,
			Relate: "user.tags",
			Select: []any{"lift", "related"},
		},
		aito.Query{
			From:   aito.TableVisits,
			Where:  purchased,
			Relate: "purchases",
			Select: []any{"lift", "related"},
		},
		aito.Query{
			From:    aito.TableImpressions,
			Where:   aito.M{"product.id": id},
			Get:     "context.queryPhrase",
			OrderBy: sumPurchase,
			Select:  []any{"$score", "$value"},
		},
		aito.Query{
			From:   aito.TableImpressions,
			Where:  aito.M{"product.id": id},
			Get:    "context.week",
			Select: []any{"$value", "$f", sumPurchase, aito.M{"$mean": aito.M{"$context": "purchase"}}},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product analytics: %w", err)
	}
	return &ProductAnalytics{
		ProductLift: res[0].Hits,
		UserTags:    res[1].Hits,
		Basket:      res[2].Hits,
		QueryWords:  res[3].Hits,
		Weekly:      res[4].Hits,
	}, nil
}

func relatedPurchase(h hit.Hit) string {
	v, ok := h.Path(hit.KeyRelated, "purchases", "$has")
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func counts(hits []hit.Hit) []Count {
	out := make([]Count, 0, len(hits))
	for _, h := range hits {
		out = append(out, Count{Value: label(h), Count: h.Frequency()})
	}
	return out
}

// label names a hit from get queries. Linked rows without an id fall back to their name.
func label(h hit.Hit) string {
	if l := h.Label(); l != "" {
		return l
	}
	if n := h.String("Name"); n != "" {
		return n
	}
	return h.String("name")
}

func total(cs []Count) float64 {
	var sum float64
	for _, c := range cs {
		sum += c.Count
	}
	return sum
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
