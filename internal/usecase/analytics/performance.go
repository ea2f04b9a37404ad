package analytics

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/AitoDotAI/aito-demo/internal/domain/hit"
	"github.com/AitoDotAI/aito-demo/internal/domain/product"
	"github.com/AitoDotAI/aito-demo/internal/transport/aito"
)

// Performance is product performance for one product, one category or the whole catalog.
// Exactly one of Product, Category or Overall is set.
type Performance struct {
	Product  *ProductAnalytics `json:"product,omitempty"`
	Category *CategoryReport   `json:"category,omitempty"`
	Overall  *Overall          `json:"overall,omitempty"`
}

// CategoryReport lists products of a category.
type CategoryReport struct {
	Category     string            `json:"category"`
	ProductCount int               `json:"productCount"`
	Products     []product.Product `json:"products"`
}

// Overall ranks purchased products and categories.
type Overall struct {
	TotalProducts     float64        `json:"totalProducts"`
	TopPerformers     []ProductSales `json:"topPerformers"`
	CategoryBreakdown []Count        `json:"categoryBreakdown"`
}

const categoryProductLimit = 10

// ProductPerformance dispatches on which argument is set: productID, then category, then overall.
func (s *Service) ProductPerformance(ctx context.Context, productID, category string) (*Performance, error) {
	switch {
	case productID != "":
		pa, err := s.ProductAnalytics(ctx, productID)
		if err != nil {
			return nil, err
		}
		return &Performance{Product: pa}, nil
	case category != "":
		resp, err := s.e.Query(ctx, aito.Query{
			From:   aito.TableProducts,
			Where:  aito.M{"category": category},
			Select: []any{"id", "name", "price", "tags", "category"},
			Limit:  categoryProductLimit,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch category products: %w", err)
		}
		products := product.FromHits(resp.Hits)
		return &Performance{Category: &CategoryReport{
			Category:     category,
			ProductCount: resp.Total,
			Products:     products,
		}}, nil
	default:
		return s.overall(ctx)
	}
}

func (s *Service) overall(ctx context.Context) (*Performance, error) {
	purchased := aito.M{"purchase": true}
	var (
		batch []aito.Response
		agg   hit.Hit
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		batch, err = s.e.Batch(gctx,
			aito.Query{From: aito.TableImpressions, Where: purchased, Get: "product", OrderBy: "$f", Limit: 5},
			aito.Query{From: aito.TableImpressions, Where: purchased, Get: "product.category", OrderBy: "$f", Limit: 10},
		)
		return err
	})
	g.Go(func() error {
		var err error
		agg, err = s.e.Aggregate(gctx, aito.Query{From: aito.TableProducts, Aggregate: aito.M{"totalProducts": "$f"}})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to fetch product performance: %w", err)
	}

	o := &Overall{CategoryBreakdown: counts(batch[1].Hits)}
	o.TotalProducts, _ = agg.Float("totalProducts")
	o.TopPerformers = make([]ProductSales, 0, len(batch[0].Hits))
	for _, h := range batch[0].Hits {
		p := product.FromHit(h)
		o.TopPerformers = append(o.TopPerformers, ProductSales{Name: p.Name, Frequency: h.Frequency(), Price: p.Price})
	}
	return &Performance{Overall: o}, nil
}
