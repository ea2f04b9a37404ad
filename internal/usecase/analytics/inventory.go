package analytics

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/AitoDotAI/aito-demo/internal/domain/hit"
	"github.com/AitoDotAI/aito-demo/internal/domain/product"
	"github.com/AitoDotAI/aito-demo/internal/transport/aito"
)

const inventoryListSize = 5

// StockItem is a product flagged by demand analysis.
type StockItem struct {
	product.Product
	DemandScore *float64 `json:"demandScore,omitempty"`
	TotalViews  float64  `json:"totalViews,omitempty"`
	Reason      string   `json:"reason"`
}

// Inventory summarizes demand across the catalog.
type Inventory struct {
	PotentialOverstock []StockItem `json:"potentialOverstock"`
	HighDemand         []StockItem `json:"highDemandItems"`
	LowConversion      []StockItem `json:"lowConversionItems"`
	TotalItems         float64     `json:"totalItems"`
	TotalValue         float64     `json:"totalValue"`
	AveragePrice       float64     `json:"averagePrice"`
}

// InventoryInsights ranks products by purchase probability and aggregates catalog prices.
func (s *Service) InventoryInsights(ctx context.Context) (*Inventory, error) {
	purchaseP := aito.M{"$p": aito.M{"$context": aito.M{"purchase": true}}}

	var (
		batch []aito.Response
		agg   hit.Hit
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		batch, err = s.e.Batch(gctx,
			aito.Query{
				From:    aito.TableImpressions,
				Get:     "product",
				OrderBy: aito.M{"$asc": purchaseP},
				Select:  []any{"id", "name", "price", aito.M{"demandScore": "$score"}},
				Limit:   inventoryListSize,
			},
			aito.Query{
				From:    aito.TableImpressions,
				Get:     "product",
				OrderBy: purchaseP,
				Select:  []any{"id", "name", "price", aito.M{"demandScore": "$score", "totalViews": "$f"}},
				Limit:   inventoryListSize,
			},
			aito.Query{
				From:   aito.TableImpressions,
				Where:  aito.M{"purchase": false},
				Get:    "product",
				Select: []any{"id", "name", "price"},
				Limit:  inventoryListSize,
			},
		)
		return err
	})
	g.Go(func() error {
		var err error
		agg, err = s.e.Aggregate(gctx, aito.Query{
			From: aito.TableProducts,
			Aggregate: aito.M{
				"totalValue":    "price.$sum",
				"averagePrice":  "price.$mean",
				"totalProducts": "$f",
			},
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to fetch inventory insights: %w", err)
	}

	inv := &Inventory{
		PotentialOverstock: stockItems(batch[0].Hits, "Low purchase probability"),
		HighDemand:         stockItems(batch[1].Hits, "High purchase probability - monitor stock"),
		LowConversion:      stockItems(batch[2].Hits, "High visibility, low conversion"),
	}
	inv.TotalItems, _ = agg.Float("totalProducts")
	inv.TotalValue, _ = agg.Float("totalValue")
	inv.AveragePrice, _ = agg.Float("averagePrice")
	inv.TotalValue = round(inv.TotalValue, 2)
	inv.AveragePrice = round(inv.AveragePrice, 2)
	return inv, nil
}

func stockItems(hits []hit.Hit, reason string) []StockItem {
	out := make([]StockItem, 0, len(hits))
	for _, h := range hits {
		item := StockItem{Product: product.FromHit(h), Reason: reason}
		if v, ok := h.Float("demandScore"); ok {
			v = round(v, 3)
			item.DemandScore = &v
		}
		item.TotalViews, _ = h.Float("totalViews")
		out = append(out, item)
	}
	return out
}
