package analytics

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/AitoDotAI/aito-demo/internal/domain"
	"github.com/AitoDotAI/aito-demo/internal/domain/hit"
	"github.com/AitoDotAI/aito-demo/internal/domain/product"
	"github.com/AitoDotAI/aito-demo/internal/transport/aito"
)

// Report kinds.
const (
	ReportOverview  = "overview"
	ReportSales     = "sales"
	ReportCustomers = "customers"
)

// Revenue aggregates purchased product prices.
type Revenue struct {
	Total        float64 `json:"total"`
	AverageOrder float64 `json:"averageOrder"`
	TotalOrders  float64 `json:"totalOrders"`
}

// ProductSales is a product with its purchase frequency.
type ProductSales struct {
	Name      string  `json:"name"`
	Frequency float64 `json:"salesFrequency"`
	Price     float64 `json:"price"`
}

// CustomerReport covers segments and the most active purchasers.
type CustomerReport struct {
	ActiveCustomers int     `json:"activeCustomers"`
	TotalPurchases  float64 `json:"totalPurchases"`
	TopCustomers    []Count `json:"topCustomers"`
	Segmentation    []Count `json:"segmentation"`
}

// Report is a business report. Sections not requested by Kind are nil.
type Report struct {
	Kind            string             `json:"reportType"`
	Revenue         *Revenue           `json:"revenue,omitempty"`
	TopProducts     []ProductSales     `json:"topProducts,omitempty"`
	SalesByCategory map[string]float64 `json:"salesByCategory,omitempty"`
	WeeklyTrends    []Count            `json:"weeklyTrends,omitempty"`
	Customers       *CustomerReport    `json:"customers,omitempty"`
}

// BusinessReport builds the sales and customer sections for kind.
// All section queries share one batch; each section's aggregate runs alongside it.
func (s *Service) BusinessReport(ctx context.Context, kind string) (*Report, error) {
	if kind == "" {
		kind = ReportOverview
	}
	var sales, customers bool
	switch kind {
	case ReportOverview:
		sales, customers = true, true
	case ReportSales:
		sales = true
	case ReportCustomers:
		customers = true
	default:
		return nil, fmt.Errorf("%w: unknown report type %q", domain.ErrInvalidRequest, kind)
	}

	purchased := aito.M{"purchase": true}
	var queries []aito.Query
	if sales {
		queries = append(queries,
			aito.Query{From: aito.TableImpressions, Where: purchased, Get: "product", OrderBy: "$f", Limit: 5},
			aito.Query{From: aito.TableImpressions, Where: purchased, Get: "product.category", OrderBy: "$f", Limit: 5},
			aito.Query{From: aito.TableVisits, Get: "week", OrderBy: "$f", Limit: 4},
		)
	}
	if customers {
		queries = append(queries,
			aito.Query{From: aito.TableUsers, Get: "tags", OrderBy: "$f", Limit: 10},
			aito.Query{From: aito.TableImpressions, Where: purchased, Get: "context.user", OrderBy: "$f", Limit: 10},
		)
	}

	var (
		batch              []aito.Response
		revenue, purchases hit.Hit
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		batch, err = s.e.Batch(gctx, queries...)
		return err
	})
	if sales {
		g.Go(func() error {
			var err error
			revenue, err = s.e.Aggregate(gctx, aito.Query{
				From:  aito.TableImpressions,
				Where: purchased,
				Aggregate: aito.M{
					"meanPrice":  "product.price.$mean",
					"totalPrice": "product.price.$sum",
					"purchases":  "$f",
				},
			})
			return err
		})
	}
	if customers {
		g.Go(func() error {
			var err error
			purchases, err = s.e.Aggregate(gctx, aito.Query{
				From:      aito.TableImpressions,
				Where:     purchased,
				Aggregate: aito.M{"totalCustomerPurchases": "$f"},
			})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to generate %s report: %w", kind, err)
	}

	r := &Report{Kind: kind}
	rest := batch
	if sales {
		r.Revenue = &Revenue{}
		r.Revenue.Total, _ = revenue.Float("totalPrice")
		r.Revenue.AverageOrder, _ = revenue.Float("meanPrice")
		r.Revenue.TotalOrders, _ = revenue.Float("purchases")
		r.Revenue.Total = round(r.Revenue.Total, 2)
		r.Revenue.AverageOrder = round(r.Revenue.AverageOrder, 2)

		r.TopProducts = make([]ProductSales, 0, len(rest[0].Hits))
		for _, h := range rest[0].Hits {
			p := product.FromHit(h)
			name := p.Name
			if name == "" {
				name = "Product"
			}
			r.TopProducts = append(r.TopProducts, ProductSales{Name: name, Frequency: h.Frequency(), Price: p.Price})
		}
		r.SalesByCategory = make(map[string]float64, len(rest[1].Hits))
		for _, c := range counts(rest[1].Hits) {
			r.SalesByCategory[c.Value] = c.Count
		}
		r.WeeklyTrends = counts(rest[2].Hits)
		rest = rest[3:]
	}
	if customers {
		top := counts(rest[1].Hits)
		bought, _ := purchases.Float("totalCustomerPurchases")
		r.Customers = &CustomerReport{
			ActiveCustomers: len(top),
			TotalPurchases:  bought,
			TopCustomers:    top,
			Segmentation:    counts(rest[0].Hits),
		}
	}
	return r, nil
}
