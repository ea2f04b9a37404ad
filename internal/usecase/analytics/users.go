package analytics

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/AitoDotAI/aito-demo/internal/domain"
	"github.com/AitoDotAI/aito-demo/internal/domain/hit"
	"github.com/AitoDotAI/aito-demo/internal/transport/aito"
)

// Timeframes accepted by UserAnalytics.
const (
	TimeframeDay     = "day"
	TimeframeWeek    = "week"
	TimeframeMonth   = "month"
	TimeframeQuarter = "quarter"
)

const activeVisitsLimit = 1000

// UserActivity is one of the most frequent visitors.
type UserActivity struct {
	ID             string  `json:"id"`
	VisitFrequency float64 `json:"visitFrequency"`
	Purchases      float64 `json:"purchases"`
}

// UserAnalytics summarizes visitor and purchase behaviour.
type UserAnalytics struct {
	Timeframe      string         `json:"timeframe"`
	ActiveUsers    int            `json:"activeUsers"`
	TopUsers       []UserActivity `json:"topUsers"`
	ConversionRate float64        `json:"conversionRate"`
	TotalPurchases float64        `json:"totalPurchases"`
	Impressions    float64        `json:"impressions"`
}

// UserAnalytics reports top visitors, top purchasers and overall conversion.
func (s *Service) UserAnalytics(ctx context.Context, timeframe string) (*UserAnalytics, error) {
	if timeframe == "" {
		timeframe = TimeframeWeek
	}
	var where any
	switch timeframe {
	case TimeframeWeek:
		where = aito.M{"week": aito.M{"$gte": 0}}
	case TimeframeMonth:
		where = aito.M{"month": aito.M{"$gte": 0}}
	case TimeframeDay, TimeframeQuarter:
	default:
		return nil, fmt.Errorf("%w: unknown timeframe %q", domain.ErrInvalidRequest, timeframe)
	}

	var (
		batch []aito.Response
		agg   hit.Hit
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		batch, err = s.e.Batch(gctx,
			aito.Query{From: aito.TableVisits, Where: where, Get: "user", OrderBy: "$f", Limit: 10},
			aito.Query{
				From: aito.TableImpressions, Where: aito.M{"purchase": true},
				Get: "context.user", OrderBy: "$f", Limit: 5,
			},
			aito.Query{From: aito.TableVisits, Where: where, Select: []any{"user"}, Limit: activeVisitsLimit},
		)
		return err
	})
	g.Go(func() error {
		var err error
		agg, err = s.e.Aggregate(gctx, aito.Query{
			From: aito.TableImpressions,
			Aggregate: aito.M{
				"conversion":  "purchase.$mean",
				"purchases":   "purchase.$sum",
				"impressions": "$f",
			},
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to fetch user analytics: %w", err)
	}

	purchases := make(map[string]float64, len(batch[1].Hits))
	for _, c := range counts(batch[1].Hits) {
		purchases[c.Value] = c.Count
	}
	top := make([]UserActivity, 0, len(batch[0].Hits))
	for _, c := range counts(batch[0].Hits) {
		top = append(top, UserActivity{ID: c.Value, VisitFrequency: c.Count, Purchases: purchases[c.Value]})
	}

	active := map[string]struct{}{}
	for _, h := range batch[2].Hits {
		if u := h.String("user"); u != "" {
			active[u] = struct{}{}
		}
	}

	conversion, _ := agg.Float("conversion")
	bought, _ := agg.Float("purchases")
	impressions, _ := agg.Float("impressions")
	return &UserAnalytics{
		Timeframe:      timeframe,
		ActiveUsers:    len(active),
		TopUsers:       top,
		ConversionRate: round(conversion, 3),
		TotalPurchases: bought,
		Impressions:    impressions,
	}, nil
}
