package analytics

import (
	"context"
	"fmt"

	"github.com/AitoDotAI/aito-demo/internal/domain/hit"
	"github.com/AitoDotAI/aito-demo/internal/transport/aito"
)

// SupportInsights summarizes the customer support prompts.
type SupportInsights struct {
	TotalTickets        float64   `json:"totalTickets"`
	TicketDistribution  []Count   `json:"ticketDistribution"`
	SentimentBreakdown  []Count   `json:"sentimentBreakdown"`
	UrgencyDistribution []Count   `json:"urgencyDistribution"`
	Satisfaction        float64   `json:"customerSatisfaction"` // 0..5
	HighPriority        []hit.Hit `json:"highPriorityIssues"`
	AssigneeWorkload    []Count   `json:"assigneeWorkload"`
}

// SupportInsights reports ticket types, sentiment, urgency and assignee workload.
func (s *Service) SupportInsights(ctx context.Context) (*SupportInsights, error) {
	res, err := s.e.Batch(ctx,
		aito.Query{From: aito.TablePrompts, Get: "type", OrderBy: "$f", Limit: 10},
		aito.Query{
			From: aito.TablePrompts, Where: aito.M{"sentiment": aito.M{"$not": nil}},
			Get: "sentiment", OrderBy: "$f", Limit: 10,
		},
		aito.Query{
			From: aito.TablePrompts, Where: aito.M{"urgency": aito.M{"$not": nil}},
			Get: "urgency", OrderBy: "$f", Limit: 10,
		},
		aito.Query{
			From:   aito.TablePrompts,
			Where:  aito.M{"urgency": "high"},
			Select: []any{"prompt", "type", "categories", "assignee"},
			Limit:  5,
		},
		aito.Query{
			From: aito.TablePrompts, Where: aito.M{"assignee": aito.M{"$defined": true}},
			Get: "assignee", OrderBy: "$f", Limit: 5,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch support insights: %w", err)
	}

	types := counts(res[0].Hits)
	sentiments := counts(res[1].Hits)
	return &SupportInsights{
		TotalTickets:        total(types),
		TicketDistribution:  types,
		SentimentBreakdown:  sentiments,
		UrgencyDistribution: counts(res[2].Hits),
		Satisfaction:        satisfaction(sentiments),
		HighPriority:        res[3].Hits,
		AssigneeWorkload:    counts(res[4].Hits),
	}, nil
}

// satisfaction scales the positive share of sentiments to 0..5.
func satisfaction(sentiments []Count) float64 {
	all := total(sentiments)
	if all <= 0 {
		return 0
	}
	var positive float64
	for _, c := range sentiments {
		if c.Value == "positive" {
			positive += c.Count
		}
	}
	return round(positive/all*5, 1)
}
