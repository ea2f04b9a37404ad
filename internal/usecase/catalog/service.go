// Package catalog implements product search, autocomplete and lookups.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/AitoDotAI/aito-demo/internal/domain"
	"github.com/AitoDotAI/aito-demo/internal/domain/hit"
	"github.com/AitoDotAI/aito-demo/internal/domain/persona"
	"github.com/AitoDotAI/aito-demo/internal/domain/product"
	"github.com/AitoDotAI/aito-demo/internal/transport/aito"
)

const (
	searchLimit          = 5
	defaultProductsLimit = 100
)

// SearchHit is a product search result with the matched text highlights.
type SearchHit struct {
	product.Product
	Matches any `json:"$matches,omitempty"`
}

// Suggestion is an autocomplete candidate.
type Suggestion struct {
	Value       string  `json:"value"`
	Probability float64 `json:"probability"`
}

// Answer is the closest known question with its answer.
type Answer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Service handles catalog reads.
type Service struct {
	q      Querier
	logger *zap.Logger
}

// New creates a catalog service.
func New(q Querier, logger *zap.Logger) *Service {
	return &Service{q: q, logger: logger}
}

// Search finds products by tag or name, personalized by the user's purchase history.
func (s *Service) Search(ctx context.Context, userID, query string) ([]SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []SearchHit{}, nil
	}

	where := aito.M{
		"product": aito.M{
			"$or": []any{
				aito.M{"tags": aito.M{"$match": query}},
				aito.M{"name": aito.M{"$match": query}},
			},
		},
	}
	if userID != "" {
		where["context.user"] = userID
	}

	resp, err := s.q.Query(ctx, aito.Query{
		From:  aito.TableImpressions,
		Where: where,
		Get:   "product",
		OrderBy: aito.M{
			"$multiply": []any{
				"$similarity",
				aito.M{"$p": aito.M{"$context": aito.M{"purchase": true}}},
			},
		},
		Select: []any{"name", "id", "tags", "price", "$matches"},
		Limit:  searchLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch search results: %w", err)
	}

	out := make([]SearchHit, 0, len(resp.Hits))
	for _, h := range resp.Hits {
		p := product.FromHit(h)
		if p.ID == "" {
			continue
		}
		out = append(out, SearchHit{Product: p, Matches: h["$matches"]})
	}
	return out, nil
}

// Autocomplete suggests query phrases starting with prefix, most likely first.
func (s *Service) Autocomplete(ctx context.Context, userID, prefix string) ([]Suggestion, error) {
	where := aito.M{}
	if prefix != "" {
		where["queryPhrase"] = aito.M{"$startsWith": prefix}
	}
	if userID != "" {
		where["user"] = userID
	}

	resp, err := s.q.Query(ctx, aito.Query{
		From:    aito.TableContexts,
		Where:   where,
		Get:     "queryPhrase",
		OrderBy: "$p",
		Select:  []any{"$p", "$value"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch autocomplete: %w", err)
	}

	out := make([]Suggestion, 0, len(resp.Hits))
	for _, h := range resp.Hits {
		v := h.String(hit.KeyValue)
		if v == "" {
			continue
		}
		out = append(out, Suggestion{Value: v, Probability: h.Probability()})
	}
	return out, nil
}

// ProductsByIDs resolves product ids. Unknown ids are skipped.
func (s *Service) ProductsByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	if len(ids) == 0 {
		return []product.Product{}, nil
	}
	or := make([]any, len(ids))
	for i, id := range ids {
		or[i] = id
	}

	resp, err := s.q.Query(ctx, aito.Query{
		From:  aito.TableProducts,
		Where: aito.M{"id": aito.M{"$or": or}},
		Limit: len(ids),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	return product.FromHits(resp.Hits), nil
}

// Product returns one product by id.
func (s *Service) Product(ctx context.Context, id string) (product.Product, error) {
	if id == "" {
		return product.Product{}, fmt.Errorf("%w: product id is required", domain.ErrInvalidRequest)
	}
	resp, err := s.q.Query(ctx, aito.Query{
		From:  aito.TableProducts,
		Where: aito.M{"id": id},
		Limit: 1,
	})
	if err != nil {
		return product.Product{}, fmt.Errorf("failed to fetch product: %w", err)
	}
	products := product.FromHits(resp.Hits)
	if len(products) == 0 {
		return product.Product{}, fmt.Errorf("product %q: %w", id, domain.ErrNotFound)
	}
	return products[0], nil
}

// Products lists the catalog. limit <= 0 uses the default of 100.
func (s *Service) Products(ctx context.Context, limit int) ([]product.Product, error) {
	if limit <= 0 {
		limit = defaultProductsLimit
	}
	resp, err := s.q.Query(ctx, aito.Query{From: aito.TableProducts, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	return product.FromHits(resp.Hits), nil
}

// DistinctValues lists the values of a visits field, most common first.
// Failures are logged and yield an empty list.
func (s *Service) DistinctValues(ctx context.Context, field string) []string {
	if field == "user.id" {
		return persona.IDs()
	}

	resp, err := s.q.Query(ctx, aito.Query{
		From:    aito.TableVisits,
		Get:     field,
		OrderBy: "$p",
		Select:  []any{"$value"},
	})
	if err != nil {
		s.logger.Warn("Failed to fetch distinct values", zap.String("field", field), zap.Error(err))
		return []string{}
	}

	out := make([]string, 0, len(resp.Hits))
	for _, h := range resp.Hits {
		if !h.Has(hit.KeyValue) {
			continue
		}
		out = append(out, h.String(hit.KeyValue))
	}
	return out
}

// Answer finds the nearest known question. Returns nil when there is none.
func (s *Service) Answer(ctx context.Context, question string) (*Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: question is required", domain.ErrInvalidRequest)
	}
	resp, err := s.q.Query(ctx, aito.Query{
		From:    aito.TableQuestions,
		Where:   aito.M{"$nn": []any{aito.M{"question": question}}},
		OrderBy: aito.M{"$sameness": aito.M{"question": question}},
		Select:  []any{"question", "answer.answer"},
		Limit:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch answer: %w", err)
	}
	if len(resp.Hits) == 0 {
		return nil, nil //nolint:nilnil // no match is not an error
	}
	h := resp.Hits[0]
	return &Answer{Question: h.String("question"), Answer: h.Linked("answer.answer")}, nil
}
