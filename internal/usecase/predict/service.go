// Package predict implements tag suggestions and invoice routing predictions.
package predict

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/AitoDotAI/aito-demo/internal/domain"
	"github.com/AitoDotAI/aito-demo/internal/domain/hit"
	"github.com/AitoDotAI/aito-demo/internal/transport/aito"
)

const (
	tagLimit     = 10
	invoiceLimit = 10
)

// Invoice outputs and the fields selected for each.
var invoiceFields = map[string][]string{
	"Processor": {"Name", "Role", "Department", "Superior"},
	"Acceptor":  {"Name", "Role", "Department", "Superior"},
	"GLCode":    {"Name", "GLCode", "Department"},
}

// InvoiceOutputs lists the predictable invoice fields in display order.
func InvoiceOutputs() []string {
	return []string{"Processor", "Acceptor", "GLCode"}
}

// Service handles predictions.
type Service struct {
	p Predictor
}

// New creates a predict service.
func New(p Predictor) *Service {
	return &Service{p: p}
}

// TagSuggestions predicts tags for a product name, keeping confident ones.
func (s *Service) TagSuggestions(ctx context.Context, name string) ([]string, error) {
	if strings.TrimSpace(name) == "" {
		return []string{}, nil
	}
	resp, err := s.p.Predict(ctx, aito.Query{
		From:          aito.TableProducts,
		Where:         aito.M{"name": name},
		Predict:       "tags",
		Exclusiveness: aito.Bool(false),
		Limit:         tagLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tag suggestions: %w", err)
	}
	return hit.Labels(hit.Filter(resp.Hits, hit.TagSuggestion)), nil
}

// Invoice predicts each requested output for the invoice in parallel.
// The result maps output name to its ranked hits.
func (s *Service) Invoice(ctx context.Context, input map[string]any, outputs []string) (map[string][]hit.Hit, error) {
	if len(outputs) == 0 {
		outputs = InvoiceOutputs()
	}
	for _, o := range outputs {
		if _, ok := invoiceFields[o]; !ok {
			return nil, fmt.Errorf("%w: unknown invoice output %q", domain.ErrInvalidRequest, o)
		}
	}

	results := make([][]hit.Hit, len(outputs))
	g, gctx := errgroup.WithContext(ctx)
	for i, output := range outputs {
		g.Go(func() error {
			resp, err := s.p.Predict(gctx, invoiceQuery(input, output))
			if err != nil {
				return fmt.Errorf("predict %s: %w", output, err)
			}
			results[i] = resp.Hits
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to predict invoice fields: %w", err)
	}

	out := make(map[string][]hit.Hit, len(outputs))
	for i, o := range outputs {
		out[o] = results[i]
	}
	return out, nil
}

func invoiceQuery(input map[string]any, output string) aito.Query {
	sel := []any{
		"$p",
		aito.M{"$why": aito.M{"highlight": aito.M{"posPreTag": "<b>", "posPostTag": "</b>"}}},
	}
	for _, f := range invoiceFields[output] {
		sel = append(sel, f)
	}
	return aito.Query{
		From:    aito.TableInvoices,
		Where:   input,
		Predict: output,
		Select:  sel,
		Limit:   invoiceLimit,
	}
}
