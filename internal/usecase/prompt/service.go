// Package prompt classifies free-text customer messages and extracts routing details.
package prompt

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/AitoDotAI/aito-demo/internal/domain"
	"github.com/AitoDotAI/aito-demo/internal/domain/hit"
	"github.com/AitoDotAI/aito-demo/internal/transport/aito"
)

// Prompt types.
const (
	TypeQuestion = "question"
	TypeFeedback = "feedback"
	TypeRequest  = "request"
)

// Analysis is the outcome of Analyze. Type is nil when the message could not be classified.
type Analysis struct {
	Type *string `json:"type"`

	// question
	Prompt string `json:"prompt,omitempty"`
	Answer string `json:"answer,omitempty"`

	// feedback
	Sentiment  string `json:"sentiment,omitempty"`
	Categories string `json:"categories,omitempty"`
	Tags       string `json:"tags,omitempty"`

	// request; Categories is shared with feedback
	Assignee string `json:"assignee,omitempty"`
	Urgency  string `json:"urgency,omitempty"`
}

// TypeName returns the type or "" when unclassified.
func (a Analysis) TypeName() string {
	if a.Type == nil {
		return ""
	}
	return *a.Type
}

func typed(t string) Analysis {
	return Analysis{Type: &t}
}

// Service analyzes prompts.
type Service struct {
	e Engine
}

// New creates a prompt service.
func New(e Engine) *Service {
	return &Service{e: e}
}

// Analyze classifies text and, for known types, fills in the type-specific fields.
func (s *Service) Analyze(ctx context.Context, text string) (Analysis, error) {
	if strings.TrimSpace(text) == "" {
		return Analysis{}, fmt.Errorf("%w: prompt is required", domain.ErrInvalidRequest)
	}

	resp, err := s.e.Predict(ctx, aito.Query{
		From:    aito.TablePrompts,
		Where:   aito.M{"prompt": text},
		Predict: "type",
		Limit:   1,
	})
	if err != nil {
		return Analysis{}, fmt.Errorf("failed to classify prompt: %w", err)
	}
	top, ok := first(resp)
	if !ok || !hit.PromptType.Pass(top.Probability()) {
		return Analysis{}, nil
	}

	switch top.Label() {
	case TypeQuestion:
		return s.question(ctx, text)
	case TypeFeedback:
		return s.feedback(ctx, text)
	case TypeRequest:
		return s.request(ctx, text)
	default:
		return Analysis{}, nil
	}
}

func (s *Service) question(ctx context.Context, text string) (Analysis, error) {
	resp, err := s.e.Query(ctx, aito.Query{
		From:    aito.TablePrompts,
		Where:   aito.M{"$nn": []any{aito.M{"prompt": text}}},
		OrderBy: aito.M{"$sameness": aito.M{"prompt": text}},
		Select:  []any{"prompt", "type", "answer.answer"},
		Limit:   1,
	})
	if err != nil {
		return Analysis{}, fmt.Errorf("failed to fetch answer: %w", err)
	}
	out := typed(TypeQuestion)
	if h, ok := first(resp); ok {
		out.Prompt = h.String("prompt")
		out.Answer = h.Linked("answer.answer")
	}
	return out, nil
}

func (s *Service) feedback(ctx context.Context, text string) (Analysis, error) {
	fields := []string{"sentiment", "categories.$feature", "tags"}
	tops := make([]hit.Hit, len(fields))

	g, gctx := errgroup.WithContext(ctx)
	for i, field := range fields {
		g.Go(func() error {
			resp, err := s.e.Predict(gctx, aito.Query{
				From:    aito.TablePrompts,
				Where:   aito.M{"prompt": text, "type": TypeFeedback},
				Predict: field,
				Limit:   1,
			})
			if err != nil {
				return fmt.Errorf("predict %s: %w", field, err)
			}
			tops[i], _ = first(resp)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Analysis{}, fmt.Errorf("failed to analyze feedback: %w", err)
	}

	out := typed(TypeFeedback)
	for i, field := range fields {
		if tops[i] == nil || !hit.FeedbackField.Pass(tops[i].Probability()) {
			continue
		}
		v := tops[i].Label()
		switch strings.SplitN(field, ".", 2)[0] {
		case "sentiment":
			out.Sentiment = v
		case "categories":
			out.Categories = v
		case "tags":
			out.Tags = v
		}
	}
	return out, nil
}

func (s *Service) request(ctx context.Context, text string) (Analysis, error) {
	var assignee, categories, urgency hit.Hit

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		resp, err := s.e.Query(gctx, aito.Query{
			From:    aito.TablePrompts,
			Where:   aito.M{"prompt": text, "type": TypeRequest},
			Get:     "assignee",
			OrderBy: "$p",
			Limit:   1,
		})
		if err != nil {
			return fmt.Errorf("query assignee: %w", err)
		}
		assignee, _ = first(resp)
		return nil
	})
	g.Go(func() error {
		resp, err := s.e.Predict(gctx, aito.Query{
			From:          aito.Query{From: aito.TablePrompts, Where: aito.M{"type": TypeRequest}},
			Where:         aito.M{"prompt": text},
			Predict:       "categories",
			Exclusiveness: aito.Bool(false),
			Limit:         1,
		})
		if err != nil {
			return fmt.Errorf("predict categories: %w", err)
		}
		categories, _ = first(resp)
		return nil
	})
	g.Go(func() error {
		resp, err := s.e.Predict(gctx, aito.Query{
			From:    aito.TablePrompts,
			Where:   aito.M{"prompt": text, "type": TypeRequest},
			Predict: "urgency",
			Limit:   1,
		})
		if err != nil {
			return fmt.Errorf("predict urgency: %w", err)
		}
		urgency, _ = first(resp)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Analysis{}, fmt.Errorf("failed to analyze request: %w", err)
	}

	out := typed(TypeRequest)
	if assignee != nil && hit.RequestField.Pass(assignee.Probability()) {
		out.Assignee = fmt.Sprintf("%s (%s)", assignee.String("Name"), assignee.String("Role"))
	}
	if categories != nil && hit.RequestField.Pass(categories.Probability()) {
		out.Categories = categories.Label()
	}
	if urgency != nil && hit.RequestField.Pass(urgency.Probability()) {
		out.Urgency = urgency.Label()
	}
	return out, nil
}

func first(resp *aito.Response) (hit.Hit, bool) {
	if resp == nil || len(resp.Hits) == 0 {
		return nil, false
	}
	return resp.Hits[0], true
}
