package chat

import (
	"context"
	"encoding/json"

	domchat "github.com/AitoDotAI/aito-demo/internal/domain/chat"
	"github.com/AitoDotAI/aito-demo/internal/domain/hit"
	"github.com/AitoDotAI/aito-demo/internal/domain/product"
	"github.com/AitoDotAI/aito-demo/internal/domain/session"
	"github.com/AitoDotAI/aito-demo/internal/transport/aito"
	"github.com/AitoDotAI/aito-demo/internal/usecase/analytics"
	"github.com/AitoDotAI/aito-demo/internal/usecase/catalog"
	"github.com/AitoDotAI/aito-demo/internal/usecase/prompt"
)

// Completer produces the next assistant message for a reconciled context.
type Completer interface {
	Complete(ctx context.Context, msgs []domchat.Message, tools []domchat.ToolDefinition) (domchat.Message, error)
}

// SessionStore persists sessions.
type SessionStore interface {
	Get(ctx context.Context, id string) (*session.Session, error)
	Save(ctx context.Context, s *session.Session) error
	Delete(ctx context.Context, id string) error
}

// Catalog searches and resolves products.
type Catalog interface {
	Search(ctx context.Context, userID, query string) ([]catalog.SearchHit, error)
	Autocomplete(ctx context.Context, userID, prefix string) ([]catalog.Suggestion, error)
	ProductsByIDs(ctx context.Context, ids []string) ([]product.Product, error)
}

// Recommender produces personalized product lists.
type Recommender interface {
	Recommend(ctx context.Context, userID string, cartIDs []string, count int) ([]product.Product, error)
	Autofill(ctx context.Context, userID string) ([]string, error)
	SmartCart(ctx context.Context, userID string, limit int) ([]product.Product, error)
}

// Predictor predicts product tags and invoice routing.
type Predictor interface {
	TagSuggestions(ctx context.Context, name string) ([]string, error)
	Invoice(ctx context.Context, input map[string]any, outputs []string) (map[string][]hit.Hit, error)
}

// PromptAnalyzer classifies free-text customer messages.
type PromptAnalyzer interface {
	Analyze(ctx context.Context, text string) (prompt.Analysis, error)
}

// Analytics serves the admin dashboards.
type Analytics interface {
	Relate(ctx context.Context, field string, value any) ([]analytics.Relation, error)
	UserAnalytics(ctx context.Context, timeframe string) (*analytics.UserAnalytics, error)
	ProductPerformance(ctx context.Context, productID, category string) (*analytics.Performance, error)
	InventoryInsights(ctx context.Context) (*analytics.Inventory, error)
	SupportInsights(ctx context.Context) (*analytics.SupportInsights, error)
	BusinessReport(ctx context.Context, kind string) (*analytics.Report, error)
}

// RawQuerier sends arbitrary query bodies for the admin query tools.
type RawQuerier interface {
	Raw(ctx context.Context, ep aito.Endpoint, body any) (json.RawMessage, error)
}

// Deps are the use-cases the tools call into.
type Deps struct {
	Catalog     Catalog
	Recommender Recommender
	Predictor   Predictor
	Prompts     PromptAnalyzer
	Analytics   Analytics
	Queries     RawQuerier
}
