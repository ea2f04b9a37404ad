package chi

import (
	"context"
	"encoding/json"

	openai "github.com/sashabaranov/go-openai"

	domchat "github.com/AitoDotAI/aito-demo/internal/domain/chat"
	"github.com/AitoDotAI/aito-demo/internal/domain/hit"
	"github.com/AitoDotAI/aito-demo/internal/domain/persona"
	"github.com/AitoDotAI/aito-demo/internal/domain/product"
	"github.com/AitoDotAI/aito-demo/internal/domain/session"
	llm "github.com/AitoDotAI/aito-demo/internal/transport/openai"
	"github.com/AitoDotAI/aito-demo/internal/usecase/analytics"
	"github.com/AitoDotAI/aito-demo/internal/usecase/catalog"
	healthuc "github.com/AitoDotAI/aito-demo/internal/usecase/health"
	"github.com/AitoDotAI/aito-demo/internal/usecase/prompt"
)

// Catalog serves product reads.
type Catalog interface {
	Search(ctx context.Context, userID, query string) ([]catalog.SearchHit, error)
	Autocomplete(ctx context.Context, userID, prefix string) ([]catalog.Suggestion, error)
	ProductsByIDs(ctx context.Context, ids []string) ([]product.Product, error)
	Product(ctx context.Context, id string) (product.Product, error)
	Products(ctx context.Context, limit int) ([]product.Product, error)
	DistinctValues(ctx context.Context, field string) []string
	Answer(ctx context.Context, question string) (*catalog.Answer, error)
}

// Recommender serves personalized product lists.
type Recommender interface {
	Recommend(ctx context.Context, userID string, cartIDs []string, count int) ([]product.Product, error)
	Autofill(ctx context.Context, userID string) ([]string, error)
}

// Predictor serves tag and invoice predictions.
type Predictor interface {
	TagSuggestions(ctx context.Context, name string) ([]string, error)
	Invoice(ctx context.Context, input map[string]any, outputs []string) (map[string][]hit.Hit, error)
}

// PromptAnalyzer classifies customer messages.
type PromptAnalyzer interface {
	Analyze(ctx context.Context, text string) (prompt.Analysis, error)
}

// Analytics serves relations and product statistics.
type Analytics interface {
	Relate(ctx context.Context, field string, value any) ([]analytics.Relation, error)
	ProductStats(ctx context.Context, id string) (hit.Hit, error)
	ProductAnalytics(ctx context.Context, id string) (*analytics.ProductAnalytics, error)
}

// Chat runs assistant sessions.
type Chat interface {
	Start(ctx context.Context, kind session.Kind, p persona.Persona) (*session.Session, error)
	Get(ctx context.Context, id string) (*session.Session, error)
	Delete(ctx context.Context, id string) error
	Send(ctx context.Context, id, text string) ([]domchat.Message, error)
	SwitchPersona(ctx context.Context, id string, p persona.Persona) (*session.Session, error)
	Clear(ctx context.Context, id string) (*session.Session, error)
	AddToCart(ctx context.Context, id, productID string) (*session.Session, error)
	RemoveFromCart(ctx context.Context, id, productID string) (*session.Session, error)
	Tools(kind session.Kind) []domchat.ToolDefinition
}

// LLM proxies chat completions for the browser.
type LLM interface {
	Proxy(ctx context.Context, req llm.ProxyRequest) (openai.ChatCompletionResponse, error)
	ListModels(ctx context.Context) (openai.ModelsList, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// UsageReader returns predictive database account usage.
type UsageReader interface {
	Usage(ctx context.Context) (json.RawMessage, error)
}

// Services are the use-cases behind the HTTP API.
type Services struct {
	Catalog     Catalog
	Recommender Recommender
	Predictor   Predictor
	Prompts     PromptAnalyzer
	Analytics   Analytics
	Chat        Chat
	LLM         LLM
	Health      HealthChecker
	Usage       UsageReader
}
