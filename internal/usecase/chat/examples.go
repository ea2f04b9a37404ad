package chat

import "github.com/AitoDotAI/aito-demo/internal/transport/aito"

// QueryExample is a known-good query with its endpoint.
type QueryExample struct {
	Title    string        `json:"title"`
	Query    aito.M        `json:"query"`
	Endpoint aito.Endpoint `json:"endpoint"`
	Note     string        `json:"note,omitempty"`
}

// ExampleCategory groups query examples.
type ExampleCategory struct {
	Description string         `json:"description"`
	Examples    []QueryExample `json:"examples"`
}

// Example categories.
const (
	ExamplesBasic     = "basic"
	ExamplesAnalytics = "analytics"
	ExamplesML        = "ml"
	ExamplesAdvanced  = "advanced"
)

var exampleCategories = []string{ExamplesBasic, ExamplesAnalytics, ExamplesML, ExamplesAdvanced}

var purchaseP = aito.M{"$p": aito.M{"$context": aito.M{"purchase": true}}}

var queryExamples = map[string]ExampleCategory{
	ExamplesBasic: {
		Description: "Basic query operations with EXACT field names",
		Examples: []QueryExample{
			{
				Title:    "Get all products",
				Query:    aito.M{"from": "products", "select": []any{"id", "name", "price", "tags"}, "limit": 10},
				Endpoint: aito.EndpointQuery,
				Note:     "Products have: id, name, category, price, tags, googleImpressions, googleClicks",
			},
			{
				Title:    "Find specific user",
				Query:    aito.M{"from": "users", "where": aito.M{"id": "larry"}, "select": []any{"id", "tags"}},
				Endpoint: aito.EndpointQuery,
				Note:     "Users only have: id, tags (NO name field!)",
			},
			{
				Title:    "Recent visits",
				Query:    aito.M{"from": "visits", "orderBy": "day", "limit": 5},
				Endpoint: aito.EndpointQuery,
				Note:     "Visits have day/week/month (NOT time field!)",
			},
			{
				Title:    "Most frequent users",
				Query:    aito.M{"from": "visits", "get": "user", "orderBy": "$f", "limit": 10},
				Endpoint: aito.EndpointQuery,
				Note:     "Use $f operator for frequency ranking, not $count",
			},
			{
				Title: "Aggregate product statistics",
				Query: aito.M{"from": "products", "aggregate": aito.M{
					"totalValue": "price.$sum", "averagePrice": "price.$mean", "productCount": "$f",
				}},
				Endpoint: aito.EndpointAggregate,
				Note:     "Aggregate queries calculate statistics across all rows. No 'get' field allowed.",
			},
		},
	},
	ExamplesAnalytics: {
		Description: "Analytics patterns used by the dashboards",
		Examples: []QueryExample{
			{
				Title:    "Purchases per product",
				Query:    aito.M{"from": "impressions", "where": aito.M{"purchase": true}, "get": "product", "orderBy": "$f"},
				Endpoint: aito.EndpointQuery,
			},
			{
				Title:    "User purchase analysis",
				Query:    aito.M{"from": "impressions", "where": aito.M{"purchase": true}, "get": "context.user", "orderBy": "$f", "limit": 10},
				Endpoint: aito.EndpointQuery,
				Note:     "Use get with dot notation for nested fields.",
			},
			{
				Title:    "Statistical correlations",
				Query:    aito.M{"from": "visits", "where": aito.M{"user": "alice"}, "relate": "purchases"},
				Endpoint: aito.EndpointRelate,
				Note:     "Find products statistically related to Alice's purchases",
			},
		},
	},
	ExamplesML: {
		Description: "Machine learning queries",
		Examples: []QueryExample{
			{
				Title: "Personalized recommendations",
				Query: aito.M{
					"from": "impressions", "where": aito.M{"context.user": "larry"},
					"recommend": "product", "goal": aito.M{"purchase": true},
					"select": []any{"name", "id", "tags", "price"}, "limit": 5,
				},
				Endpoint: aito.EndpointRecommend,
			},
			{
				Title: "Product tag prediction",
				Query: aito.M{
					"from": "products", "where": aito.M{"name": aito.M{"$match": "milk"}},
					"predict": "tags", "exclusiveness": false, "limit": 10,
				},
				Endpoint: aito.EndpointPredict,
				Note:     "Filter results by $p > 0.5",
			},
			{
				Title: "Personalized search",
				Query: aito.M{
					"from": "impressions",
					"where": aito.M{
						"context.user": "larry",
						"product": aito.M{"$or": []any{
							aito.M{"tags": aito.M{"$match": "organic"}},
							aito.M{"name": aito.M{"$match": "organic"}},
						}},
					},
					"get":     "product",
					"orderBy": aito.M{"$multiply": []any{"$similarity", purchaseP}},
					"select":  []any{"name", "id", "tags", "price", "$matches"},
					"limit":   5,
				},
				Endpoint: aito.EndpointQuery,
				Note:     "Combines text relevance ($similarity) with purchase probability ($p)",
			},
		},
	},
	ExamplesAdvanced: {
		Description: "Advanced query patterns with operators",
		Examples: []QueryExample{
			{
				Title: "Text similarity search",
				Query: aito.M{
					"from":    "products",
					"where":   aito.M{"name": aito.M{"$similarity": aito.M{"$query": "organic dairy milk", "$minScore": 0.3}}},
					"select":  []any{"name", "$similarity"},
					"orderBy": "$similarity",
					"limit":   10,
				},
				Endpoint: aito.EndpointQuery,
			},
			{
				Title: "Contextual probability",
				Query: aito.M{
					"from":    "impressions",
					"where":   aito.M{"product.category": "dairy"},
					"orderBy": purchaseP,
					"select":  []any{"product.name", aito.M{"generalPurchaseProb": "$score"}},
					"limit":   10,
				},
				Endpoint: aito.EndpointQuery,
			},
		},
	},
}

// QueryExamples returns the examples for category, falling back to basic.
func QueryExamples(category string) ExampleCategory {
	if c, ok := queryExamples[category]; ok {
		return c
	}
	return queryExamples[ExamplesBasic]
}
