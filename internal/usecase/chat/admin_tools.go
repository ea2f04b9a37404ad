package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/AitoDotAI/aito-demo/internal/domain/session"
	"github.com/AitoDotAI/aito-demo/internal/transport/aito"
	"github.com/AitoDotAI/aito-demo/internal/usecase/analytics"
	"github.com/AitoDotAI/aito-demo/internal/usecase/predict"
	"github.com/AitoDotAI/aito-demo/internal/usecase/prompt"
)

// estimatedMargin is the flat margin shown in admin product listings.
const estimatedMargin = 0.3

type adminTools struct {
	deps Deps
}

func (a adminTools) tools() []tool {
	endpointParam := func(description string) map[string]any {
		names := make([]string, 0, len(aito.Endpoints()))
		for _, ep := range aito.Endpoints() {
			names = append(names, string(ep))
		}
		return withDefault(withEnum(param("string", description), names...), string(aito.EndpointQuery))
	}
	return []tool{
		{
			def: define("get_user_analytics", "Get user behavior analytics and insights for specified timeframe.",
				object(map[string]any{
					"timeframe": withDefault(withEnum(param("string", "Analytics timeframe"),
						analytics.TimeframeDay, analytics.TimeframeWeek, analytics.TimeframeMonth, analytics.TimeframeQuarter),
						analytics.TimeframeWeek),
				})),
			run: a.userAnalytics,
		},
		{
			def: define("get_product_performance",
				"Get product performance analytics, either for a specific product, category, or overall.",
				object(map[string]any{
					"productId": param("string", "Specific product ID to analyze"),
					"category":  param("string", "Product category to analyze"),
				})),
			run: a.productPerformance,
		},
		{
			def: define("get_inventory_insights",
				"Get current inventory status including low stock, out of stock, and overstock items.", object(nil)),
			run: a.inventory,
		},
		{
			def: define("search_products_admin",
				"Search products with admin-level details including costs, margins, and supplier information.",
				object(map[string]any{
					"query":            param("string", "Product search query"),
					"includeAnalytics": withDefault(param("boolean", "Include performance analytics in results"), true),
				}, "query")),
			run: a.searchProducts,
		},
		{
			def: define("get_customer_support_insights",
				"Get customer support dashboard with tickets, response times, and common issues.", object(nil)),
			run: a.supportInsights,
		},
		{
			def: define("get_business_reports",
				"Generate business intelligence reports for different aspects of the business.",
				object(map[string]any{
					"reportType": withDefault(withEnum(param("string", "Type of business report to generate"),
						analytics.ReportOverview, analytics.ReportSales, analytics.ReportCustomers), analytics.ReportOverview),
				})),
			run: a.businessReport,
		},
		{
			def: define("generate_product_tags",
				"Auto-generate product tags using AI based on product name. Helps with catalog management and searchability.",
				object(map[string]any{
					"productName": param("string", "Name of the product to generate tags for"),
				}, "productName")),
			run: a.productTags,
		},
		{
			def: define("analyze_feedback",
				"Analyze customer feedback, support requests, or questions using AI. Classifies intent and extracts actionable insights.",
				object(map[string]any{
					"customerMessage": param("string", "Customer message, feedback, or question to analyze"),
				}, "customerMessage")),
			run: a.analyzeFeedback,
		},
		{
			def: define("analyze_relationships",
				"Find statistical relationships and correlations in customer and product data. Useful for market basket analysis.",
				object(map[string]any{
					"field": param("string", `Field to analyze relationships for (e.g., "user.tags", "weekday")`),
					"value": param("string", "Specific value of the field to analyze"),
				}, "field", "value")),
			run: a.relationships,
		},
		{
			def: define("analyze_invoice",
				"Predict invoice routing and approval workflow using AI. Determines processor, approver, and GL codes.",
				object(map[string]any{
					"invoiceData": map[string]any{
						"type":        "object",
						"description": "Invoice details object",
						"properties": map[string]any{
							"vendor":      param("string", "Vendor name"),
							"amount":      param("number", "Invoice amount"),
							"description": param("string", "Invoice description"),
							"category":    param("string", "Expense category"),
							"date":        param("string", "Invoice date (ISO format)"),
						},
					},
				}, "invoiceData")),
			run: a.invoice,
		},
		{
			def: define("get_database_schema",
				"Get complete database schema showing all available tables, fields, operators, and query examples.", object(nil)),
			run: a.schema,
		},
		{
			def: define("execute_aito_query",
				"Execute a direct Aito database query on any endpoint. Supports _query, _recommend, _predict, _relate, _batch, and _aggregate.",
				object(map[string]any{
					"queryObject": param("object", `The Aito query object (e.g., {from: "products", where: {name: {$match: "milk"}}, limit: 10})`),
					"endpoint":    endpointParam("Aito API endpoint to use"),
				}, "queryObject")),
			run: a.executeQuery,
		},
		{
			def: define("validate_aito_query",
				"Validate an Aito query before execution to check table names, field names, and syntax. Use this to prevent errors.",
				object(map[string]any{
					"queryObject": param("object", "The Aito query object to validate"),
					"endpoint":    endpointParam("Aito API endpoint"),
				}, "queryObject")),
			run: a.validateQuery,
		},
		{
			def: define("get_query_examples",
				"Get query examples and tutorials for different categories of Aito database operations.",
				object(map[string]any{
					"category": withDefault(withEnum(param("string", "Category of query examples to retrieve"), exampleCategories...), ExamplesBasic),
				})),
			run: a.queryExamples,
		},
	}
}

func (a adminTools) userAnalytics(ctx context.Context, _ *session.Session, raw json.RawMessage) (any, error) {
	var args struct {
		Timeframe string `json:"timeframe"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	ua, err := a.deps.Analytics.UserAnalytics(ctx, args.Timeframe)
	if err != nil {
		return nil, err
	}
	return result{
		"success":   true,
		"analytics": ua,
		"timeframe": ua.Timeframe,
		"message":   fmt.Sprintf("User analytics for %s from database queries (conversion %.1f%%)", ua.Timeframe, ua.ConversionRate*100),
	}, nil
}

func (a adminTools) productPerformance(ctx context.Context, _ *session.Session, raw json.RawMessage) (any, error) {
	var args struct {
		ProductID string `json:"productId"`
		Category  string `json:"category"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	perf, err := a.deps.Analytics.ProductPerformance(ctx, args.ProductID, args.Category)
	if err != nil {
		return nil, err
	}
	msg := "Overall product performance analytics"
	switch {
	case args.ProductID != "":
		msg = "Performance data for product " + args.ProductID
	case args.Category != "":
		msg = "Analytics for category: " + args.Category
	}
	return result{"success": true, "analytics": perf, "message": msg}, nil
}

func (a adminTools) inventory(ctx context.Context, _ *session.Session, _ json.RawMessage) (any, error) {
	inv, err := a.deps.Analytics.InventoryInsights(ctx)
	if err != nil {
		return nil, err
	}
	return result{
		"success":   true,
		"inventory": inv,
		"message":   "Inventory insights based on purchase probability and demand analysis",
	}, nil
}

func (a adminTools) searchProducts(ctx context.Context, _ *session.Session, raw json.RawMessage) (any, error) {
	var args struct {
		Query string `json:"query"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	found, err := a.deps.Catalog.Search(ctx, "", args.Query)
	if err != nil {
		return nil, err
	}

	type adminData struct {
		Cost     float64 `json:"cost"`
		Margin   string  `json:"margin"`
		Category string  `json:"category"`
	}
	type adminProduct struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		Price     float64   `json:"price"`
		Tags      string    `json:"tags,omitempty"`
		AdminData adminData `json:"adminData"`
	}
	out := make([]adminProduct, 0, len(found))
	for _, h := range found {
		category := h.Category
		if category == "" {
			category = "uncategorized"
		}
		out = append(out, adminProduct{
			ID: h.ID, Name: h.Name, Price: h.Price, Tags: h.Tags,
			AdminData: adminData{
				Cost:     math.Round(h.Price*(1-estimatedMargin)*100) / 100,
				Margin:   fmt.Sprintf("%.0f%%", estimatedMargin*100),
				Category: category,
			},
		})
	}
	return result{
		"success":  true,
		"products": out,
		"message":  fmt.Sprintf("Found %d products matching %q with admin details", len(out), args.Query),
	}, nil
}

func (a adminTools) supportInsights(ctx context.Context, _ *session.Session, _ json.RawMessage) (any, error) {
	si, err := a.deps.Analytics.SupportInsights(ctx)
	if err != nil {
		return nil, err
	}
	return result{
		"success":  true,
		"insights": si,
		"message":  fmt.Sprintf("Customer support insights from prompts database (satisfaction %.1f/5)", si.Satisfaction),
	}, nil
}

func (a adminTools) businessReport(ctx context.Context, _ *session.Session, raw json.RawMessage) (any, error) {
	var args struct {
		ReportType string `json:"reportType"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	r, err := a.deps.Analytics.BusinessReport(ctx, args.ReportType)
	if err != nil {
		return nil, err
	}
	return result{
		"success":    true,
		"report":     r,
		"reportType": r.Kind,
		"message":    "Business intelligence report from database: " + r.Kind,
	}, nil
}

func (a adminTools) productTags(ctx context.Context, _ *session.Session, raw json.RawMessage) (any, error) {
	var args struct {
		ProductName string `json:"productName"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	tags, err := a.deps.Predictor.TagSuggestions(ctx, args.ProductName)
	if err != nil {
		return nil, err
	}
	return result{
		"success": true,
		"tags":    tags,
		"message": fmt.Sprintf("Generated %d tag suggestions for %q", len(tags), args.ProductName),
	}, nil
}

func (a adminTools) analyzeFeedback(ctx context.Context, _ *session.Session, raw json.RawMessage) (any, error) {
	var args struct {
		CustomerMessage string `json:"customerMessage"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	an, err := a.deps.Prompts.Analyze(ctx, args.CustomerMessage)
	if err != nil {
		return nil, err
	}
	return result{"success": true, "analysis": an, "message": adminSummary(an)}, nil
}

// adminSummary is a one-line description of an analysis for staff.
func adminSummary(an prompt.Analysis) string {
	var b strings.Builder
	b.WriteString("Analysis complete. ")
	switch an.TypeName() {
	case prompt.TypeQuestion:
		if an.Answer != "" {
			b.WriteString("Question answered: " + an.Answer)
		}
	case prompt.TypeFeedback:
		sentiment := an.Sentiment
		if sentiment == "" {
			sentiment = "neutral"
		}
		fmt.Fprintf(&b, "Feedback classified as %s sentiment", sentiment)
		if an.Categories != "" {
			b.WriteString(" regarding " + an.Categories)
		}
	case prompt.TypeRequest:
		assignee := an.Assignee
		if assignee == "" {
			assignee = "general support"
		}
		fmt.Fprintf(&b, "Request identified for %s", assignee)
		if an.Urgency != "" {
			fmt.Fprintf(&b, " with %s priority", an.Urgency)
		}
	}
	return strings.TrimSpace(b.String())
}

func (a adminTools) relationships(ctx context.Context, _ *session.Session, raw json.RawMessage) (any, error) {
	var args struct {
		Field string `json:"field"`
		Value any    `json:"value"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	rels, err := a.deps.Analytics.Relate(ctx, args.Field, args.Value)
	if err != nil {
		return nil, err
	}
	significant := analytics.SignificantRelations(rels)
	return result{
		"success":       true,
		"relationships": significant,
		"totalFound":    len(rels),
		"message":       fmt.Sprintf("Found %d significant relationships for %s=%v", len(significant), args.Field, args.Value),
	}, nil
}

func (a adminTools) invoice(ctx context.Context, _ *session.Session, raw json.RawMessage) (any, error) {
	var args struct {
		InvoiceData struct {
			Vendor      string  `json:"vendor"`
			Amount      float64 `json:"amount"`
			Description string  `json:"description"`
			Category    string  `json:"category"`
			Date        string  `json:"date"`
		} `json:"invoiceData"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	in := args.InvoiceData

	// invoice table columns
	where := map[string]any{}
	if in.Vendor != "" {
		where["SenderName"] = in.Vendor
	}
	if in.Amount != 0 {
		where["TotalAmount"] = in.Amount
	}
	if in.Description != "" {
		where["Description"] = in.Description
	}
	if in.Category != "" {
		where["ProductName"] = in.Category
	}
	if in.Date != "" {
		where["InvoiceDate"] = in.Date
	}

	outputs := predict.InvoiceOutputs()
	predictions, err := a.deps.Predictor.Invoice(ctx, where, outputs)
	if err != nil {
		return nil, err
	}
	return result{
		"success":     true,
		"predictions": predictions,
		"invoice":     where,
		"message":     "Invoice analyzed. Predictions generated for " + strings.Join(outputs, ", "),
	}, nil
}

func (a adminTools) schema(context.Context, *session.Session, json.RawMessage) (any, error) {
	return result{
		"success": true,
		"schema":  databaseSchema,
		"message": "Database schema with tables, fields, and query examples",
	}, nil
}

type queryArgs struct {
	QueryObject map[string]any `json:"queryObject"`
	Endpoint    string         `json:"endpoint"`
}

func (q *queryArgs) normalize() {
	if q.Endpoint == "" {
		q.Endpoint = string(aito.EndpointQuery)
	}
	if q.QueryObject == nil {
		q.QueryObject = map[string]any{}
	}
}

func (a adminTools) validateQuery(_ context.Context, _ *session.Session, raw json.RawMessage) (any, error) {
	var args queryArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	args.normalize()
	return ValidateQuery(args.QueryObject, args.Endpoint), nil
}

func (a adminTools) executeQuery(ctx context.Context, _ *session.Session, raw json.RawMessage) (any, error) {
	var args queryArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	args.normalize()

	if v := ValidateQuery(args.QueryObject, args.Endpoint); !v.Valid {
		return result{
			"success":    false,
			"error":      v.Error,
			"suggestion": v.Suggestion,
			"query":      args.QueryObject,
			"endpoint":   args.Endpoint,
			"message":    "Query validation failed: " + v.Error,
		}, nil
	}

	data, err := a.deps.Queries.Raw(ctx, aito.Endpoint(args.Endpoint), args.QueryObject)
	if err != nil {
		msg := "Query execution failed: " + err.Error()
		var apiErr *aito.APIError
		if errors.As(err, &apiErr) {
			switch {
			case apiErr.StatusCode > 0:
				msg = fmt.Sprintf("API Error (%d): %s", apiErr.StatusCode, apiErr.Message)
			case apiErr.Kind == aito.KindNetwork:
				msg = "Network error - could not reach Aito API"
			default:
				msg = apiErr.Message
			}
		}
		return result{
			"success":  false,
			"error":    msg,
			"query":    args.QueryObject,
			"endpoint": args.Endpoint,
			"message":  msg,
		}, nil
	}
	return result{
		"success":  true,
		"data":     data,
		"query":    args.QueryObject,
		"endpoint": args.Endpoint,
		"message":  fmt.Sprintf("Query executed successfully on %s endpoint", args.Endpoint),
	}, nil
}

func (a adminTools) queryExamples(_ context.Context, _ *session.Session, raw json.RawMessage) (any, error) {
	var args struct {
		Category string `json:"category"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	category := args.Category
	if _, ok := queryExamples[category]; !ok {
		category = ExamplesBasic
	}
	return result{
		"success":    true,
		"examples":   QueryExamples(category),
		"categories": exampleCategories,
		"message":    "Query examples for category: " + category,
	}, nil
}
