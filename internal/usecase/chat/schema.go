package chat

import (
	"fmt"
	"slices"
	"strings"

	"github.com/AitoDotAI/aito-demo/internal/transport/aito"
)

// TableSchema documents one table for the admin assistant.
type TableSchema struct {
	Description string   `json:"description"`
	Fields      []string `json:"fields"`
	Examples    []string `json:"realExamples"`
	KeyValues   []string `json:"keyValues,omitempty"`
	Note        string   `json:"note,omitempty"`
}

// Schema is the database overview returned by get_database_schema.
type Schema struct {
	Tables    map[string]TableSchema `json:"tables"`
	Endpoints map[string]string      `json:"endpoints"`
	Operators map[string][]string    `json:"operators"`
}

// fieldNames lists the selectable columns per table.
var fieldNames = map[string][]string{
	aito.TableUsers:       {"id", "tags"},
	aito.TableProducts:    {"id", "name", "category", "price", "tags", "googleImpressions", "googleClicks"},
	aito.TableVisits:      {"id", "user", "prev", "day", "week", "month", "weekday", "purchases"},
	aito.TableContexts:    {"id", "type", "visit", "user", "day", "week", "month", "weekday", "basket", "prevBasket", "query", "queryPhrase"},
	aito.TableImpressions: {"context", "product", "purchase"},
	aito.TableEmployees:   {"Name", "Role", "Department", "Superior"},
	aito.TableInvoices: {
		"InvoiceID", "InvoiceDate", "InvoiceNumber", "PaymentDueDate", "SenderName", "SenderAddress",
		"ReceiverName", "ReceiverAddress", "ProductName", "Description", "TotalAmount", "VATAmount",
		"Processor", "Acceptor", "GLCode",
	},
	aito.TableGLCodes:   {"GLCode", "Department", "Name"},
	aito.TablePrompts:   {"prompt", "type", "answer", "sentiment", "categories", "tags", "assignee", "urgency"},
	aito.TableAnswers:   {"id", "answer"},
	aito.TableQuestions: {"question", "answer"},
}

var databaseSchema = Schema{
	Tables: map[string]TableSchema{
		aito.TableUsers: {
			Description: "User demographics and preferences (64 users: larry, veronica, alice, 0-63)",
			Fields:      []string{"id (String)", "tags (Text)"},
			Examples: []string{
				"Get all users: { from: 'users', select: ['id', 'tags'], limit: 10 }",
				"Find young users: { from: 'users', where: { tags: { $match: 'young' } } }",
				"Specific user: { from: 'users', where: { id: 'larry' } }",
			},
			KeyValues: []string{"id: 'larry', 'veronica', 'alice', '0'-'63'", "tags: 'male young club-member', 'female vegetarian', etc."},
		},
		aito.TableProducts: {
			Description: "42 grocery store products with Google analytics",
			Fields: []string{
				"id (String)", "name (Text)", "category (String)", "price (Decimal)", "tags (Text)",
				"googleImpressions (Int)", "googleClicks (Int)",
			},
			Examples: []string{
				"All products: { from: 'products', select: ['id', 'name', 'price'], limit: 10 }",
				"Search by name: { from: 'products', where: { name: { $match: 'milk' } } }",
				"Price filter: { from: 'products', where: { price: { $lt: 5.0 } } }",
				"Category filter: { from: 'products', where: { category: '100' } }",
			},
			KeyValues: []string{"id: '2000818700008'", "name: 'Pirkka banana', 'Juhla Mokka coffee'", "category: '100', '200'"},
		},
		aito.TableVisits: {
			Description: "Shopping sessions with temporal data and purchases",
			Fields: []string{
				"id (String)", "user (String→users.id)", "prev (String→visits.id)", "day (Int)", "week (Int)",
				"month (Int)", "weekday (String)", "purchases (Text)",
			},
			Examples: []string{
				"User visits: { from: 'visits', where: { user: 'larry' } }",
				"Recent visits: { from: 'visits', orderBy: 'day', limit: 5 }",
				"Visits with purchases: { from: 'visits', where: { purchases: { $match: '2000818700008' } } }",
			},
			KeyValues: []string{"id: '4_0'", "user: 'larry'", "weekday: 'Monday', 'Tuesday'"},
		},
		aito.TableContexts: {
			Description: "Search and interaction contexts with basket states",
			Fields: []string{
				"id (String)", "type (String)", "visit (String→visits.id)", "user (String→users.id)",
				"day/week/month (Int)", "weekday (String)", "basket (Text)", "prevBasket (Text)", "query (Text)",
				"queryPhrase (String)",
			},
			Examples: []string{
				"Search contexts: { from: 'contexts', where: { type: 'search' } }",
				"Query search: { from: 'contexts', where: { query: { $match: 'organic' } } }",
			},
			KeyValues: []string{"type: 'search', 'prefill'", "query: 'organic milk', 'coffee'"},
		},
		aito.TableImpressions: {
			Description: "**MAIN ML TABLE** - Product view/purchase events linking contexts→products→purchases",
			Fields:      []string{"context (String→contexts.id)", "product (String→products.id)", "purchase (Boolean)"},
			Examples: []string{
				"Purchase data: { from: 'impressions', where: { purchase: true } }",
				"User interactions: { from: 'impressions', where: { 'context.user': 'larry' } }",
				"Personalized search: { from: 'impressions', where: { 'context.user': 'larry', 'product.tags': { $match: 'milk' } }, get: 'product' }",
			},
			KeyValues: []string{"context: '0_7_0'", "product: '2000818700008'", "purchase: true/false"},
			Note:      "Use 'context.user', 'product.name', 'product.tags' for joins. Use 'get: product' to return product details.",
		},
		aito.TableEmployees: {
			Description: "Staff directory for invoice routing and business processes",
			Fields:      []string{"Name (String)", "Role (String)", "Department (String)", "Superior (String)"},
			Examples: []string{
				"All employees: { from: 'employees', select: ['Name', 'Role', 'Department'] }",
				"Department staff: { from: 'employees', where: { Department: 'Finance' } }",
			},
		},
		aito.TableInvoices: {
			Description: "Invoice processing data for ML-based routing and approval",
			Fields: []string{
				"InvoiceID (String)", "InvoiceDate/Number/PaymentDueDate (String)", "SenderName/Address (Text)",
				"ReceiverName/Address (Text)", "ProductName/Description (Text)", "TotalAmount/VATAmount (Decimal)",
				"Processor (String→employees.Name)", "Acceptor (String→employees.Name)", "GLCode (String→glCodes.GLCode)",
			},
			Examples: []string{
				"High-value invoices: { from: 'invoices', where: { TotalAmount: { $gt: 1000 } } }",
			},
		},
		aito.TableGLCodes: {
			Description: "General Ledger codes for financial categorization",
			Fields:      []string{"GLCode (String)", "Department (String)", "Name (String)"},
			Examples:    []string{"All GL codes: { from: 'glCodes', select: ['GLCode', 'Name'] }"},
		},
		aito.TablePrompts: {
			Description: "NLP training data for text classification and sentiment analysis",
			Fields: []string{
				"prompt (Text)", "type (String)", "answer (Int→answers.id)", "sentiment (String)", "categories (Text)",
				"tags (Text)", "assignee (String→employees.Name)", "urgency (String)",
			},
			Examples: []string{
				"Feedback prompts: { from: 'prompts', where: { type: 'feedback' } }",
				"High urgency: { from: 'prompts', where: { urgency: 'high' } }",
			},
			KeyValues: []string{"type: 'feedback', 'question', 'request'", "urgency: 'high', 'medium', 'low'"},
		},
		aito.TableAnswers: {
			Description: "Response templates for automated customer service",
			Fields:      []string{"id (Int)", "answer (Text)"},
			Examples:    []string{"Specific answer: { from: 'answers', where: { id: 1 } }"},
		},
		aito.TableQuestions: {
			Description: "Frequently asked questions linked to their answers",
			Fields:      []string{"question (Text)", "answer (Int→answers.id)"},
			Examples:    []string{"Nearest question: { from: 'questions', where: { $nn: [{ question: 'opening hours' }] }, limit: 1 }"},
		},
	},
	Endpoints: map[string]string{
		string(aito.EndpointQuery):     "Basic data retrieval with filtering and ordering",
		string(aito.EndpointRecommend): "ML-powered recommendations with goal optimization",
		string(aito.EndpointPredict):   "Classification and field value prediction",
		string(aito.EndpointRelate):    "Statistical correlation analysis",
		string(aito.EndpointBatch):     "Multiple queries in one request",
		string(aito.EndpointAggregate): "Statistical aggregations (sum, mean, frequency)",
	},
	Operators: map[string][]string{
		"Text":        {"$match", "$similarity", "$startsWith", "$has"},
		"Logic":       {"$or", "$and", "$not"},
		"Probability": {"$p", "$context", "$multiply"},
		"Analytics":   {"$why", "$sum", "$mean", "$f"},
		"Comparison":  {"$gt", "$lt", "$gte", "$lte", "$in"},
	},
}

// Validation is the outcome of ValidateQuery.
type Validation struct {
	Valid      bool   `json:"valid"`
	Error      string `json:"error,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// ValidateQuery checks the endpoint, the table and plain select field names.
// Operators ($...) and linked paths (a.b) in select are not checked.
func ValidateQuery(query map[string]any, endpoint string) Validation {
	if endpoint == "" {
		endpoint = string(aito.EndpointQuery)
	}
	if !aito.ValidEndpoint(endpoint) {
		return Validation{Error: fmt.Sprintf("Invalid endpoint '%s'. Valid endpoints: %s", endpoint, joinEndpoints())}
	}

	from, ok := query["from"].(string)
	if !ok {
		return Validation{Valid: true}
	}
	fields, known := fieldNames[from]
	if !known {
		return Validation{
			Error:      fmt.Sprintf("Invalid table '%s'. Valid tables: %s", from, strings.Join(tableNames(), ", ")),
			Suggestion: "Use get_database_schema tool to see exact table names and fields",
		}
	}

	sel, _ := query["select"].([]any)
	var invalid []string
	for _, f := range sel {
		name, ok := f.(string)
		if !ok || strings.HasPrefix(name, "$") || strings.Contains(name, ".") {
			continue
		}
		if !slices.Contains(fields, name) {
			invalid = append(invalid, name)
		}
	}
	if len(invalid) > 0 {
		return Validation{
			Error:      fmt.Sprintf("Invalid field(s) '%s' for table '%s'", strings.Join(invalid, ", "), from),
			Suggestion: fmt.Sprintf("Valid fields for %s: %s", from, strings.Join(fields, ", ")),
		}
	}
	return Validation{Valid: true}
}

func tableNames() []string {
	return []string{
		aito.TableUsers, aito.TableProducts, aito.TableVisits, aito.TableContexts, aito.TableImpressions,
		aito.TableEmployees, aito.TableInvoices, aito.TableGLCodes, aito.TablePrompts, aito.TableAnswers,
		aito.TableQuestions,
	}
}

func joinEndpoints() string {
	eps := aito.Endpoints()
	names := make([]string, len(eps))
	for i, ep := range eps {
		names[i] = string(ep)
	}
	return strings.Join(names, ", ")
}
