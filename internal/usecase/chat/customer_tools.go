package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/AitoDotAI/aito-demo/internal/domain/hit"
	"github.com/AitoDotAI/aito-demo/internal/domain/product"
	"github.com/AitoDotAI/aito-demo/internal/domain/session"
	"github.com/AitoDotAI/aito-demo/internal/usecase/prompt"
	"github.com/AitoDotAI/aito-demo/internal/usecase/recommend"
)

const (
	defaultToolLimit = 5
	suggestionLimit  = 5
)

// Help topics in display order. The default text answers unknown topics.
var (
	helpTopics = []string{"search", "recommendations", "cart", "orders", "account", "products", "delivery", "payment", "returns"}
	helpTexts  = map[string]string{
		"search":          "To search for products, just type what you're looking for. I can help you find specific items and suggest alternatives based on your preferences.",
		"recommendations": "I can suggest products based on your shopping history and preferences. Just ask me for recommendations!",
		"cart":            "I can help you manage your shopping cart, suggest items you might have forgotten, or recommend alternatives.",
		"orders":          "You can ask me about placing orders, delivery options, and order tracking.",
		"account":         "I can help you with account-related questions like updating preferences or viewing order history.",
		"products":        "Ask me about product details, availability, ingredients, or alternatives.",
		"delivery":        "I can provide information about delivery areas, fees, and scheduling options.",
		"payment":         "I can explain our payment methods and help with checkout questions.",
		"returns":         "I can guide you through our return policy and process.",
	}
	defaultHelp = "I'm here to help you with shopping! I can help you search for products, get personalized recommendations, manage your cart, and answer questions about orders, delivery, and our services."
)

type customerTools struct {
	deps Deps
}

func (c customerTools) tools() []tool {
	productRef := func(verb string) map[string]any {
		return object(map[string]any{
			"productId":   param("string", fmt.Sprintf("The exact product ID to %s (optional if productName is provided)", verb)),
			"productName": param("string", fmt.Sprintf("The product name to find and %s (optional if productId is provided)", verb)),
		})
	}
	return []tool{
		{
			def: define("search_products",
				"Search for products in the grocery store based on user query. Returns personalized results.",
				object(map[string]any{
					"query": param("string", `Search query from the user (e.g., "organic milk", "bread", "lactose-free")`),
					"limit": withDefault(param("integer", "Maximum number of products to return (default: 5)"), defaultToolLimit),
				}, "query")),
			run: c.searchProducts,
		},
		{
			def: define("get_recommendations",
				"Get personalized product recommendations based on user shopping history and current cart.",
				object(map[string]any{
					"limit": withDefault(param("integer", "Maximum number of recommendations to return (default: 5)"), defaultToolLimit),
				})),
			run: c.recommendations,
		},
		{
			def: define("get_search_suggestions", "Get autocomplete suggestions for search queries.",
				object(map[string]any{
					"prefix": param("string", "Partial search query to get suggestions for"),
				}, "prefix")),
			run: c.searchSuggestions,
		},
		{
			def: define("get_shopping_list_suggestions", "Get shopping list suggestions based on user purchase history.", object(nil)),
			run: c.shoppingList,
		},
		{
			def: define("get_smart_cart_predictions",
				"Get AI-powered cart predictions with full product details based on user shopping patterns. More advanced than shopping list suggestions.",
				object(nil)),
			run: c.smartCart,
		},
		{
			def: define("analyze_customer_message",
				"Analyze customer messages using AI to understand intent, classify feedback, or handle special requests. Use this for complex questions or when the customer message needs interpretation.",
				object(map[string]any{
					"message": param("string", "The customer message to analyze for intent and appropriate response"),
				}, "message")),
			run: c.analyzeMessage,
		},
		{
			def: define("add_to_cart",
				"Add a product to the customer's shopping cart. Use this when a customer asks to add items to their cart or wants to purchase something. Provide either productId or productName.",
				productRef("add to cart")),
			run: c.addToCart,
		},
		{
			def: define("remove_from_cart",
				"Remove a product from the customer's shopping cart. Use this when a customer asks to remove items from their cart. Provide either productId or productName.",
				productRef("remove from cart")),
			run: c.removeFromCart,
		},
		{
			def: define("get_general_help", "Provide general help information about using the grocery store.",
				object(map[string]any{
					"topic": withEnum(param("string", "Specific help topic ("+strings.Join(helpTopics, ", ")+")"), helpTopics...),
				})),
			run: c.generalHelp,
		},
	}
}

func userID(s *session.Session) string {
	return string(s.Persona)
}

func (c customerTools) searchProducts(ctx context.Context, s *session.Session, raw json.RawMessage) (any, error) {
	var args struct {
		Query string `json:"query"`
		Limit int    `json:"limit"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	if args.Limit <= 0 {
		args.Limit = defaultToolLimit
	}
	found, err := c.deps.Catalog.Search(ctx, userID(s), args.Query)
	if err != nil {
		return nil, err
	}
	products := found
	if len(products) > args.Limit {
		products = products[:args.Limit]
	}
	return result{
		"success":  true,
		"products": products,
		"message":  fmt.Sprintf("Found %d products matching %q", len(found), args.Query),
	}, nil
}

func (c customerTools) recommendations(ctx context.Context, s *session.Session, raw json.RawMessage) (any, error) {
	var args struct {
		Limit int `json:"limit"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	if args.Limit <= 0 {
		args.Limit = defaultToolLimit
	}
	products, err := c.deps.Recommender.Recommend(ctx, userID(s), s.Cart.IDs(), args.Limit)
	if err != nil {
		return nil, err
	}
	return result{
		"success":  true,
		"products": products,
		"message":  fmt.Sprintf("Here are %d personalized recommendations for you", len(products)),
	}, nil
}

func (c customerTools) searchSuggestions(ctx context.Context, s *session.Session, raw json.RawMessage) (any, error) {
	var args struct {
		Prefix string `json:"prefix"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	all, err := c.deps.Catalog.Autocomplete(ctx, userID(s), args.Prefix)
	if err != nil {
		return nil, err
	}
	suggestions := make([]string, 0, suggestionLimit)
	for _, sg := range all {
		if len(suggestions) == suggestionLimit {
			break
		}
		if hit.Autocomplete.Pass(sg.Probability) {
			suggestions = append(suggestions, sg.Value)
		}
	}
	return result{
		"success":     true,
		"suggestions": suggestions,
		"message":     "Here are some search suggestions: " + strings.Join(suggestions, ", "),
	}, nil
}

func (c customerTools) shoppingList(ctx context.Context, s *session.Session, _ json.RawMessage) (any, error) {
	ids, err := c.deps.Recommender.Autofill(ctx, userID(s))
	if err != nil {
		return nil, err
	}
	return result{
		"success":     true,
		"suggestions": ids,
		"message":     "Based on your shopping history, you might want to add these items to your list",
	}, nil
}

func (c customerTools) smartCart(ctx context.Context, s *session.Session, _ json.RawMessage) (any, error) {
	products, err := c.deps.Recommender.SmartCart(ctx, userID(s), recommend.DefaultSmartCartSize)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return result{
			"success":    true,
			"products":   []product.Product{},
			"productIds": []string{},
			"message":    "I don't have enough purchase history to make predictions yet. Try browsing our products and I'll learn your preferences!",
		}, nil
	}
	ids := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	return result{
		"success":    true,
		"products":   products,
		"productIds": ids,
		"message":    fmt.Sprintf("Based on your shopping patterns, I predict you'll want these %d items on your next visit", len(products)),
	}, nil
}

func (c customerTools) analyzeMessage(ctx context.Context, _ *session.Session, raw json.RawMessage) (any, error) {
	var args struct {
		Message string `json:"message"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	a, err := c.deps.Prompts.Analyze(ctx, args.Message)
	if err != nil {
		return nil, err
	}
	return customerReply(a), nil
}

// customerReply phrases an analysis for the shopper.
func customerReply(a prompt.Analysis) result {
	switch a.TypeName() {
	case "":
		return result{
			"success": false,
			"type":    "unknown",
			"message": "I couldn't understand your question. Could you please rephrase it?",
		}
	case prompt.TypeQuestion:
		if a.Answer == "" {
			break
		}
		return result{"success": true, "type": prompt.TypeQuestion, "answer": a.Answer, "message": "I found an answer to your question"}
	case prompt.TypeFeedback:
		var b strings.Builder
		b.WriteString("Thank you for your feedback! ")
		switch a.Sentiment {
		case "positive":
			b.WriteString("We're glad to hear you had a good experience. ")
		case "negative":
			b.WriteString("We're sorry to hear about your experience and will work to improve. ")
		}
		if a.Categories != "" {
			fmt.Fprintf(&b, "Your feedback about %s has been noted. ", a.Categories)
		}
		b.WriteString("Your input helps us provide better service!")
		return result{
			"success": true, "type": prompt.TypeFeedback,
			"sentiment": a.Sentiment, "categories": a.Categories, "tags": a.Tags,
			"message": b.String(),
		}
	case prompt.TypeRequest:
		var b strings.Builder
		b.WriteString("I've understood your request. ")
		if a.Assignee != "" {
			fmt.Fprintf(&b, "I'll route this to %s who can best help you. ", a.Assignee)
		}
		if a.Urgency != "" {
			fmt.Fprintf(&b, "This has been marked as %s priority. ", a.Urgency)
		}
		if a.Categories != "" {
			fmt.Fprintf(&b, "This relates to: %s. ", a.Categories)
		}
		b.WriteString("You should receive a response within 24 hours.")
		return result{
			"success": true, "type": prompt.TypeRequest,
			"assignee": a.Assignee, "urgency": a.Urgency, "categories": a.Categories,
			"message": b.String(),
		}
	}
	return result{
		"success": true,
		"type":    a.TypeName(),
		"message": "I understood your message but don't have a specific response for this type of inquiry.",
	}
}

type productRefArgs struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
}

func (c customerTools) addToCart(ctx context.Context, s *session.Session, raw json.RawMessage) (any, error) {
	var args productRefArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	if args.ProductID == "" && args.ProductName == "" {
		return failure("Please provide either a product ID or product name to add to cart."), nil
	}

	p, found, err := c.findProduct(ctx, s, args)
	if err != nil {
		return nil, err
	}
	if !found {
		if args.ProductID != "" {
			return failure(fmt.Sprintf("Sorry, I couldn't find a product with ID %s.", args.ProductID)), nil
		}
		return failure(fmt.Sprintf("Sorry, I couldn't find a product named %q.", args.ProductName)), nil
	}

	added, err := s.Cart.Add(p)
	if err != nil {
		return nil, err
	}
	if !added {
		return failure(fmt.Sprintf("%s is already in your cart.", p.Name)), nil
	}
	return result{
		"success": true,
		"product": p,
		"message": fmt.Sprintf("Added %s ($%s) to your cart!", p.Name, formatPrice(p.Price)),
	}, nil
}

func (c customerTools) findProduct(ctx context.Context, s *session.Session, args productRefArgs) (product.Product, bool, error) {
	if args.ProductID != "" {
		products, err := c.deps.Catalog.ProductsByIDs(ctx, []string{args.ProductID})
		if err != nil || len(products) == 0 {
			return product.Product{}, false, err
		}
		return products[0], true, nil
	}
	hits, err := c.deps.Catalog.Search(ctx, userID(s), args.ProductName)
	if err != nil {
		return product.Product{}, false, err
	}
	for _, h := range hits {
		if h.NameContains(args.ProductName) {
			return h.Product, true, nil
		}
	}
	return product.Product{}, false, nil
}

func (c customerTools) removeFromCart(_ context.Context, s *session.Session, raw json.RawMessage) (any, error) {
	var args productRefArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	if args.ProductID == "" && args.ProductName == "" {
		return failure("Please provide either a product ID or product name to remove from cart."), nil
	}

	var (
		p     product.Product
		found bool
	)
	if args.ProductID != "" {
		p, found = s.Cart.Find(args.ProductID)
	} else {
		p, found = s.Cart.FindByName(args.ProductName)
	}
	if !found {
		if args.ProductID != "" {
			return failure(fmt.Sprintf("Sorry, I couldn't find product ID %s in your cart.", args.ProductID)), nil
		}
		return failure(fmt.Sprintf("Sorry, I couldn't find %q in your cart.", args.ProductName)), nil
	}

	s.Cart.Remove(p.ID)
	return result{
		"success": true,
		"product": p,
		"message": fmt.Sprintf("Removed %s from your cart.", p.Name),
	}, nil
}

func (c customerTools) generalHelp(_ context.Context, _ *session.Session, raw json.RawMessage) (any, error) {
	var args struct {
		Topic string `json:"topic"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	msg, ok := helpTexts[args.Topic]
	if !ok {
		msg = defaultHelp
	}
	return result{"success": true, "message": msg, "availableTopics": helpTopics}, nil
}

// formatPrice renders a price without trailing zeros, e.g. 1.2 or 3.
func formatPrice(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}
