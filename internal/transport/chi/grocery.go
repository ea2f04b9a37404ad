package chi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/AitoDotAI/aito-demo/internal/domain"
	"github.com/AitoDotAI/aito-demo/internal/domain/persona"
	"github.com/AitoDotAI/aito-demo/internal/domain/session"
)

// ListPersonas handles GET /api/personas.
func (s *Server) ListPersonas(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, persona.All())
}

// SearchProducts handles GET /api/search?user=&q=.
func (s *Server) SearchProducts(w http.ResponseWriter, r *http.Request) {
	user, ok := queryString(w, r, "user", false)
	if !ok {
		return
	}
	q, ok := queryString(w, r, "q", false)
	if !ok {
		return
	}
	hits, err := s.svc.Catalog.Search(r.Context(), user, q)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hits)
}

// Autocomplete handles GET /api/autocomplete?user=&prefix=.
func (s *Server) Autocomplete(w http.ResponseWriter, r *http.Request) {
	user, ok := queryString(w, r, "user", false)
	if !ok {
		return
	}
	prefix, ok := queryString(w, r, "prefix", false)
	if !ok {
		return
	}
	suggestions, err := s.svc.Catalog.Autocomplete(r.Context(), user, prefix)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestions)
}

type recommendationsRequest struct {
	UserID  string   `json:"userId"`
	CartIDs []string `json:"cartIds"`
	Count   int      `json:"count"`
}

// Recommendations handles POST /api/recommendations.
func (s *Server) Recommendations(w http.ResponseWriter, r *http.Request) {
	var req recommendationsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	products, err := s.svc.Recommender.Recommend(r.Context(), req.UserID, req.CartIDs, req.Count)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// Autofill handles GET /api/autofill?user=.
func (s *Server) Autofill(w http.ResponseWriter, r *http.Request) {
	user, ok := queryString(w, r, "user", false)
	if !ok {
		return
	}
	ids, err := s.svc.Recommender.Autofill(r.Context(), user)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ids)
}

// TagSuggestions handles GET /api/tags?name=.
func (s *Server) TagSuggestions(w http.ResponseWriter, r *http.Request) {
	name, ok := queryString(w, r, "name", false)
	if !ok {
		return
	}
	tags, err := s.svc.Predictor.TagSuggestions(r.Context(), name)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

type promptRequest struct {
	Prompt string `json:"prompt"`
}

// AnalyzePrompt handles POST /api/prompt.
func (s *Server) AnalyzePrompt(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	if !decodeBody(w, r, &req) {
		return
	}
	a, err := s.svc.Prompts.Analyze(r.Context(), req.Prompt)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Relate handles GET /api/relate?field=&value=.
func (s *Server) Relate(w http.ResponseWriter, r *http.Request) {
	field, ok := queryString(w, r, "field", true)
	if !ok {
		return
	}
	value, ok := queryString(w, r, "value", true)
	if !ok {
		return
	}
	rels, err := s.svc.Analytics.Relate(r.Context(), field, value)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rels)
}

type invoiceRequest struct {
	Input   map[string]any `json:"input"`
	Outputs []string       `json:"outputs"`
}

// PredictInvoice handles POST /api/invoices/predict.
func (s *Server) PredictInvoice(w http.ResponseWriter, r *http.Request) {
	var req invoiceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Input) == 0 {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "input is required")
		return
	}
	out, err := s.svc.Predictor.Invoice(r.Context(), req.Input, req.Outputs)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ListProducts handles GET /api/products?limit=&ids=.
func (s *Server) ListProducts(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	ids, ok := queryString(w, r, "ids", false)
	if !ok {
		return
	}
	if ids != "" {
		products, err := s.svc.Catalog.ProductsByIDs(r.Context(), strings.Split(ids, ","))
		if err != nil {
			s.handleDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, products)
		return
	}
	products, err := s.svc.Catalog.Products(r.Context(), limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// GetProduct handles GET /api/products/{id}.
func (s *Server) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Catalog.Product(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ProductStats handles GET /api/products/{id}/stats.
func (s *Server) ProductStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Analytics.ProductStats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ProductAnalytics handles GET /api/products/{id}/analytics.
func (s *Server) ProductAnalytics(w http.ResponseWriter, r *http.Request) {
	a, err := s.svc.Analytics.ProductAnalytics(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// DistinctValues handles GET /api/distinct?field=.
func (s *Server) DistinctValues(w http.ResponseWriter, r *http.Request) {
	field, ok := queryString(w, r, "field", true)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.svc.Catalog.DistinctValues(r.Context(), field))
}

// Answer handles GET /api/answer?q=.
func (s *Server) Answer(w http.ResponseWriter, r *http.Request) {
	q, ok := queryString(w, r, "q", true)
	if !ok {
		return
	}
	a, err := s.svc.Catalog.Answer(r.Context(), q)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if a == nil {
		s.handleDomainError(w, r, fmt.Errorf("no answer for %q: %w", q, domain.ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Usage handles GET /api/usage.
func (s *Server) Usage(w http.ResponseWriter, r *http.Request) {
	raw, err := s.svc.Usage.Usage(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

// ListTools handles GET /api/tools?kind=.
func (s *Server) ListTools(w http.ResponseWriter, r *http.Request) {
	raw, ok := queryString(w, r, "kind", false)
	if !ok {
		return
	}
	kind, err := session.ParseKind(raw)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.svc.Chat.Tools(kind))
}
