// Package chi serves the grocery API, session chat and the LLM proxy over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/AitoDotAI/aito-demo/internal/domain"
	logpkg "github.com/AitoDotAI/aito-demo/internal/logger"
	"github.com/AitoDotAI/aito-demo/internal/transport/aito"
)

// ErrorCode is a machine-readable error code.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest          ErrorCode = "bad_request"
	CodeValidationFailed    ErrorCode = "validation_failed"
	CodeUnauthorized        ErrorCode = "unauthorized"
	CodeNotFound            ErrorCode = "not_found"
	CodeUnknownPersona      ErrorCode = "unknown_persona"
	CodeCartFull            ErrorCode = "cart_full"
	CodeRateLimited         ErrorCode = "rate_limited"
	CodeUpstreamTimeout     ErrorCode = "upstream_timeout"
	CodeUpstreamAuth        ErrorCode = "upstream_auth_failed"
	CodeUpstreamUnavailable ErrorCode = "upstream_unavailable"
	CodeLLMNotConfigured    ErrorCode = "llm_not_configured"
	CodeLLMProvider         ErrorCode = "llm_provider_error"
	CodeInternalError       ErrorCode = "internal_error"
)

// ErrorResponse is the error body of the grocery API.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers.
type Server struct {
	svc           Services
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(svc Services, logger *zap.Logger) *Server {
	s := &Server{svc: svc, logger: logger}
	s.errorHandlers = []errorHandler{
		rateLimitHandler,
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrUnknownPersona, http.StatusBadRequest, CodeUnknownPersona),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrCartFull, http.StatusConflict, CodeCartFull),
		sentinelHandler(domain.ErrTimeout, http.StatusGatewayTimeout, CodeUpstreamTimeout),
		sentinelHandler(domain.ErrUpstreamAuth, http.StatusBadGateway, CodeUpstreamAuth),
		sentinelHandler(domain.ErrUpstreamUnavailable, http.StatusBadGateway, CodeUpstreamUnavailable),
		sentinelHandler(domain.ErrLLMNotConfigured, http.StatusServiceUnavailable, CodeLLMNotConfigured),
		sentinelHandler(domain.ErrLLMProvider, http.StatusBadGateway, CodeLLMProvider),
	}
	return s
}

// Routes mounts every endpoint on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/api/chat/completions", s.ChatCompletions)
	r.Get("/api/models", s.ListModels)

	r.Route("/api", func(r chi.Router) {
		r.Get("/personas", s.ListPersonas)
		r.Get("/search", s.SearchProducts)
		r.Get("/autocomplete", s.Autocomplete)
		r.Post("/recommendations", s.Recommendations)
		r.Get("/autofill", s.Autofill)
		r.Get("/tags", s.TagSuggestions)
		r.Post("/prompt", s.AnalyzePrompt)
		r.Get("/relate", s.Relate)
		r.Post("/invoices/predict", s.PredictInvoice)
		r.Get("/distinct", s.DistinctValues)
		r.Get("/answer", s.Answer)
		r.Get("/usage", s.Usage)
		r.Get("/tools", s.ListTools)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", s.ListProducts)
			r.Get("/{id}", s.GetProduct)
			r.Get("/{id}/stats", s.ProductStats)
			r.Get("/{id}/analytics", s.ProductAnalytics)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.CreateSession)
			r.Group(func(r chi.Router) {
				r.Use(sessionLogger)
				r.Get("/{id}", s.GetSession)
				r.Delete("/{id}", s.DeleteSession)
				r.Put("/{id}/persona", s.SwitchPersona)
				r.Post("/{id}/cart", s.AddToCart)
				r.Delete("/{id}/cart/{productID}", s.RemoveFromCart)
				r.Post("/{id}/messages", s.SendMessage)
				r.Delete("/{id}/messages", s.ClearMessages)
			})
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// decodeBody reads a JSON request body into v, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// safeDomainMessage returns a message for the client without exposing internals.
// Errors caused by the request keep their detail; upstream failures show the sentinel only.
func safeDomainMessage(err error) string {
	for _, s := range []error{domain.ErrInvalidRequest, domain.ErrUnknownPersona, domain.ErrNotFound, domain.ErrCartFull} {
		if errors.Is(err, s) && !errors.As(err, new(*aito.APIError)) {
			return err.Error()
		}
	}
	sentinels := []error{
		domain.ErrInvalidRequest,
		domain.ErrRateLimited,
		domain.ErrTimeout,
		domain.ErrUpstreamAuth,
		domain.ErrUpstreamUnavailable,
		domain.ErrLLMNotConfigured,
		domain.ErrLLMProvider,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// rateLimitHandler handles ErrRateLimited and relays Retry-After when the upstream sent one.
func rateLimitHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrRateLimited) {
		return false
	}
	var apiErr *aito.APIError
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(apiErr.RetryAfter.Seconds())))
	}
	writeError(w, http.StatusTooManyRequests, CodeRateLimited, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := s.requestLogger(r)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

// sessionLogger tags the request logger with the {id} session parameter.
// Group middlewares run after routing, so the URL parameter is resolved.
func sessionLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logpkg.WithSession(r.Context(), chi.URLParam(r, "id"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestLogger returns the per-request logger placed by the logging middleware.
func (s *Server) requestLogger(r *http.Request) *zap.Logger {
	return logpkg.FromContext(r.Context())
}
