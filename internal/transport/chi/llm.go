package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/AitoDotAI/aito-demo/internal/domain"
	llm "github.com/AitoDotAI/aito-demo/internal/transport/openai"
	healthuc "github.com/AitoDotAI/aito-demo/internal/usecase/health"
)

// proxyError is the error body of the LLM proxy endpoints.
type proxyError struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    any    `json:"code,omitempty"`
	Type    string `json:"type,omitempty"`
}

type healthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.svc.Health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthResponse{
		Status:    string(report.Status),
		Timestamp: report.Timestamp,
		Checks:    checks,
	})
}

// ChatCompletions handles POST /api/chat/completions.
func (s *Server) ChatCompletions(w http.ResponseWriter, r *http.Request) {
	var req llm.ProxyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, proxyError{Error: "Invalid request: messages array is required"})
		return
	}

	resp, err := s.svc.LLM.Proxy(r.Context(), req)
	if err != nil {
		s.writeProxyError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListModels handles GET /api/models.
func (s *Server) ListModels(w http.ResponseWriter, r *http.Request) {
	models, err := s.svc.LLM.ListModels(r.Context())
	if err != nil {
		s.requestLogger(r).Warn("list models failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, proxyError{Error: "Failed to fetch models", Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, models)
}

func (s *Server) writeProxyError(w http.ResponseWriter, r *http.Request, err error) {
	s.requestLogger(r).Warn("chat completion failed", zap.Error(err))

	var apiErr *llm.APIError
	switch {
	case errors.Is(err, domain.ErrLLMNotConfigured):
		writeJSON(w, http.StatusInternalServerError, proxyError{
			Error:   "Azure OpenAI client not properly configured",
			Message: "Please check your Azure OpenAI environment variables",
		})
	case errors.Is(err, domain.ErrInvalidRequest):
		writeJSON(w, http.StatusBadRequest, proxyError{Error: "Invalid request: messages array is required"})
	case errors.As(err, &apiErr):
		msg := apiErr.Message
		if msg == "" {
			msg = "OpenAI API error"
		}
		writeJSON(w, apiErr.HTTPStatus(), proxyError{Error: msg, Code: apiErr.Code, Type: apiErr.Type})
	default:
		writeJSON(w, http.StatusInternalServerError, proxyError{Error: "Internal server error", Message: err.Error()})
	}
}
