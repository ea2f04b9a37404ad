package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/api/products/{id}", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("{}"))
	})

	for _, id := range []string{"6410405082657", "6408430000258"} {
		req := httptest.NewRequest(http.MethodGet, "/api/products/"+id, http.NoBody)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/products/{id}", "200"))
	if got < 2 {
		t.Errorf("expected requests under the route pattern >= 2, got %f", got)
	}
	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Error("expected http_request_duration_seconds to have observations")
	}
}

func TestMiddleware_StatusCodes(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Post("/api/chat/completions", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	r.Get("/api/sessions/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	tests := []struct {
		method, path, pattern, status string
	}{
		{http.MethodPost, "/api/chat/completions", "/api/chat/completions", "400"},
		{http.MethodGet, "/api/sessions/abc", "/api/sessions/{id}", "404"},
	}
	for _, tc := range tests {
		t.Run(tc.pattern, func(t *testing.T) {
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tc.method, tc.path, http.NoBody))
			if v := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(tc.method, tc.pattern, tc.status)); v < 1 {
				t.Errorf("expected requests_total for %s %s >= 1, got %f", tc.pattern, tc.status, v)
			}
		})
	}
}

func TestStatusWriter_FirstStatusWins(t *testing.T) {
	rr := httptest.NewRecorder()
	w := &statusWriter{ResponseWriter: rr, status: http.StatusOK}
	_, _ = w.Write([]byte("body"))
	w.WriteHeader(http.StatusTeapot)
	if w.status != http.StatusOK {
		t.Errorf("expected 200 after implicit write, got %d", w.status)
	}
}

func TestNormalizePath(t *testing.T) {
	if got := normalizePath(""); got != "unknown" {
		t.Errorf("normalizePath(\"\") = %q", got)
	}
	if got := normalizePath("/health"); got != "/health" {
		t.Errorf("normalizePath(/health) = %q", got)
	}
}

func TestDomainMetrics_Exposed(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(AitoRequestsTotal, AitoCacheTotal, LLMTokensTotal, ChatToolCallsTotal)

	AitoRequestsTotal.WithLabelValues("_predict", "200").Inc()
	AitoCacheTotal.WithLabelValues("hit").Inc()
	LLMTokensTotal.WithLabelValues("gpt-4", "prompt").Add(42)
	ChatToolCallsTotal.WithLabelValues("customer", "search_products", "ok").Inc()

	rr := httptest.NewRecorder()
	promhttp.HandlerFor(reg, promhttp.HandlerOpts{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	body := rr.Body.String()
	for _, name := range []string{
		"grocery_aito_requests_total",
		"grocery_aito_cache_total",
		"grocery_llm_tokens_total",
		"grocery_chat_tool_calls_total",
	} {
		if !strings.Contains(body, name) {
			t.Errorf("expected %s in metrics output", name)
		}
	}
}

func TestSurface(t *testing.T) {
	tests := []struct {
		path, want string
	}{
		{"/health", SurfaceOps},
		{"/metrics", SurfaceOps},
		{"/api/chat/completions", SurfaceLLMProxy},
		{"/api/models", SurfaceLLMProxy},
		{"/api/sessions", SurfaceChat},
		{"/api/sessions/abc/messages", SurfaceChat},
		{"/api/sessionsx", SurfaceGrocery},
		{"/api/search", SurfaceGrocery},
		{"/favicon.ico", SurfaceUnknown},
	}
	for _, tc := range tests {
		if got := Surface(tc.path); got != tc.want {
			t.Errorf("Surface(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestMiddleware_InFlightGauge(t *testing.T) {
	gauge := httpRequestsInFlight.WithLabelValues(SurfaceChat)
	before := testutil.ToFloat64(gauge)

	var during float64
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Post("/api/sessions/{id}/messages", func(w http.ResponseWriter, _ *http.Request) {
		during = testutil.ToFloat64(gauge)
		w.WriteHeader(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/sessions/s1/messages", http.NoBody))

	if during != before+1 {
		t.Errorf("expected in-flight %v while serving, got %v", before+1, during)
	}
	if after := testutil.ToFloat64(gauge); after != before {
		t.Errorf("expected in-flight back to %v, got %v", before, after)
	}
}

func TestMiddleware_WithoutRouter(t *testing.T) {
	h := Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/plain", http.NoBody))

	if v := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "unknown", "202")); v < 1 {
		t.Errorf("expected unmatched request under the unknown label, got %f", v)
	}
}
