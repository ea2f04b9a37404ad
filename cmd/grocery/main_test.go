package main

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/AitoDotAI/aito-demo/internal/config"
	logpkg "github.com/AitoDotAI/aito-demo/internal/logger"
	sessionrepo "github.com/AitoDotAI/aito-demo/internal/repository/session"
)

func TestJSONRecoverer(t *testing.T) {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(zap.NewNop()))
	r.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/boom", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected json content type, got %q", ct)
	}
	if !strings.Contains(rr.Body.String(), `"code":"internal_error"`) {
		t.Errorf("unexpected body %s", rr.Body.String())
	}
}

func TestWideEventMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(zap.New(core)))
	r.Get("/api/products/{id}", func(w http.ResponseWriter, req *http.Request) {
		logpkg.FromContext(req.Context()).Info("handler")
		w.WriteHeader(http.StatusNoContent)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/products/6410405082657", http.NoBody))

	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}

	lines := logs.FilterMessage("http_request").All()
	if len(lines) != 1 {
		t.Fatalf("expected one http_request line, got %d", len(lines))
	}
	fields := lines[0].ContextMap()
	if fields["route"] != "/api/products/{id}" {
		t.Errorf("expected route pattern, got %v", fields["route"])
	}
	if fields["status"] != int64(http.StatusNoContent) {
		t.Errorf("expected status 204, got %v", fields["status"])
	}
	if logs.FilterMessage("handler").FilterFieldKey("request_id").Len() != 1 {
		t.Error("expected handler log to carry request_id")
	}
}

func TestOpenSessionStore(t *testing.T) {
	mem, err := openSessionStore(config.SessionsConfig{Driver: config.SessionDriverMemory})
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	if _, ok := mem.(*sessionrepo.MemoryStore); !ok {
		t.Errorf("expected memory store, got %T", mem)
	}

	sq, err := openSessionStore(config.SessionsConfig{
		Driver: config.SessionDriverSQLite,
		Path:   filepath.Join(t.TempDir(), "sessions.db"),
	})
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	defer func() { _ = sq.Close() }()
	if _, ok := sq.(*sessionrepo.SQLiteStore); !ok {
		t.Errorf("expected sqlite store, got %T", sq)
	}

	if _, err := openSessionStore(config.SessionsConfig{Driver: "postgres"}); err == nil {
		t.Error("expected error for unknown driver")
	}
}
