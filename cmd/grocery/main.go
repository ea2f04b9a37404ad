package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/AitoDotAI/aito-demo/internal/config"
	dbRedis "github.com/AitoDotAI/aito-demo/internal/db/redis"
	"github.com/AitoDotAI/aito-demo/internal/domain/hit"
	logpkg "github.com/AitoDotAI/aito-demo/internal/logger"
	"github.com/AitoDotAI/aito-demo/internal/metrics"
	"github.com/AitoDotAI/aito-demo/internal/repository/querycache"
	sessionrepo "github.com/AitoDotAI/aito-demo/internal/repository/session"
	"github.com/AitoDotAI/aito-demo/internal/transport/aito"
	chiTransport "github.com/AitoDotAI/aito-demo/internal/transport/chi"
	llm "github.com/AitoDotAI/aito-demo/internal/transport/openai"
	analyticsuc "github.com/AitoDotAI/aito-demo/internal/usecase/analytics"
	cataloguc "github.com/AitoDotAI/aito-demo/internal/usecase/catalog"
	chatuc "github.com/AitoDotAI/aito-demo/internal/usecase/chat"
	healthuc "github.com/AitoDotAI/aito-demo/internal/usecase/health"
	predictuc "github.com/AitoDotAI/aito-demo/internal/usecase/predict"
	promptuc "github.com/AitoDotAI/aito-demo/internal/usecase/prompt"
	recommenduc "github.com/AitoDotAI/aito-demo/internal/usecase/recommend"
	"github.com/AitoDotAI/aito-demo/internal/version"
)

// sessionStore is what the chat service and the janitor need from a session backend.
type sessionStore interface {
	chatuc.SessionStore
	Close() error
}

func main() {
	// .env is optional; real environment variables win.
	envFileErr := godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	if envFileErr != nil {
		logger.Debug("No .env file found, using environment variables")
	}

	logger.Info("Starting grocery API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("built", version.Date),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("aito_url", cfg.Aito.URL),
		zap.String("session_driver", cfg.Sessions.Driver),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterHTTPMetrics()
	metrics.RegisterAitoMetrics()
	metrics.RegisterLLMMetrics()

	aitoClient, err := aito.New(aito.Config{
		BaseURL:       cfg.Aito.URL,
		APIKey:        cfg.Aito.APIKey,
		Timeout:       time.Duration(cfg.Aito.TimeoutSec) * time.Second,
		UploadTimeout: time.Duration(cfg.Aito.UploadSec) * time.Second,
		MaxRetries:    cfg.Aito.MaxRetries,
		BaseDelay:     cfg.Aito.BaseDelay,
		RateLimit:     cfg.Aito.RateLimit.MaxCalls,
		RateWindow:    cfg.Aito.RateLimit.Window,
		Logger:        logger,
	})
	if err != nil {
		logger.Fatal("Failed to create aito client", zap.Error(err))
	}

	ctx := context.Background()

	// Response cache is an optional decorator around the raw client.
	var poster aito.Poster = aitoClient
	var cachePinger healthuc.CachePinger
	if cfg.Cache.Enabled {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer store.Close()

		if err := store.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Cache not ready", zap.Error(err))
		}
		logger.Info("Connected to cache", zap.Strings("addrs", cfg.Cache.Addrs))

		poster = querycache.New(aitoClient, store, cfg.Cache.TTL, metrics.AitoCacheTotal, logger)
		cachePinger = store
	}
	api := aito.NewAPI(poster)

	sessions, err := openSessionStore(cfg.Sessions)
	if err != nil {
		logger.Fatal("Failed to open session store", zap.Error(err))
	}
	defer func() { _ = sessions.Close() }()

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	if sq, ok := sessions.(*sessionrepo.SQLiteStore); ok && cfg.Sessions.TTL > 0 {
		go cleanupSessions(janitorCtx, sq, cfg.Sessions.TTL, logger)
	}

	llmClient := llm.New(&llm.Config{
		APIKey:       cfg.OpenAI.APIKey,
		Endpoint:     cfg.OpenAI.ModelURL,
		ResourceName: cfg.OpenAI.ResourceName,
		Deployment:   cfg.OpenAI.Deployment,
		APIVersion:   cfg.OpenAI.APIVersion,
		Temperature:  cfg.OpenAI.Temperature,
		MaxTokens:    cfg.OpenAI.MaxTokens,
		Logger:       logger,
	})

	// Use case services
	catalogSvc := cataloguc.New(api, logger)
	recommendSvc := recommenduc.New(api, catalogSvc, hit.Threshold{
		Min:       cfg.Aito.Thresholds.Autofill,
		Inclusive: true,
	})
	predictSvc := predictuc.New(api)
	promptSvc := promptuc.New(api)
	analyticsSvc := analyticsuc.New(api)

	chatSvc := chatuc.New(llmClient, sessions, chatuc.Deps{
		Catalog:     catalogSvc,
		Recommender: recommendSvc,
		Predictor:   predictSvc,
		Prompts:     promptSvc,
		Analytics:   analyticsSvc,
		Queries:     api,
	}, logger)

	healthSvc := healthuc.New(aitoClient, llmClient, cachePinger)

	server := chiTransport.NewServer(chiTransport.Services{
		Catalog:     catalogSvc,
		Recommender: recommendSvc,
		Predictor:   predictSvc,
		Prompts:     promptSvc,
		Analytics:   analyticsSvc,
		Chat:        chatSvc,
		LLM:         llmClient,
		Health:      healthSvc,
		Usage:       aitoClient,
	}, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.CORS(cfg.CORS.AllowedOrigins))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"code":    "not_found",
			"message": "route not found",
		})
	})
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server",
			zap.String("addr", addr),
			zap.String("health", "/health"),
			zap.String("chat", "/api/chat/completions"),
			zap.String("models", "/api/models"),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")
	stopJanitor()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// openSessionStore picks the session backend configured by driver.
func openSessionStore(cfg config.SessionsConfig) (sessionStore, error) {
	switch cfg.Driver {
	case config.SessionDriverSQLite:
		st, err := sessionrepo.NewSQLite(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite sessions %s: %w", cfg.Path, err)
		}
		return st, nil
	case config.SessionDriverMemory:
		return sessionrepo.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown session driver %q", cfg.Driver)
	}
}

// cleanupSessions deletes stale sessions every ttl/4 until ctx is done.
func cleanupSessions(ctx context.Context, st *sessionrepo.SQLiteStore, ttl time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(ttl / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := st.CleanupExpired(ctx, ttl)
			if err != nil {
				logger.Warn("session cleanup failed", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("expired sessions removed", zap.Int64("count", n))
			}
		}
	}
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.String("path", r.URL.Path),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", route),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
