package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/cinerag/internal/config"
	"github.com/kailas-cloud/cinerag/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/cinerag/internal/db/redis"
	logpkg "github.com/kailas-cloud/cinerag/internal/logger"
	"github.com/kailas-cloud/cinerag/internal/metrics"
	cacherepo "github.com/kailas-cloud/cinerag/internal/repository/cache"
	"github.com/kailas-cloud/cinerag/internal/repository/embcache"
	"github.com/kailas-cloud/cinerag/internal/repository/moviesql"
	"github.com/kailas-cloud/cinerag/internal/repository/movievector"
	chiTransport "github.com/kailas-cloud/cinerag/internal/transport/chi"
	openaiProv "github.com/kailas-cloud/cinerag/internal/transport/openai"
	chatuc "github.com/kailas-cloud/cinerag/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/cinerag/internal/usecase/health"
	intentuc "github.com/kailas-cloud/cinerag/internal/usecase/intent"
	retrievaluc "github.com/kailas-cloud/cinerag/internal/usecase/retrieval"
	semanticuc "github.com/kailas-cloud/cinerag/internal/usecase/semantic"
	"github.com/kailas-cloud/cinerag/internal/version"
)

func main() {
	// Load .env if present; real environments use actual env vars.
	_ = godotenv.Load()

	// Load configuration based on ENV
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

	logger.Info("Starting cinerag API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("redis_addrs", cfg.Redis.Addrs),
	)

	// Cache store
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Redis.Addrs,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create cache store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Redis.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Cache store not ready", zap.Error(err))
	}
	logger.Info("Connected to cache store")

	// Movie catalog database
	catalog, err := postgres.NewClient(postgres.Config{
		DSN:          cfg.Postgres.DSN,
		MaxOpenConns: cfg.Postgres.MaxOpenConns,
		MaxIdleConns: cfg.Postgres.MaxIdleConns,
	})
	if err != nil {
		logger.Fatal("Failed to open catalog database", zap.Error(err))
	}
	defer func() { _ = catalog.Close() }()

	if err := catalog.WaitForReady(ctx, time.Duration(cfg.Redis.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Catalog database not ready", zap.Error(err))
	}
	logger.Info("Connected to catalog database")

	// Register LLM and cache metrics explicitly (no init())
	metrics.RegisterMetrics()

	resultCache := cacherepo.New(store, metrics.CacheTotal, logger)

	// Embedder chain: OpenAI -> Cached. The cache key is the raw text, so the
	// query prefix applied upstream is part of the key.
	baseEmbedder := openaiProv.NewEmbedder(&openaiProv.EmbedderConfig{
		APIKey:     cfg.OpenAI.APIKey,
		BaseURL:    cfg.OpenAI.BaseURL,
		Model:      cfg.OpenAI.EmbeddingModel,
		Dimensions: cfg.OpenAI.Dimensions,
		Provider:   cfg.OpenAI.Provider,
		Timeout:    time.Duration(cfg.OpenAI.TimeoutSec) * time.Second,
		Logger:     logger,
	})
	embedder := embcache.New(baseEmbedder, resultCache, logger)

	completer := openaiProv.NewCompleter(&openaiProv.CompleterConfig{
		APIKey:   cfg.OpenAI.APIKey,
		BaseURL:  cfg.OpenAI.BaseURL,
		Model:    cfg.OpenAI.ChatModel,
		Provider: cfg.OpenAI.Provider,
		Timeout:  time.Duration(cfg.OpenAI.TimeoutSec) * time.Second,
		Logger:   logger,
	})
	logger.Info("LLM providers created",
		zap.String("provider", cfg.OpenAI.Provider),
		zap.String("chat_model", cfg.OpenAI.ChatModel),
		zap.String("embedding_model", cfg.OpenAI.EmbeddingModel),
	)

	// Repositories over the catalog pool
	movieRepo := moviesql.New(catalog.DB())
	vectorRepo := movievector.New(catalog.DB())

	// Use case services
	intentSvc := intentuc.New(completer, logger)
	semanticSvc := semanticuc.New(vectorRepo, embedder, resultCache, logger)
	retrievalSvc := retrievaluc.New(movieRepo, semanticSvc, resultCache, logger)
	chatSvc := chatuc.New(intentSvc, retrievalSvc, completer, logger)
	healthSvc := healthuc.New(catalog, store, baseEmbedder)

	server := chiTransport.NewServer(
		chatSvc, retrievalSvc, movieRepo, resultCache, healthSvc,
		cfg.Retrieval.HistoryLimit,
		time.Duration(cfg.HTTP.RequestTimeoutSec)*time.Second,
		logger,
	)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Routes(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

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
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
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

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
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
