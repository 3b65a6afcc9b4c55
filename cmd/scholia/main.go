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
	"go.uber.org/zap"

	"github.com/scholia-dev/scholia/internal/config"
	"github.com/scholia-dev/scholia/internal/db"
	dbRedis "github.com/scholia-dev/scholia/internal/db/redis"
	"github.com/scholia-dev/scholia/internal/domain"
	logpkg "github.com/scholia-dev/scholia/internal/logger"
	"github.com/scholia-dev/scholia/internal/metrics"
	"github.com/scholia-dev/scholia/internal/repository/embcache"
	fragmentrepo "github.com/scholia-dev/scholia/internal/repository/fragment"
	chiTransport "github.com/scholia-dev/scholia/internal/transport/chi"
	openaiEmb "github.com/scholia-dev/scholia/internal/transport/openai"
	"github.com/scholia-dev/scholia/internal/transport/rerank"
	embeddinguc "github.com/scholia-dev/scholia/internal/usecase/embedding"
	healthuc "github.com/scholia-dev/scholia/internal/usecase/health"
	ingestuc "github.com/scholia-dev/scholia/internal/usecase/ingest"
	retrievaluc "github.com/scholia-dev/scholia/internal/usecase/retrieval"
	"github.com/scholia-dev/scholia/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting scholia API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register pipeline metrics explicitly (no init())
	metrics.RegisterPipelineMetrics()

	// Build embedder chain — composition root
	baseEmbedder := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Timeout:    time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
		Logger:     logger,
	})
	embedder := buildEmbedder(baseEmbedder, cfg, store, logger)
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Bool("cache", !cfg.Embedding.CacheOff),
	)

	// Relevance model. Empty endpoint disables re-ranking: results keep
	// fusion order.
	var scorer retrievaluc.RelevanceScorer
	var rerankChecker healthuc.RerankChecker
	if cfg.Reranker.Endpoint != "" {
		client := rerank.New(&rerank.Config{
			Endpoint: cfg.Reranker.Endpoint,
			APIKey:   cfg.Reranker.APIKey,
			Model:    cfg.Reranker.Model,
			Timeout:  time.Duration(cfg.Reranker.TimeoutSec) * time.Second,
			Logger:   logger,
		})
		scorer = client
		rerankChecker = client
		logger.Info("Relevance model configured", zap.String("model", cfg.Reranker.Model))
	} else {
		logger.Warn("No relevance model configured, re-ranking disabled")
	}

	// Repository
	fragRepo := fragmentrepo.New(store, fragmentrepo.Options{
		KeyPrefix:       cfg.Storage.KeyPrefix,
		VectorDim:       cfg.Embedding.Dimensions,
		HNSWM:           cfg.Index.HNSWM,
		HNSWEFConstruct: cfg.Index.HNSWEFConstruct,
	})

	// Use case services
	retrievalSvc := retrievaluc.New(fragRepo, embedder, scorer, nil, retrievaluc.Config{
		ContextBudget: cfg.Retrieval.ContextBudget,
	})
	ingestSvc := ingestuc.New(fragRepo, fragRepo, embedder).
		WithMaxBatchSize(cfg.Index.MaxBatchSize)
	healthSvc := healthuc.New(store, baseEmbedder, rerankChecker)

	if err := ingestSvc.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure fragment index", zap.Error(err))
	}
	logger.Info("Fragment index ready", zap.String("index", fragRepo.IndexName()))

	server := chiTransport.NewServer(retrievalSvc, ingestSvc, healthSvc, logger).
		WithRetrievalDefaults(cfg.Retrieval.TopK, cfg.Retrieval.TopN)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
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

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented.
// The instrumented embedder is returned concretely: retrieval needs Embed,
// ingest needs BatchEmbed.
func buildEmbedder(
	base *openaiEmb.Embedder,
	cfg config.Config,
	store db.Store,
	logger *zap.Logger,
) *embeddinguc.InstrumentedEmbedder {
	var embedder domain.Embedder = base
	if !cfg.Embedding.CacheOff {
		cached := embcache.New(base, store, cfg.Storage.KeyPrefix, metrics.EmbeddingCacheTotal, logger)
		if cfg.Embedding.CacheTTLSec > 0 {
			cached = cached.WithTTL(time.Duration(cfg.Embedding.CacheTTLSec) * time.Second)
		}
		embedder = cached
	}
	return embeddinguc.NewInstrumentedEmbedder(
		embedder, cfg.Embedding.Provider, cfg.Embedding.Model, logger,
	)
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
