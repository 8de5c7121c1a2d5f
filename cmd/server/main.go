package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/draftaid/draftaid/internal/analyzer"
	"github.com/draftaid/draftaid/internal/api"
	"github.com/draftaid/draftaid/internal/auth"
	"github.com/draftaid/draftaid/internal/config"
	"github.com/draftaid/draftaid/internal/core"
	"github.com/draftaid/draftaid/internal/retry"
	"github.com/draftaid/draftaid/internal/store"
)

func main() {
	cfg := config.Load()

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	// Select the analyzer backend
	var textAnalyzer core.TextAnalyzer
	switch cfg.LLMProvider {
	case "gemini":
		gemini, err := analyzer.NewGeminiAnalyzer(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
		if err != nil {
			logger.Fatal("failed to initialize gemini analyzer", zap.Error(err))
		}
		defer gemini.Close()
		textAnalyzer = gemini
	case "openai":
		oa, err := analyzer.NewOpenAIAnalyzer(cfg.OpenAIAPIKey, cfg.OpenAIModel, logger)
		if err != nil {
			logger.Fatal("failed to initialize openai analyzer", zap.Error(err))
		}
		textAnalyzer = oa
	case "mock":
		textAnalyzer = analyzer.NewMockAnalyzer()
	}

	// Pattern storage: in memory by default, sqlite when PATTERN_DB is set
	var patterns store.PatternStore
	if cfg.PatternDB != "" {
		sqlStore, err := store.NewSQLitePatternStore(cfg.PatternDB)
		if err != nil {
			logger.Fatal("failed to initialize pattern database", zap.Error(err))
		}
		patterns = sqlStore
		logger.Info("using sqlite pattern store", zap.String("path", cfg.PatternDB))
	} else {
		patterns = store.NewMemoryPatternStore()
	}
	defer patterns.Close()

	executor := retry.NewExecutor(cfg.MaxRetries, cfg.RetryBaseDelay, cfg.RetryMaxDelay, logger)
	breaker := retry.NewBreaker(cfg.BreakerThreshold, cfg.BreakerResetTimeout)

	scoring := core.NewScoringEngine()
	orchestrator := core.NewOrchestrator(textAnalyzer, scoring, patterns, executor, breaker, logger)

	authenticator := auth.NewAuthenticator(cfg.JWTSecret, cfg.APIKey)
	apiHandler := api.NewAPIHandler(orchestrator, authenticator, logger)
	router := api.NewRouter(apiHandler)

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // analysis calls can take time
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("starting server",
			zap.String("addr", serverAddr),
			zap.String("llm_provider", cfg.LLMProvider))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("could not listen", zap.String("addr", serverAddr), zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server exited gracefully")
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
