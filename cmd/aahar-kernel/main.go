package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"github.com/suprovo-labs/aahar/internal/adapters/duckdb"
	"github.com/suprovo-labs/aahar/internal/adapters/llm"
	"github.com/suprovo-labs/aahar/internal/adapters/weather"
	appconfig "github.com/suprovo-labs/aahar/internal/config"
	"github.com/suprovo-labs/aahar/internal/core/services"
	"github.com/suprovo-labs/aahar/internal/rag"
	"github.com/suprovo-labs/aahar/pkg/kernel"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger.Info("starting aahar kernel")

	if err := run(logger); err != nil {
		logger.Error("kernel startup failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		logger.Info("shutting down")
		cancel()
	}()

	cfg, err := appconfig.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	secretKey, err := appconfig.NewSecretKey()
	if err != nil {
		return fmt.Errorf("failed to init secret key: %w", err)
	}

	repo, err := duckdb.NewRepository(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to init repository: %w", err)
	}
	defer repo.Close()

	// Nutrition catalog — falls back to a minimal builtin dataset when the
	// data file is missing or corrupt.
	catalog := services.NewCatalog(logger)
	catalog.LoadFile(cfg.NutritionDataPath)

	// RAG stack: Gemini embeddings over a persistent chromem store, seeded
	// from the knowledge-base corpus on first start.
	embedder, err := rag.NewEmbedder(rag.EmbedderConfig{APIKey: cfg.GeminiAPIKey})
	if err != nil {
		return fmt.Errorf("failed to init embedder: %w", err)
	}
	vectorStore, err := rag.NewVectorStore(rag.StoreConfig{PersistPath: cfg.VectorDir}, embedder)
	if err != nil {
		return fmt.Errorf("failed to init vector store: %w", err)
	}
	if err := rag.Bootstrap(ctx, logger, vectorStore, cfg.KnowledgeBaseURL); err != nil {
		return fmt.Errorf("failed to bootstrap knowledge base: %w", err)
	}
	retriever := rag.NewRetriever(rag.RetrieverConfig{}, vectorStore)

	// LLM adapters: one instance for answers, a colder one for orchestration.
	answerLLM := llm.NewGeminiProvider(cfg.GeminiAPIKey, "", 0.5)
	orchestratorLLM := llm.NewGeminiProvider(cfg.GeminiAPIKey, "", 0.1)
	ensemble := llm.NewGroqEnsemble(logger, cfg.GroqAPIKey)
	weatherClient := weather.NewOpenWeatherClient(cfg.OpenWeatherAPIKey)
	if !weatherClient.Configured() {
		logger.Warn("OPENWEATHER_API_KEY not set, weather-based suggestions disabled")
	}

	// Core services
	eventBus := services.NewEventBus(logger)
	sessionStore := services.NewSessionStore(logger, repo)
	analytics := services.NewAnalytics(logger, repo, eventBus)
	analytics.Start(ctx)

	toolset := services.NewToolset(logger, catalog, retriever, answerLLM, ensemble, weatherClient)
	toolRegistry := toolset.Registry()

	engine := services.NewDecisionEngine(logger, orchestratorLLM)
	agent := services.NewAgentLoop(logger, engine, toolRegistry, sessionStore, analytics)
	analyzer := services.NewMealAnalyzer(logger, catalog, answerLLM)

	apiServer := kernel.NewServer(logger, cfg, secretKey, agent, catalog, analyzer, sessionStore, analytics, vectorStore)

	// CORS Configuration
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: c.Handler(apiServer.Handler()),
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting api server", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("api server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
