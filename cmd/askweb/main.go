package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/askweb/askweb/internal/api"
	"github.com/askweb/askweb/internal/config"
	"github.com/askweb/askweb/internal/llm"
	"github.com/askweb/askweb/internal/search"
	"github.com/askweb/askweb/internal/service"
	"go.uber.org/zap"
)

var (
	configPath = flag.String("config", "", "Path to config file")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Initialize outbound clients
	searchClient := search.NewClient(cfg.Search, logger)

	provider, err := llm.New(cfg.LLM, logger)
	if err != nil {
		logger.Fatal("Failed to create LLM provider", zap.Error(err))
	}

	// Initialize services
	chatService := service.NewChatService(cfg, searchClient, provider, logger)

	// Setup router
	router := api.SetupRouter(chatService, logger, api.RouterConfig{
		AllowOrigins: []string{"*"},
	})

	// Create HTTP server. The write timeout covers the whole streamed
	// response, so it is sized to the LLM timeout rather than a normal
	// request budget.
	srv := &http.Server{
		Addr:         cfg.Address(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.LLM.Timeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Starting AskWeb server",
			zap.String("address", cfg.Address()),
			zap.String("llm_provider", cfg.LLM.Provider),
			zap.String("llm_model", cfg.LLM.Model),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
