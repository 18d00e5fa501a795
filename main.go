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

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/companionai/counsel/internal/adapter/llm"
	"github.com/companionai/counsel/internal/agent"
	"github.com/companionai/counsel/internal/config"
	"github.com/companionai/counsel/internal/domain"
	"github.com/companionai/counsel/internal/pipeline"
	"github.com/companionai/counsel/internal/policy"
	"github.com/companionai/counsel/internal/service"
	"github.com/companionai/counsel/internal/store"
	v1 "github.com/companionai/counsel/internal/transport/http/v1"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting counseling orchestrator...")
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	log.Printf("Database: %s", cfg.DatabaseURL)
	log.Printf("LLM Base URL: %s", cfg.LLMBaseURL)
	log.Printf("Instruct Model: %s", cfg.InstructModel)
	log.Printf("Guard Model: %s", cfg.GuardModel)

	// Initialize store
	db, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer db.Close()

	// Initialize LLM client and the retrying text generator
	client := llm.NewChatCompleter(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.GuardModel, cfg.LLMTimeout)
	generator := llm.NewGenerator(client, cfg.LLMRetries, cfg.RetryBackoff)

	// Initialize safety policy engine
	ctx := context.Background()
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		log.Fatalf("Failed to initialize policy engine: %v", err)
	}

	// Initialize agents
	gate := agent.NewGate(generator, cfg.GuardModel)
	router := agent.NewRouter(generator, cfg.InstructModel)
	specialists := map[domain.SpecialistKind]pipeline.Responder{
		domain.SpecialistAnxiety: agent.NewAnxietySpecialist(generator, cfg.InstructModel),
		domain.SpecialistCrisis:  agent.NewCrisisHandler(generator, cfg.InstructModel),
		domain.SpecialistGeneral: agent.NewGeneralSupport(generator, cfg.InstructModel),
	}
	judge := agent.NewJudge(generator, cfg.InstructModel)

	// Initialize pipeline and service
	pipe := pipeline.New(gate, router, specialists, judge, policyEngine)
	svc := service.New(db, pipe, cfg)

	// Initialize handler
	h := v1.NewHandler(svc)

	// Create Echo server
	server := echo.New()
	server.HideBanner = true

	// Middleware
	server.Use(middleware.Logger())
	server.Use(middleware.Recover())
	server.Use(middleware.CORS())

	// Register routes
	h.RegisterRoutes(server)

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("API started on port %d", cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down orchestrator...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown server gracefully: %v", err)
	}

	log.Println("Orchestrator stopped")
}
