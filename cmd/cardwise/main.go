// Cardwise - credit card recommendations for every purchase.

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

	"github.com/VihaanShah2004/cardwise/internal/api"
	"github.com/VihaanShah2004/cardwise/internal/bus"
	"github.com/VihaanShah2004/cardwise/internal/cache"
	"github.com/VihaanShah2004/cardwise/internal/catalog"
	"github.com/VihaanShah2004/cardwise/internal/category"
	"github.com/VihaanShah2004/cardwise/internal/config"
	"github.com/VihaanShah2004/cardwise/internal/domain"
	"github.com/VihaanShah2004/cardwise/internal/engine"
	"github.com/VihaanShah2004/cardwise/internal/insights"
	"github.com/VihaanShah2004/cardwise/internal/metrics"
	"github.com/VihaanShah2004/cardwise/internal/profile"
	"github.com/VihaanShah2004/cardwise/internal/ranker"
	"github.com/VihaanShah2004/cardwise/internal/repository"
	"github.com/VihaanShah2004/cardwise/internal/rules"
	"github.com/VihaanShah2004/cardwise/internal/worker"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	initLogger(cfg.Logging)

	// Log startup
	slog.Info("starting cardwise",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)
	slog.Info("configuration loaded",
		"tier", cfg.Tier,
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
	)

	metrics.Init()

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Initialize Repository
	repo, err := repository.New(cfg.Repository)
	if err != nil {
		slog.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("repository initialized", "driver", cfg.Repository.Driver)

	// Initialize Cache
	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	// Initialize EventBus
	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	// Load card catalog (embedded unless overridden)
	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		slog.Error("failed to load card catalog", "error", err)
		os.Exit(1)
	}
	slog.Info("card catalog loaded", "cards", cat.Len())

	// Initialize the scoring engine and ranker
	scoringEngine, err := engine.New(cfg.Weights, category.NewRotatingPolicy())
	if err != nil {
		slog.Error("failed to initialize scoring engine", "error", err)
		os.Exit(1)
	}
	rk := ranker.New(scoringEngine)
	slog.Info("scoring engine initialized", "version", engine.Version)

	// Initialize eligibility rules engine
	rulesEngine, err := rules.NewEngine()
	if err != nil {
		slog.Error("failed to initialize rules engine", "error", err)
		os.Exit(1)
	}
	if err := loadRulesFromDatabase(ctx, repo, rulesEngine); err != nil {
		slog.Error("failed to load eligibility rules", "error", err)
		os.Exit(1)
	}
	slog.Info("rules engine initialized", "rules_count", rulesEngine.RulesCount())

	// Initialize insights service
	insightsSvc := insights.NewService(cat, scoringEngine)

	// Initialize the background profile worker
	aggregator := profile.NewAggregator(repo, cacheImpl)
	profileWorker := worker.NewWorker(busImpl, aggregator)
	if err := profileWorker.Start(); err != nil {
		slog.Error("failed to start profile worker", "error", err)
		os.Exit(1)
	}
	slog.Info("profile worker started")

	// Initialize Server
	srv := api.NewServer(cfg.Server, repo, cacheImpl, busImpl, cat, rk, rulesEngine, insightsSvc, Version)

	// Start Server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("cardwise is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	// Stop the worker first so in-flight profile refreshes finish
	if err := profileWorker.Stop(); err != nil {
		slog.Error("failed to stop profile worker", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("cardwise shutdown complete")
}

func initLogger(cfg domain.LoggingConfig) {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(handler))
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path != "" {
		slog.Info("loading card catalog from file", "path", path)
		return catalog.LoadFile(path)
	}
	return catalog.Load()
}

// loadRulesFromDatabase loads eligibility rules into the engine. A fresh
// database falls back to the builtin rule set.
func loadRulesFromDatabase(ctx context.Context, repo domain.Repository, engine *rules.Engine) error {
	dbRules, err := repo.ListEligibilityRules(ctx)
	if err != nil {
		slog.Warn("failed to list rules from database", "error", err)
		return engine.LoadRules(rules.BuiltinRules())
	}

	if len(dbRules) > 0 {
		slog.Info("loading rules from database", "count", len(dbRules))
		return engine.LoadRules(dbRules)
	}

	slog.Info("no rules in database, loading builtin rules")
	return engine.LoadRules(rules.BuiltinRules())
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════╗")
	fmt.Println("  ║               💳 CARDWISE                 ║")
	fmt.Println("  ║     Credit Card Recommendation Engine     ║")
	fmt.Println("  ║      The right card, every purchase.      ║")
	fmt.Println("  ╚═══════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Tier:     %s\n", cfg.Tier)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST /recommend             - Recommend a card for a purchase")
	fmt.Println("    POST /score                 - Score one card for a purchase")
	fmt.Println("    GET  /recommendations/{id}  - Get recommendation by ID")
	fmt.Println("    GET  /cards                 - List the card catalog")
	fmt.Println("    GET  /cards/{id}            - Get catalog card by ID")
	fmt.Println("    GET  /users/cards           - List your cards")
	fmt.Println("    POST /users/cards           - Add a card to your profile")
	fmt.Println("    DELETE /users/cards/{id}    - Remove a card")
	fmt.Println("    POST /users/preferences     - Set spending preferences")
	fmt.Println("    PUT  /users/profile         - Update credit tier and income")
	fmt.Println("    GET  /users/analysis        - Spending analysis and suggestions")
	fmt.Println("    GET  /rules                 - List eligibility rules")
	fmt.Println("    POST /rules                 - Create an eligibility rule")
	fmt.Println("    POST /rules/reload          - Hot-reload rules from database")
	fmt.Println("    GET  /health                - Health check")
	fmt.Println("    GET  /metrics               - Prometheus metrics")
	fmt.Println()
}
