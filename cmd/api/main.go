package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/universal-data-connector/backend/internal/api/handlers"
	"github.com/universal-data-connector/backend/internal/connector"
	"github.com/universal-data-connector/backend/internal/dispatch"
	"github.com/universal-data-connector/backend/internal/llm"
	"github.com/universal-data-connector/backend/internal/metrics"
	"github.com/universal-data-connector/backend/internal/middleware/ratelimit"
	"github.com/universal-data-connector/backend/internal/storage/sqlite"
	"github.com/universal-data-connector/backend/pkg/config"
	appLogger "github.com/universal-data-connector/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting Universal Data Connector",
		zap.String("version", cfg.App.Version),
		zap.Int("max_results", cfg.Results.MaxResults),
		zap.Int("max_voice_results", cfg.Results.MaxVoiceResults),
	)

	store, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer store.Close()

	err = store.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	// Connectors assume data is always loadable, so seed before serving
	err = store.SeedIfEmpty(cfg.Seed)
	if err != nil {
		appLogger.Fatal("Failed to seed record store", zap.Error(err))
	}

	metrics.Init()

	registry := connector.NewRegistry(store)
	engine := dispatch.NewEngine(registry, store, cfg.Results.MaxResults, cfg.Results.MaxVoiceResults)

	var chatClient *llm.Client
	if cfg.LLM.APIKey != "" {
		chatClient = llm.NewClient(cfg.LLM, engine)
	} else {
		appLogger.Info("No LLM API key configured, /llm/chat disabled")
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-User-ID",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: 120,
		Logger:               appLogger.GetLogger(),
	})
	app.Use(limiter.Middleware())

	dataHandler := handlers.NewDataHandler(engine)
	llmHandler := handlers.NewLLMHandler(engine, store, chatClient)

	data := app.Group("/data")
	data.Get("/crm", dataHandler.GetCRM)
	data.Get("/support", dataHandler.GetSupport)
	data.Get("/analytics", dataHandler.GetAnalytics)
	data.Get("/:source", dataHandler.GetGeneric)

	llmGroup := app.Group("/llm")
	llmGroup.Get("/functions", llmHandler.ListFunctions)
	llmGroup.Post("/call", llmHandler.Call)
	llmGroup.Get("/history", llmHandler.History)
	llmGroup.Post("/chat", llmHandler.Chat)

	app.Get("/metrics", metrics.MetricsHandler())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	app.Get("/health/info", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"app_name":          cfg.App.Name,
			"version":           cfg.App.Version,
			"max_results":       cfg.Results.MaxResults,
			"max_voice_results": cfg.Results.MaxVoiceResults,
		})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
