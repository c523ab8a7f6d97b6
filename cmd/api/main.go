package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/ai-horizon/backend/internal/api/handlers"
	"github.com/ai-horizon/backend/internal/cache/redis"
	"github.com/ai-horizon/backend/internal/classify"
	"github.com/ai-horizon/backend/internal/costs"
	"github.com/ai-horizon/backend/internal/impact"
	"github.com/ai-horizon/backend/internal/ingestion"
	"github.com/ai-horizon/backend/internal/llm"
	"github.com/ai-horizon/backend/internal/metrics"
	"github.com/ai-horizon/backend/internal/middleware/security"
	"github.com/ai-horizon/backend/internal/middleware/validation"
	"github.com/ai-horizon/backend/internal/ratelimit"
	"github.com/ai-horizon/backend/internal/scoring"
	"github.com/ai-horizon/backend/internal/storage/sqlite"
	"github.com/ai-horizon/backend/internal/taxonomy"
	"github.com/ai-horizon/backend/pkg/config"
	appLogger "github.com/ai-horizon/backend/pkg/logger"
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

	appLogger.Info("Starting AI Horizon classification engine API")

	metrics.Init()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	err = sqliteClient.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	var cacheClient *redis.Client
	if cfg.Redis.Enabled {
		cacheClient, err = redis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			appLogger.Warn("Redis unavailable, continuing without cache", zap.Error(err))
			cacheClient = nil
		} else {
			defer cacheClient.Close()
		}
	}

	llmClient := llm.NewClient(
		cfg.LLM.APIKey,
		cfg.LLM.Model,
		cfg.LLM.Temperature,
		cfg.LLM.MaxTokens,
		cfg.LLM.TimeoutSec,
	)

	limiter := ratelimit.New(appLogger.GetLogger())
	limiter.SetLimit(classify.ServiceKey, cfg.LLM.RequestsPerMinute)
	limiter.SetLimit(scoring.ServiceKey, cfg.LLM.RequestsPerMinute)
	defer limiter.Stop()

	tracker := costs.NewTracker(sqliteClient, cfg.LLM.CostPer1KTokens)

	normalizer := ingestion.NewNormalizer()
	classifier := classify.NewClassifier(llmClient, limiter, tracker, cfg.Classifier.ExcerptChars)
	scorer := scoring.NewScorer(llmClient, limiter, tracker, cfg.Scorer.ExcerptChars)

	policy := impact.DefaultPolicy()
	if category, ok := taxonomy.ParseCategory(cfg.Impact.ZeroMatchCategory); ok {
		policy.ZeroMatchCategory = category
		policy.ZeroMatchConfidence = cfg.Impact.ZeroMatchConfidence
	}
	if category, ok := taxonomy.ParseCategory(cfg.Impact.ManagementCategory); ok {
		policy.ManagementCategory = category
		policy.ManagementConfidence = cfg.Impact.ManagementConfidence
	}
	analyzer := impact.NewAnalyzer(policy)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))
	app.Use(validation.Middleware(validation.Config{Logger: appLogger.GetLogger()}))

	cacheTTL := time.Duration(cfg.Redis.TTLHours) * time.Hour
	artifactHandler := handlers.NewArtifactHandler(normalizer, classifier, scorer, sqliteClient, cacheClient, cacheTTL, cfg.Classifier.MultiClass)
	impactHandler := handlers.NewImpactHandler(analyzer, sqliteClient)
	taxonomyHandler := handlers.NewTaxonomyHandler(sqliteClient)
	wsHandler := handlers.NewWebSocketHandler(analyzer, sqliteClient, cfg.Impact.MaxConcurrentWorkRoles)

	api := app.Group("/api/v1")

	api.Post("/artifacts", artifactHandler.ProcessArtifact)
	api.Post("/artifacts/classify", artifactHandler.ClassifyArtifact)
	api.Post("/artifacts/score", artifactHandler.ScoreArtifact)
	api.Get("/artifacts/:id", artifactHandler.GetArtifactResults)

	api.Post("/impact/analyze", impactHandler.AnalyzeWorkRole)
	api.Get("/impact", impactHandler.GetWorkRoleImpacts)

	api.Post("/cache/invalidate", func(c *fiber.Ctx) error {
		if cacheClient == nil {
			return c.JSON(fiber.Map{"status": "cache disabled"})
		}
		if err := cacheClient.InvalidateAll(c.Context()); err != nil {
			appLogger.Error("Cache invalidation failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to invalidate cache",
			})
		}
		return c.JSON(fiber.Map{"status": "invalidated"})
	})

	api.Get("/taxonomy", taxonomyHandler.GetTaxonomy)
	api.Get("/taxonomy/counts", taxonomyHandler.GetCategoryCounts)
	api.Get("/usage/summary", taxonomyHandler.GetUsageSummary)

	app.Get("/metrics", metrics.MetricsHandler())

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/impact", websocket.New(wsHandler.HandleConnection))

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ready",
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
