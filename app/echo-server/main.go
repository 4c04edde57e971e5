package main

import (
	"context"
	"fmt"
	"log"
	"myStyleFit/app/echo-server/router"
	"myStyleFit/business/catalog"
	"myStyleFit/business/embedding"
	"myStyleFit/business/keyword"
	"myStyleFit/business/recommend"
	"myStyleFit/business/rerank"
	"myStyleFit/internal/middleware"
	"myStyleFit/internal/repository/analyzer"
	fileRepo "myStyleFit/internal/repository/file"
	"myStyleFit/internal/repository/llm"
	"myStyleFit/internal/repository/memory"
	psqlRepo "myStyleFit/internal/repository/postgres"
	redisRepo "myStyleFit/internal/repository/redis"
	"myStyleFit/internal/rest"
	"myStyleFit/pkg/config"
	"myStyleFit/pkg/database"
	redisDB "myStyleFit/pkg/database/redis"
	"myStyleFit/pkg/logger"
	"myStyleFit/pkg/metrics"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment, cfg.Log.Level, cfg.Log.File)
	defer logger.Sync()
	logger.Info("Starting Style Fit recommendation API", "version", cfg.App.Version)

	metrics.Init()

	// Catalog source
	var loader catalog.Loader
	switch cfg.Catalog.Source {
	case config.CatalogSourceFile:
		loader = fileRepo.NewCatalogLoader(cfg.Catalog.Path)
		logger.Info("Using file catalog", "path", cfg.Catalog.Path)
	default:
		db, err := database.InitPostgres(cfg)
		if err != nil {
			logger.Fatal("Failed to connect to database", "error", err)
		}
		logger.Info("Database connected successfully")
		loader = psqlRepo.NewProductRepository(db, cfg.Catalog.LoadPopularity)
	}

	store := catalog.NewStore(loader)
	loadCtx, loadCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	if _, err := store.Refresh(loadCtx); err != nil {
		// serve 503 until a refresh succeeds
		logger.Error("Initial catalog load failed", "error", err)
	}
	loadCancel()

	// Rerank
	var reranker rerank.Reranker
	if cfg.Rerank.RerankConfigured() {
		var cache rerank.RankCache
		if cfg.Redis.Enabled {
			client, err := redisDB.NewRedisClient(cfg.Redis)
			if err != nil {
				logger.Warn("Redis unavailable, using in-process rank cache", "error", err)
			} else {
				defer redisDB.CloseRedisClient(client)
				cache = redisRepo.NewRankCache(client, cfg.Rerank.CacheTTL)
			}
		}
		if cache == nil {
			cache = memory.NewRankCache(cfg.Rerank.CacheTTL)
		}

		ranker := llm.NewRankerClient(llm.ClientConfig{
			Endpoint:         cfg.Rerank.Endpoint,
			APIKey:           cfg.Rerank.APIKey,
			DeploymentID:     cfg.Rerank.DeploymentID,
			APIVersion:       cfg.Rerank.APIVersion,
			MaxTokens:        cfg.Rerank.MaxTokens,
			Temperature:      cfg.Rerank.Temperature,
			RatePerSecond:    cfg.Rerank.RatePerSecond,
			FailureThreshold: cfg.Rerank.FailureTrip,
			OpenTimeout:      cfg.Rerank.BreakerOpen,
		})
		reranker = rerank.NewGuarded(ranker, cache, rerank.GuardedConfig{
			Timeout:       cfg.Rerank.Timeout,
			MaxCandidates: cfg.Rerank.MaxCandidates,
		})
		logger.Info("LLM rerank enabled", "deployment", cfg.Rerank.DeploymentID)
	}

	// Style analyzer
	var styleAnalyzer recommend.StyleAnalyzer
	if cfg.Analyzer.URL != "" {
		styleAnalyzer = analyzer.NewHTTPAnalyzer(cfg.Analyzer.URL, cfg.Analyzer.Timeout)
	}

	var prior embedding.PriorFunc
	if cfg.Catalog.UsePopularityPrior {
		prior = embedding.PopularityPrior
	}

	// Init service
	recommendService := recommend.NewService(
		store,
		keyword.NewIndex(keyword.Config{
			ExactWeight:   cfg.Index.ExactWeight,
			PartialWeight: cfg.Index.PartialWeight,
		}),
		embedding.NewRecommender(embedding.Config{PriceDecay: cfg.Embedding.PriceDecay}, prior),
		reranker,
		styleAnalyzer,
		recommend.DefaultConfig(),
	)

	// Init handler
	recommendHandler := rest.NewRecommendHandler(recommendService, cfg.Server.RequestTimeout)
	adminHandler := rest.NewAdminHandler(recommendService)
	healthHandler := rest.NewHealthHandler(cfg.App.Name, cfg.App.Version)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// HTTP error handler
	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.TraceContext())
	e.Use(echomiddleware.BodyLimit("20M"))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderXRequestID},
	}))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Setup routes
	api := e.Group("/api/v1", middleware.Metrics())
	router.SetHealthRoutes(api, healthHandler)
	router.SetRecommendRoutes(api, recommendHandler)
	router.SetAdminRoutes(api, adminHandler)

	// Periodic catalog refresh
	refreshCtx, stopRefresh := context.WithCancel(context.Background())
	go catalog.NewRefresher(store, cfg.Catalog.RefreshInterval).Run(refreshCtx)

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stopRefresh()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Server stopped")
}
