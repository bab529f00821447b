package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	servingmetrics "opportunityHub/app/echo-server/metrics"
	"opportunityHub/app/echo-server/router"
	"opportunityHub/business/activity"
	"opportunityHub/business/interest"
	"opportunityHub/business/recommendation"
	"opportunityHub/domain"
	"opportunityHub/internal/cache"
	"opportunityHub/internal/middleware"
	"opportunityHub/internal/repository/collaborator"
	"opportunityHub/internal/repository/notification"
	psqlRepo "opportunityHub/internal/repository/postgres"
	redisRepo "opportunityHub/internal/repository/redis"
	"opportunityHub/internal/rest"
	"opportunityHub/internal/worker"
	"opportunityHub/pkg/config"
	"opportunityHub/pkg/database"
	redisdb "opportunityHub/pkg/database/redis"
	"opportunityHub/pkg/logger"
	"opportunityHub/pkg/metrics"
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

	logger.Init(cfg.App.Environment)
	logger.Info("Starting Opportunity Hub Personalization API", "version", cfg.App.Version)

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	logger.Info("Database connected successfully")

	rdb, err := redisdb.NewRedisClient(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to redis", "error", err)
	}

	logger.Info("Redis connected successfully")

	// Init metrics
	metrics.Init()
	servingmetrics.Init()

	// Init collaborator clients
	platformRepo := collaborator.NewPlatformRepository(collaborator.PlatformConfig{
		BaseURL: cfg.Platform.BaseURL,
		APIKey:  cfg.Platform.APIKey,
	})
	notifierRepo := notification.NewNotifierRepository(notification.NotifierConfig{
		BaseURL: cfg.Notification.BaseURL,
		APIKey:  cfg.Notification.APIKey,
	})

	// Init worker pools
	activityPool := worker.NewPool("activity-writer", cfg.Engine.ActivityPoolWorkers, cfg.Engine.ActivityPoolQueue, worker.PolicyCallerRuns)
	recomputePool := worker.NewPool("cache-refresh", cfg.Engine.RecomputePoolWorkers, cfg.Engine.RecomputePoolQueue, worker.PolicyDiscard)
	reactorPool := worker.NewPool("interest-reactor", cfg.Engine.ReactorPoolWorkers, cfg.Engine.ReactorPoolQueue, worker.PolicyDiscard)
	notifyPool := worker.NewPool("notify", cfg.Engine.NotifyPoolWorkers, cfg.Engine.NotifyPoolQueue, worker.PolicyAbort)

	// Init repo
	activityRepo := psqlRepo.NewActivityRepository(db)
	interestRepo := psqlRepo.NewInterestRepository(db)
	historyRepo := psqlRepo.NewHistoryRepository(db)
	cacheRepo := redisRepo.NewRecommendationCacheRepository(rdb)

	// Init tiered recommendation cache
	recoCache := cache.NewTiered(
		map[domain.RecommendationKind]cache.KindConfig{
			domain.KindOpportunity: {TTL: cfg.Engine.OpportunityCacheTTL, MaxEntries: cfg.Engine.CacheEntriesPerKind},
			domain.KindContent:     {TTL: cfg.Engine.ContentCacheTTL, MaxEntries: cfg.Engine.CacheEntriesPerKind},
			domain.KindMentor:      {TTL: cfg.Engine.MentorCacheTTL, MaxEntries: cfg.Engine.CacheEntriesPerKind},
		},
		cacheRepo,
		cfg.Engine.ComputeTimeout,
		recomputePool,
	)

	// Init service
	recoService := recommendation.NewService(
		activityRepo,
		interestRepo,
		historyRepo,
		platformRepo,
		recoCache,
		recomputePool,
		time.Duration(cfg.Engine.TrendingWindowDays)*24*time.Hour,
		time.Duration(cfg.Engine.ConversionWindowDays)*24*time.Hour,
	)
	interestService := interest.NewService(interestRepo)
	reactor := interest.NewReactor(interestRepo, notifierRepo, reactorPool, notifyPool)
	activityService := activity.NewService(
		activityRepo,
		activityPool,
		reactor,
		[]activity.Deactivator{interestRepo, historyRepo},
		time.Duration(cfg.Engine.ActivityRetentionDays)*24*time.Hour,
	)

	// Init handler
	recoHandler := rest.NewRecommendationHandler(recoService)
	activityHandler := rest.NewActivityHandler(activityService)
	interestHandler := rest.NewInterestHandler(interestService)
	healthHandler := rest.NewHealthHandler(db, rdb)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// HTTP error handler
	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"http://localhost:3000", "http://localhost:8080"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	// Setup routes
	api := e.Group("/api/v1")
	router.SetupRecommendationRoutes(api, recoHandler)
	router.SetupActivityRoutes(api, activityHandler)
	router.SetupInterestRoutes(api, interestHandler)
	router.SetupHealthRoutes(e, healthHandler)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Background retention sweep
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	activityService.StartRetentionSweep(sweepCtx)

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

	stopSweep()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown server
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	// Drain worker pools
	for _, pool := range []*worker.Pool{activityPool, reactorPool, notifyPool, recomputePool} {
		if err := pool.Shutdown(ctx); err != nil {
			logger.Error("Worker pool shutdown error", "error", err)
		}
	}

	if err := redisdb.CloseRedisClient(rdb); err != nil {
		logger.Error("Redis shutdown error", "error", err)
	}

	logger.Info("Server stopped")
}
