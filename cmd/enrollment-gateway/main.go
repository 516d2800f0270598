package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/prosiga/enrollment-gateway/api/swagger"
	"github.com/prosiga/enrollment-gateway/internal/handler"
	"github.com/prosiga/enrollment-gateway/internal/middleware"
	"github.com/prosiga/enrollment-gateway/internal/service"
	"github.com/prosiga/enrollment-gateway/internal/upstream"
	"github.com/prosiga/enrollment-gateway/pkg/cache"
	"github.com/prosiga/enrollment-gateway/pkg/config"
	"github.com/prosiga/enrollment-gateway/pkg/logger"
	corsmiddleware "github.com/prosiga/enrollment-gateway/pkg/middleware/cors"
	reqidmiddleware "github.com/prosiga/enrollment-gateway/pkg/middleware/requestid"
)

// @title PróSiga Enrollment Gateway
// @version 0.1.0
// @description Catalog search, enrollment staging and batch submission for the PróSiga academic system
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(context.Background(), cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, periods cache disabled", "error", err)
			redisClient = nil
		}
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	upstreamClient := upstream.New(cfg.Upstream)

	stagingSvc := service.NewStagingService(cfg.Staging, logr)
	stagingSvc.Start(context.Background())
	defer stagingSvc.Stop()

	catalogSvc := service.NewCatalogService(upstreamClient, redisClient, cfg.Catalog, metricsSvc, logr)
	catalogSvc.Start(context.Background())
	defer catalogSvc.Stop()
	submissionSvc := service.NewSubmissionService(upstreamClient, stagingSvc, metricsSvc, logr)

	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	stagingHandler := handler.NewStagingHandler(stagingSvc, validate)
	submissionHandler := handler.NewSubmissionHandler(submissionSvc)
	documentHandler := handler.NewDocumentHandler(upstreamClient)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.Auth(cfg.JWT.Secret))
	{
		api.GET("/periods", catalogHandler.Periods)
		api.GET("/catalog", catalogHandler.Search)

		api.GET("/staging", stagingHandler.List)
		api.POST("/staging", stagingHandler.Add)
		api.DELETE("/staging", stagingHandler.Clear)
		api.DELETE("/staging/:sectionId", stagingHandler.Remove)

		api.POST("/enrollments/submit", submissionHandler.Submit)

		api.GET("/documents/transcript", documentHandler.Transcript)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("gateway starting", "addr", addr, "env", cfg.Env, "upstream", cfg.Upstream.BaseURL)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("gateway failed", "error", err)
	}
}
