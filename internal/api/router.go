package api

import (
	"context"
	"net/http"
	"time"

	foodHandler "nutrition-resolver/internal/api/handlers/food"
	"nutrition-resolver/internal/api/handlers/health"
	"nutrition-resolver/internal/api/middleware"
	foodService "nutrition-resolver/internal/core/food"
	"nutrition-resolver/internal/core/food/cache"
	"nutrition-resolver/internal/infrastructure/config"
	"nutrition-resolver/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// Search fans out to two remote APIs at 4s each; 30s leaves room for
	// multi-item parse-and-resolve requests.
	timeoutDuration = 30 * time.Second
	// Meal descriptions are short text; 1MB is generous.
	maxBodySize = 1 << 20
)

// SetupRouter builds the gin engine with all middleware and routes.
func SetupRouter(cfg *config.Config, cacheManager *cache.Manager) (*gin.Engine, error) {
	common.LogInfo("starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID", "X-FDC-Api-Key"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(maxBodySize))

	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}

	common.LogInfo("initializing services",
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
		zap.Bool("remote_enabled", cfg.Remote.Enabled),
		zap.Duration("remote_timeout", cfg.Remote.Timeout),
	)

	svc := foodService.NewService(cfg, cacheManager)

	// Request timeout plus context injection for the health handlers.
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Set("config", cfg)

		c.Next()

		if ctx.Err() == context.DeadlineExceeded {
			common.LogError("request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", c.GetHeader("X-Request-ID")),
				zap.Duration("timeout", timeoutDuration),
			)
			c.JSON(http.StatusGatewayTimeout, gin.H{
				"error": "Request timeout",
				"code":  common.ErrCodeRequestTimeout,
				"details": gin.H{
					"timeout": timeoutDuration.String(),
				},
			})
			c.Abort()
			return
		}
	})

	router.GET("/health", health.HealthCheck)
	router.GET("/ready", health.ReadinessCheck)
	router.GET("/live", health.LivenessCheck)

	api := router.Group("/api/v1")
	{
		handler := foodHandler.NewHandler(svc)

		foodGroup := api.Group("/food")
		{
			foodGroup.GET("/search", handler.HandleSearch)
		}

		mealGroup := api.Group("/meal")
		{
			mealGroup.POST("/parse", handler.HandleParse)
		}
	}

	common.LogInfo("router setup completed",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
		zap.Bool("cache_manager_initialized", cacheManager != nil),
		zap.Duration("timeout", timeoutDuration),
		zap.Int64("max_body_size", maxBodySize),
	)

	return router, nil
}
