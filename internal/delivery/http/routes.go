package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pantrymatch/backend/config"
)

// RouterDeps are optional collaborators of the router
type RouterDeps struct {
	Logger  *zap.Logger
	Metrics interface {
		HTTPRecorder
		Handler() http.Handler
	}
}

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, deps RouterDeps) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware(logger))
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	if deps.Metrics != nil {
		router.Use(MetricsMiddleware(deps.Metrics))
	}

	router.GET("/health", handler.HealthCheck)
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP, logger))
	{
		v1.GET("/units/suggest", handler.SuggestUnit)

		pantry := v1.Group("/pantry/items")
		{
			pantry.GET("", handler.ListItems)
			pantry.POST("", handler.AddItem)
			pantry.POST("/resolve", handler.ResolveItem)
			pantry.GET("/:id", handler.GetItem)
			pantry.PATCH("/:id", handler.UpdateItem)
			pantry.DELETE("/:id", handler.DeleteItem)
		}

		recipes := v1.Group("/recipes")
		{
			recipes.POST("/match", handler.BatchRecipeMatch)
			recipes.GET("/:id/match", handler.GetRecipeMatch)
		}
	}

	return router
}
