package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/api/handlers"
	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/api/middleware"
	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/config"
)

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, svc *handlers.Services, logger *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(customRecovery(logger))
	router.Use(loggingMiddleware(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	routes := router.Group("/api")
	routes.Use(middleware.AuthMiddleware(cfg.API.KeyHash, logger))
	{
		routes.POST("/mothership/product", handlers.HandleCreateProduct(svc.Products, logger))
		routes.POST("/mothership/product/async", handlers.HandleEnqueueProduct(svc.Payloads, logger))
		routes.POST("/mothership/coupon", handlers.HandleCreateCoupon(svc.Coupons, logger))
		routes.GET("/mothership/search/order/:orderId", handlers.HandleGetOrder(svc.Orders, logger))
		routes.POST("/mothership/search/order", handlers.HandleListOrders(svc.Orders, logger))

		routes.POST("/_action/mothership/media", handlers.HandleCreateMedia(svc.Media, false, logger))
		routes.POST("/_action/mothership/media/_sync", handlers.HandleCreateMedia(svc.Media, true, logger))
	}

	return router
}

// customRecovery is a custom recovery middleware that logs panics
func customRecovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("Panic recovered",
			zap.Any("error", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)
		handlers.AbortWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
