package main

import (
	"context"
	"net/http"
	"time"

	"storefront/internal/shared/middleware"
	"storefront/pkg/container"

	"github.com/gin-gonic/gin"
)

const (
	healthPath = "/api/v1/health"
	eventsPath = "/api/v1/events"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(healthPath, eventsPath),
		middleware.CORS(c.Config.App.AllowedOrigins...),
	)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		setupAuthRoutes(v1, c)
		setupSessionRoutes(v1, c)
		setupCartRoutes(v1, c)
		setupFavoriteRoutes(v1, c)
		setupPurchaseRoutes(v1, c)
		setupNotificationRoutes(v1, c)
	}

	return router
}

// ========================================
// AUTH ROUTES
// ========================================
func setupAuthRoutes(v1 *gin.RouterGroup, c *container.Container) {
	c.AuthHandler.RegisterRoutes(v1)
}

// ========================================
// SESSION + CART ROUTES
// ========================================
// Both resolve the cart owner first: guests get X-Session-Key
func setupSessionRoutes(v1 *gin.RouterGroup, c *container.Container) {
	g := v1.Group("", middleware.GuestSession(c.SessionManager, c.AuthService))
	c.SessionHandler.RegisterRoutes(g)
}

func setupCartRoutes(v1 *gin.RouterGroup, c *container.Container) {
	g := v1.Group("", middleware.GuestSession(c.SessionManager, c.AuthService))
	c.CartHandler.RegisterRoutes(g)
}

// ========================================
// FAVORITE ROUTES
// ========================================
func setupFavoriteRoutes(v1 *gin.RouterGroup, c *container.Container) {
	c.FavoriteHandler.RegisterRoutes(v1)
}

// ========================================
// PURCHASE ROUTES
// ========================================
func setupPurchaseRoutes(v1 *gin.RouterGroup, c *container.Container) {
	c.PurchaseHandler.RegisterRoutes(v1)
}

// ========================================
// NOTIFICATION ROUTES
// ========================================
func setupNotificationRoutes(v1 *gin.RouterGroup, c *container.Container) {
	v1.GET("/badges", c.BadgeHandler.GetBadges)
	v1.GET("/events", c.StreamHandler.ServeWS)
}

// ========================================
// HEALTH CHECK HANDLER
// ========================================
func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		health := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   appCtx.Config.App.Version,
		}

		storageStatus := "ok"
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := appCtx.StorageHealth(ctx); err != nil {
			storageStatus = "error: " + err.Error()
			health["status"] = "degraded"
		}

		health["services"] = gin.H{
			"storage": gin.H{
				"driver": appCtx.Config.Storage.Driver,
				"status": storageStatus,
			},
			"api": appCtx.Config.API.BaseURL,
		}

		statusCode := http.StatusOK
		if storageStatus != "ok" {
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, health)
	}
}
