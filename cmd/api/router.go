package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authDelivery "triage-backend/internal/auth/delivery"
	workitemDelivery "triage-backend/internal/workitem/delivery"
	"triage-backend/pkg/sse"
)

// SetupRoutes registers the API surface on r.
func SetupRoutes(
	r *gin.Engine,
	jwtSecret string,
	sseManager *sse.Manager,
	itemHandler *workitemDelivery.WorkItemHandler,
	fcmHandler *authDelivery.FCMHandler,
) {
	authRequired := authDelivery.AuthMiddleware(jwtSecret)

	// Prometheus scrape endpoint (no auth required)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// SSE endpoint
		api.GET("/events", authRequired, func(c *gin.Context) {
			userID := c.GetString("userID")
			sseManager.ServeHTTP(c, userID)
		})

		// Work item routes (protected)
		items := api.Group("/items")
		items.Use(authRequired)
		{
			items.GET("", itemHandler.List)
			items.POST("/:id/complete", itemHandler.Complete)
			items.POST("/:id/snooze", itemHandler.Snooze)
			items.POST("/:id/unsnooze", itemHandler.Unsnooze)
			items.DELETE("/:id", itemHandler.Delete)
		}

		// Ingestion trigger (protected)
		api.POST("/sync", authRequired, itemHandler.Sync)

		// FCM routes (protected)
		fcm := api.Group("/fcm")
		fcm.Use(authRequired)
		{
			fcm.POST("/register", fcmHandler.RegisterToken)
			fcm.DELETE("/:token", fcmHandler.UnregisterToken)
		}

		// Settings routes (public) - Runtime configuration
		settings := api.Group("/settings")
		{
			settings.GET("/ollama", GetOllamaSettings)
			settings.PUT("/ollama", UpdateOllamaSettings)
			settings.POST("/ollama/test", TestOllamaConnection)
		}
	}
}
