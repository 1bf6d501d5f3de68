package api

import (
	"github.com/gin-gonic/gin"

	authDelivery "triage-backend/internal/auth/delivery"
	workitemDelivery "triage-backend/internal/workitem/delivery"
	"triage-backend/pkg/config"
	"triage-backend/pkg/sse"
)

// Handler owns the HTTP server and its route dependencies.
type Handler struct {
	config      *config.Config
	sseManager  *sse.Manager
	itemHandler *workitemDelivery.WorkItemHandler
	fcmHandler  *authDelivery.FCMHandler
}

func NewHandler(
	cfg *config.Config,
	sseManager *sse.Manager,
	itemHandler *workitemDelivery.WorkItemHandler,
	fcmHandler *authDelivery.FCMHandler,
) *Handler {
	return &Handler{
		config:      cfg,
		sseManager:  sseManager,
		itemHandler: itemHandler,
		fcmHandler:  fcmHandler,
	}
}

func (h *Handler) Start(addr string) error {
	r := gin.Default()
	gin.SetMode(gin.ReleaseMode)

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h.config.JWTSecret, h.sseManager, h.itemHandler, h.fcmHandler)

	return r.Run(addr)
}
