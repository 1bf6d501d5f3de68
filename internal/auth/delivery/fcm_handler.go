package delivery

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"triage-backend/internal/auth/repository"
)

// FCMHandler exposes device token registration for push notifications
type FCMHandler struct {
	fcmRepo repository.FCMTokenRepository
}

func NewFCMHandler(fcmRepo repository.FCMTokenRepository) *FCMHandler {
	return &FCMHandler{fcmRepo: fcmRepo}
}

// RegisterToken registers a device token for the authenticated user
func (h *FCMHandler) RegisterToken(c *gin.Context) {
	userID := c.GetString("userID")

	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}

	if err := h.fcmRepo.Register(userID, req.Token); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to register token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "registered"})
}

// UnregisterToken removes a device token
func (h *FCMHandler) UnregisterToken(c *gin.Context) {
	token := c.Param("token")
	if err := h.fcmRepo.Unregister(token); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to unregister token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "unregistered"})
}
