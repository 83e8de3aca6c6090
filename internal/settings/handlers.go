package settings

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/taqiudeen275/furniture-auth/pkg/errors"
	"github.com/taqiudeen275/furniture-auth/pkg/logger"
)

// Handler exposes the admin settings endpoints
type Handler struct {
	store  *RedisStore
	guards []gin.HandlerFunc
	logger logger.Logger
}

// NewHandler creates a settings handler; guards run before every route
func NewHandler(store *RedisStore, log logger.Logger, guards ...gin.HandlerFunc) *Handler {
	return &Handler{store: store, guards: guards, logger: log}
}

// RegisterRoutes registers the admin settings routes
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	admin := router.Group("/api/v1/admin", h.guards...)
	{
		admin.GET("/maintenance", h.GetMaintenance)
		admin.PUT("/maintenance", h.SetMaintenance)
	}
}

// Name returns the service name
func (h *Handler) Name() string {
	return "settings"
}

// MaintenanceRequest toggles maintenance mode
type MaintenanceRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// GetMaintenance reports the maintenance flag
func (h *Handler) GetMaintenance(c *gin.Context) {
	enabled, err := h.store.Maintenance(c.Request.Context())
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enabled": enabled})
}

// SetMaintenance switches the maintenance flag
func (h *Handler) SetMaintenance(c *gin.Context) {
	var req MaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "code": apperrors.ErrCodeInvalidRequest})
		return
	}

	if err := h.store.SetMaintenance(c.Request.Context(), *req.Enabled); err != nil {
		h.internalError(c, err)
		return
	}

	h.logger.Warn("Maintenance mode set to %t", *req.Enabled)
	c.JSON(http.StatusOK, gin.H{"enabled": *req.Enabled})
}

func (h *Handler) internalError(c *gin.Context, err error) {
	h.logger.WithError(err).Error("Settings request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "code": apperrors.ErrCodeInternal})
}
