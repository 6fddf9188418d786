package notifications

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/fraudshield/pkg/common"
	"github.com/richxcame/fraudshield/pkg/jwtkeys"
	"github.com/richxcame/fraudshield/pkg/middleware"
)

// Handler handles HTTP requests for alert settings
type Handler struct {
	service *AlertService
}

// NewHandler creates a new notifications handler
func NewHandler(service *AlertService) *Handler {
	return &Handler{service: service}
}

func respondError(c *gin.Context, err error, fallback string) {
	if appErr, ok := err.(*common.AppError); ok {
		common.AppErrorResponse(c, appErr)
		return
	}
	_ = c.Error(err)
	common.ErrorResponse(c, http.StatusInternalServerError, fallback)
}

// GetPreferences returns the caller's alert settings
// GET /api/v1/me/alerts
func (h *Handler) GetPreferences(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	sub, err := h.service.GetSubscriber(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "failed to load alert settings")
		return
	}

	common.SuccessResponse(c, sub)
}

// UpdatePreferences changes the caller's alert settings
// PUT /api/v1/me/alerts
func (h *Handler) UpdatePreferences(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req UpdatePreferencesRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}

	sub, err := h.service.UpdateSubscriber(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err, "failed to save alert settings")
		return
	}

	common.SuccessResponse(c, sub)
}

// ListDeliveries returns the caller's recent alert deliveries
// GET /api/v1/me/alerts/deliveries
func (h *Handler) ListDeliveries(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	deliveries, err := h.service.ListDeliveries(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "failed to list alert deliveries")
		return
	}

	common.SuccessResponse(c, deliveries)
}

// RegisterRoutes registers the alert settings routes
func (h *Handler) RegisterRoutes(r *gin.Engine, jwtProvider jwtkeys.KeyProvider) {
	alerts := r.Group("/api/v1/me/alerts")
	alerts.Use(middleware.AuthMiddlewareWithProvider(jwtProvider))
	{
		alerts.GET("", h.GetPreferences)
		alerts.PUT("", h.UpdatePreferences)
		alerts.GET("/deliveries", h.ListDeliveries)
	}
}
