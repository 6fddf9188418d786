package community

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/richxcame/fraudshield/internal/trust"
	"github.com/richxcame/fraudshield/pkg/common"
	"github.com/richxcame/fraudshield/pkg/jwtkeys"
	"github.com/richxcame/fraudshield/pkg/middleware"
	"github.com/richxcame/fraudshield/pkg/pagination"
	"github.com/richxcame/fraudshield/pkg/ratelimit"
)

// Handler handles HTTP requests for the community trust API
type Handler struct {
	service *Service
}

// NewHandler creates a new community handler
func NewHandler(service *Service) *Handler {
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

func entityParams(c *gin.Context) (string, trust.EntityType, bool) {
	entityType, err := trust.ParseEntityType(c.Param("type"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "entity type must be one of phone, email, domain, company")
		return "", "", false
	}
	return c.Param("id"), entityType, true
}

// ========================================
// ENTITY ENDPOINTS
// ========================================

// CheckEntity returns the trust record, reports and risk verdict for an entity
// GET /api/v1/entities/:type/:id/check
func (h *Handler) CheckEntity(c *gin.Context) {
	entityID, entityType, ok := entityParams(c)
	if !ok {
		return
	}

	check, err := h.service.CheckEntity(c.Request.Context(), entityID, entityType)
	if err != nil {
		// never fall back to a verified answer
		if appErr, ok := err.(*common.AppError); ok && appErr.Code == http.StatusBadRequest {
			common.AppErrorResponse(c, appErr)
			return
		}
		_ = c.Error(err)
		common.ErrorResponse(c, http.StatusServiceUnavailable, CheckUnavailableMessage)
		return
	}

	common.SuccessResponse(c, check)
}

// VerifyEntity records a positive verification of an entity by the caller
// POST /api/v1/entities/:type/:id/verifications
func (h *Handler) VerifyEntity(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	entityID, entityType, ok := entityParams(c)
	if !ok {
		return
	}

	record, err := h.service.VerifyEntity(c.Request.Context(), userID, entityID, entityType)
	if err != nil {
		respondError(c, err, "failed to record verification")
		return
	}

	common.SuccessResponse(c, record)
}

// RecordTransaction records a completed transaction with an entity
// POST /api/v1/entities/:type/:id/transactions
func (h *Handler) RecordTransaction(c *gin.Context) {
	entityID, entityType, ok := entityParams(c)
	if !ok {
		return
	}

	record, err := h.service.RecordSuccessfulTransaction(c.Request.Context(), entityID, entityType)
	if err != nil {
		respondError(c, err, "failed to record transaction")
		return
	}

	common.SuccessResponse(c, record)
}

// ========================================
// REPORT ENDPOINTS
// ========================================

// CreateReport submits an adverse report
// POST /api/v1/reports
func (h *Handler) CreateReport(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateReportRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}

	report, err := h.service.RecordAdverseReport(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err, "failed to create report")
		return
	}

	common.CreatedResponse(c, report)
}

// ListReports returns the scam wall
// GET /api/v1/reports
func (h *Handler) ListReports(c *gin.Context) {
	var filters ReportFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid filters")
		return
	}

	params := pagination.ParseParams(c)
	filters.Offset = params.Offset
	if c.Query("limit") != "" {
		filters.Limit = params.Limit
	}

	reports, total, err := h.service.ListReports(c.Request.Context(), filters)
	if err != nil {
		respondError(c, err, "failed to list reports")
		return
	}

	limit := filters.Limit
	if limit == 0 {
		limit = defaultReportLimit
	}
	common.SuccessResponseWithMeta(c, reports, pagination.BuildMeta(limit, filters.Offset, total))
}

// GetReport returns one report
// GET /api/v1/reports/:id
func (h *Handler) GetReport(c *gin.Context) {
	reportID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid report ID")
		return
	}

	report, err := h.service.GetReport(c.Request.Context(), reportID)
	if err != nil {
		respondError(c, err, "failed to get report")
		return
	}

	common.SuccessResponse(c, report)
}

// VerifyReport upvotes, corroborates or disputes a report
// POST /api/v1/reports/:id/verify
func (h *Handler) VerifyReport(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	reportID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid report ID")
		return
	}

	var req VerifyReportRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}

	report, err := h.service.VerifyReport(c.Request.Context(), reportID, userID, &req)
	if err != nil {
		respondError(c, err, "failed to verify report")
		return
	}

	common.SuccessResponse(c, report)
}

// UploadEvidence attaches a file to the caller's report
// POST /api/v1/reports/:id/evidence
func (h *Handler) UploadEvidence(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	reportID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid report ID")
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "file is required")
		return
	}
	file, err := fh.Open()
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "failed to read file")
		return
	}
	defer file.Close()

	result, err := h.service.AttachEvidence(c.Request.Context(), reportID, userID,
		fh.Filename, fh.Header.Get("Content-Type"), fh.Size, file)
	if err != nil {
		respondError(c, err, "failed to upload evidence")
		return
	}

	common.CreatedResponse(c, result)
}

// ========================================
// BUSINESS DIRECTORY ENDPOINTS
// ========================================

// CreateBusiness adds a business to the directory
// POST /api/v1/businesses
func (h *Handler) CreateBusiness(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateBusinessRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}

	listing, err := h.service.AddBusinessListing(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err, "failed to create business listing")
		return
	}

	common.CreatedResponse(c, listing)
}

// ListBusinesses returns the directory
// GET /api/v1/businesses
func (h *Handler) ListBusinesses(c *gin.Context) {
	var filters BusinessFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid filters")
		return
	}

	params := pagination.ParseParams(c)
	filters.Limit = params.Limit
	filters.Offset = params.Offset

	listings, total, err := h.service.ListBusinessListings(c.Request.Context(), filters)
	if err != nil {
		respondError(c, err, "failed to list businesses")
		return
	}

	common.SuccessResponseWithMeta(c, listings, pagination.BuildMeta(filters.Limit, filters.Offset, total))
}

// ========================================
// GAMIFICATION ENDPOINTS
// ========================================

// GetMyGamification returns the caller's contribution profile
// GET /api/v1/me/gamification
func (h *Handler) GetMyGamification(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	profile, err := h.service.GetUserGamification(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "failed to get gamification profile")
		return
	}

	common.SuccessResponse(c, profile)
}

// RegisterRoutes registers community routes
func (h *Handler) RegisterRoutes(r *gin.Engine, jwtProvider jwtkeys.KeyProvider, limiter *ratelimit.Limiter) {
	api := r.Group("/api/v1")

	entities := api.Group("/entities/:type/:id")
	{
		entities.GET("/check", middleware.OptionalAuth(jwtProvider), h.CheckEntity)

		authed := entities.Group("")
		authed.Use(middleware.AuthMiddlewareWithProvider(jwtProvider))
		{
			authed.POST("/verifications", h.VerifyEntity)
			authed.POST("/transactions", h.RecordTransaction)
		}
	}

	reports := api.Group("/reports")
	{
		reports.GET("", h.ListReports)
		reports.GET("/:id", h.GetReport)

		authed := reports.Group("")
		authed.Use(middleware.AuthMiddlewareWithProvider(jwtProvider))
		{
			authed.POST("", middleware.RateLimit(limiter), h.CreateReport)
			authed.POST("/:id/verify", h.VerifyReport)
			authed.POST("/:id/evidence", h.UploadEvidence)
		}
	}

	businesses := api.Group("/businesses")
	{
		businesses.GET("", h.ListBusinesses)
		businesses.POST("", middleware.AuthMiddlewareWithProvider(jwtProvider), h.CreateBusiness)
	}

	me := api.Group("/me")
	me.Use(middleware.AuthMiddlewareWithProvider(jwtProvider))
	{
		me.GET("/gamification", h.GetMyGamification)
	}
}
