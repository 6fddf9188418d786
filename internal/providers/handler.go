package providers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/fraudshield/pkg/common"
	"github.com/richxcame/fraudshield/pkg/jwtkeys"
	"github.com/richxcame/fraudshield/pkg/logger"
	"github.com/richxcame/fraudshield/pkg/middleware"
	"go.uber.org/zap"
)

// Handler exposes payment and company verification
type Handler struct {
	payments  *PaymentChain
	companies *CompanyVerifier
}

// NewHandler creates a new verification handler
func NewHandler(payments *PaymentChain, companies *CompanyVerifier) *Handler {
	return &Handler{payments: payments, companies: companies}
}

// VerifyPayment confirms that a payment has cleared before goods change hands
// POST /api/v1/verify/payment
func (h *Handler) VerifyPayment(c *gin.Context) {
	var req PaymentRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}

	result, err := h.payments.VerifyPayment(c.Request.Context(), req)
	if err != nil {
		logger.WithContext(c.Request.Context()).Error("payment verification unavailable",
			zap.String("reference", req.Reference), zap.Error(err))
		common.ErrorResponse(c, http.StatusServiceUnavailable, PaymentUnavailableMessage)
		return
	}

	common.SuccessResponse(c, result)
}

// VerifyCompany checks a company against the registry, WHOIS and SAFPS
// POST /api/v1/verify/company
func (h *Handler) VerifyCompany(c *gin.Context) {
	var req VerifyCompanyRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}

	result, err := h.companies.VerifyCompany(c.Request.Context(), req.CompanyName, req.RegistrationNumber, req.Domain)
	if err != nil {
		_ = c.Error(err)
		common.ErrorResponse(c, http.StatusServiceUnavailable, "unable to verify company at this time")
		return
	}

	common.SuccessResponse(c, result)
}

// VerifyEmailDomain checks whether a sender's domain looks genuine
// POST /api/v1/verify/email-domain
func (h *Handler) VerifyEmailDomain(c *gin.Context) {
	var req VerifyEmailDomainRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}

	common.SuccessResponse(c, h.companies.VerifyEmailDomain(c.Request.Context(), req.Email))
}

// RegisterRoutes registers verification routes
func (h *Handler) RegisterRoutes(r *gin.Engine, jwtProvider jwtkeys.KeyProvider) {
	verify := r.Group("/api/v1/verify")
	verify.Use(middleware.AuthMiddlewareWithProvider(jwtProvider))
	{
		verify.POST("/payment", h.VerifyPayment)
		verify.POST("/company", h.VerifyCompany)
		verify.POST("/email-domain", h.VerifyEmailDomain)
	}
}
