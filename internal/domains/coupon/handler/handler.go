package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"foodorder-backend/internal/domains/coupon/model"
	"foodorder-backend/internal/domains/coupon/service"
	"foodorder-backend/internal/shared/response"
)

// =====================================================
// COUPON HANDLER
// =====================================================
type CouponHandler struct {
	couponService service.CouponService
}

func NewCouponHandler(couponService service.CouponService) *CouponHandler {
	return &CouponHandler{couponService: couponService}
}

// RegisterRoutes registers all coupon routes
func (h *CouponHandler) RegisterRoutes(router *gin.RouterGroup, admin *gin.RouterGroup) {
	coupons := router.Group("/coupons")
	{
		coupons.GET("", h.ListActive)              // GET /api/v1/coupons
		coupons.GET("/available", h.ListAvailable) // GET /api/v1/coupons/available
		coupons.POST("/validate", h.Validate)      // POST /api/v1/coupons/validate
		coupons.GET("/usage", h.UsageHistory)      // GET /api/v1/coupons/usage
	}

	adminCoupons := admin.Group("/coupons")
	{
		adminCoupons.POST("", h.Create)                     // POST /api/v1/admin/coupons
		adminCoupons.PATCH("/:id", h.Update)                // PATCH /api/v1/admin/coupons/:id
		adminCoupons.PATCH("/:id/deactivate", h.Deactivate) // PATCH /api/v1/admin/coupons/:id/deactivate
	}
}

func (h *CouponHandler) ListActive(c *gin.Context) {
	coupons, err := h.couponService.ListActive(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, coupons)
}

func (h *CouponHandler) ListAvailable(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	coupons, err := h.couponService.ListAvailable(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, coupons)
}

func (h *CouponHandler) Validate(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	var req model.ValidateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.couponService.Validate(c.Request.Context(), userID, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

func (h *CouponHandler) UsageHistory(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	items, total, err := h.couponService.UsageHistory(c.Request.Context(), userID, page, limit)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, items, &response.Meta{
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

func (h *CouponHandler) Create(c *gin.Context) {
	var req model.CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	coupon, err := h.couponService.CreateCoupon(c.Request.Context(), req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, coupon)
}

func (h *CouponHandler) Update(c *gin.Context) {
	couponID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid coupon ID")
		return
	}

	var req model.UpdateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	coupon, err := h.couponService.UpdateCoupon(c.Request.Context(), couponID, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, coupon)
}

func (h *CouponHandler) Deactivate(c *gin.Context) {
	couponID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid coupon ID")
		return
	}

	if err := h.couponService.DeactivateCoupon(c.Request.Context(), couponID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, nil)
}

// =====================================================
// HELPER METHODS
// =====================================================

func getUserIDFromContext(c *gin.Context) (uuid.UUID, error) {
	userIDInterface, exists := c.Get("userID")
	if !exists {
		return uuid.Nil, errors.New("userID not found in context")
	}

	switch v := userIDInterface.(type) {
	case uuid.UUID:
		return v, nil
	case string:
		return uuid.Parse(v)
	default:
		return uuid.Nil, errors.New("invalid userID type in context")
	}
}

// handleServiceError maps service layer errors to HTTP responses
func (h *CouponHandler) handleServiceError(c *gin.Context, err error) {
	var couponErr *model.CouponError
	if errors.As(err, &couponErr) {
		statusCode := http.StatusUnprocessableEntity
		switch couponErr.Code {
		case model.ErrCodeCouponNotFound:
			statusCode = http.StatusNotFound
		case model.ErrCodeCouponCodeExists:
			statusCode = http.StatusConflict
		}
		response.ErrorWithDetails(c, statusCode, couponErr.Code, couponErr.Message, nil)
		return
	}

	if errors.Is(err, model.ErrCouponNotFound) {
		response.NotFound(c, "Coupon not found")
		return
	}

	response.InternalServerError(c, "Internal server error")
}
