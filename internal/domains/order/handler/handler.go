package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	couponModel "foodorder-backend/internal/domains/coupon/model"
	"foodorder-backend/internal/domains/order/model"
	"foodorder-backend/internal/domains/order/service"
	"foodorder-backend/internal/shared"
	"foodorder-backend/internal/shared/response"
)

// =====================================================
// ORDER HANDLER
// =====================================================
type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// RegisterRoutes registers all order routes
func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup, admin *gin.RouterGroup) {
	orders := router.Group("/orders")
	{
		orders.POST("", h.CreateOrder)                          // POST /api/v1/orders
		orders.GET("", h.ListOrders)                            // GET /api/v1/orders
		orders.GET("/:id", h.GetOrderDetail)                    // GET /api/v1/orders/:id
		orders.PATCH("/:id/cancel", h.CancelOrder)              // PATCH /api/v1/orders/:id/cancel
		orders.POST("/:id/confirm-delivery", h.ConfirmDelivery) // POST /api/v1/orders/:id/confirm-delivery
	}

	adminOrders := admin.Group("/orders")
	{
		adminOrders.GET("", h.ListAllOrders)                  // GET /api/v1/admin/orders
		adminOrders.PATCH("/:id/status", h.UpdateOrderStatus) // PATCH /api/v1/admin/orders/:id/status
	}
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	var req model.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.orderService.CreateOrder(c.Request.Context(), userID, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, result)
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	var req model.ListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), userID, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, orders, &response.Meta{
		Page:  req.Page,
		Limit: req.Limit,
		Total: total,
	})
}

func (h *OrderHandler) GetOrderDetail(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid order ID")
		return
	}

	isAdmin := getRoleFromContext(c) == shared.RoleAdmin

	order, err := h.orderService.GetOrderDetail(c.Request.Context(), orderID, userID, isAdmin)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, order)
}

func (h *OrderHandler) CancelOrder(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid order ID")
		return
	}

	var req model.CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.orderService.CancelOrder(c.Request.Context(), orderID, userID, req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": model.OrderStatusCancelled})
}

func (h *OrderHandler) ConfirmDelivery(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid order ID")
		return
	}

	if err := h.orderService.ConfirmDelivery(c.Request.Context(), orderID, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": model.OrderStatusDelivered})
}

// =====================================================
// ADMIN HANDLERS
// =====================================================

func (h *OrderHandler) ListAllOrders(c *gin.Context) {
	var req model.ListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	orders, total, err := h.orderService.ListAllOrders(c.Request.Context(), req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, orders, &response.Meta{
		Page:  req.Page,
		Limit: req.Limit,
		Total: total,
	})
}

func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	adminID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid order ID")
		return
	}

	var req model.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.orderService.UpdateOrderStatus(c.Request.Context(), orderID, adminID, req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": req.Status})
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

func getRoleFromContext(c *gin.Context) string {
	roleInterface, exists := c.Get("role")
	if !exists {
		return ""
	}
	role, _ := roleInterface.(string)
	return role
}

// handleServiceError maps service layer errors to HTTP responses
func (h *OrderHandler) handleServiceError(c *gin.Context, err error) {
	var orderErr *model.OrderError
	if errors.As(err, &orderErr) {
		statusCode := http.StatusUnprocessableEntity
		switch orderErr.Code {
		case model.ErrCodeOrderNotFound:
			statusCode = http.StatusNotFound
		case model.ErrCodeOrderCannotCancel,
			model.ErrCodeInvalidTransition,
			model.ErrCodeOrderAlreadyClaimed,
			model.ErrCodeVersionMismatch,
			model.ErrCodeCourierRequired:
			statusCode = http.StatusConflict
		case model.ErrCodeNotOrderOwner, model.ErrCodeUnauthorized:
			statusCode = http.StatusForbidden
		}
		response.ErrorWithDetails(c, statusCode, orderErr.Code, orderErr.Message, nil)
		return
	}

	// Coupon failures surface through order creation
	var couponErr *couponModel.CouponError
	if errors.As(err, &couponErr) {
		statusCode := http.StatusUnprocessableEntity
		if couponErr.Code == couponModel.ErrCodeCouponNotFound {
			statusCode = http.StatusNotFound
		}
		response.ErrorWithDetails(c, statusCode, couponErr.Code, couponErr.Message, nil)
		return
	}

	switch {
	case errors.Is(err, model.ErrOrderNotFound):
		response.NotFound(c, "Order not found")
	case errors.Is(err, model.ErrVersionMismatch):
		response.Conflict(c, "Order was modified concurrently, retry")
	default:
		response.InternalServerError(c, "Internal server error")
	}
}
