package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"foodorder-backend/internal/domains/delivery/model"
	"foodorder-backend/internal/domains/delivery/service"
	orderModel "foodorder-backend/internal/domains/order/model"
	"foodorder-backend/internal/shared/response"
)

// =====================================================
// DELIVERY HANDLER
// =====================================================
type DeliveryHandler struct {
	deliveryService service.DeliveryService
}

func NewDeliveryHandler(deliveryService service.DeliveryService) *DeliveryHandler {
	return &DeliveryHandler{deliveryService: deliveryService}
}

// RegisterRoutes registers all delivery routes (behind the delivery role)
func (h *DeliveryHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/delivery/orders")
	{
		orders.GET("/available", h.ListAvailable) // GET /api/v1/delivery/orders/available
		orders.GET("/history", h.History)         // GET /api/v1/delivery/orders/history
		orders.POST("/:id/accept", h.Accept)      // POST /api/v1/delivery/orders/:id/accept
		orders.POST("/:id/pickup", h.Pickup)      // POST /api/v1/delivery/orders/:id/pickup
		orders.POST("/:id/deliver", h.Deliver)    // POST /api/v1/delivery/orders/:id/deliver
	}
}

func (h *DeliveryHandler) ListAvailable(c *gin.Context) {
	orders, err := h.deliveryService.ListAvailable(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, orders)
}

func (h *DeliveryHandler) Accept(c *gin.Context) {
	h.progress(c, h.deliveryService.Accept)
}

func (h *DeliveryHandler) Pickup(c *gin.Context) {
	h.progress(c, h.deliveryService.Pickup)
}

func (h *DeliveryHandler) Deliver(c *gin.Context) {
	h.progress(c, h.deliveryService.Deliver)
}

// progress runs one claim/pickup/deliver step; they all parse the same
// inputs and return the updated order.
func (h *DeliveryHandler) progress(c *gin.Context, op func(ctx context.Context, orderID, courierID uuid.UUID) (*model.DeliveryOrder, error)) {
	courierID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid order ID")
		return
	}

	order, err := op(c.Request.Context(), orderID, courierID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, order)
}

func (h *DeliveryHandler) History(c *gin.Context) {
	courierID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	var req model.ListHistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	orders, total, err := h.deliveryService.History(c.Request.Context(), courierID, req)
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
func (h *DeliveryHandler) handleServiceError(c *gin.Context, err error) {
	var orderErr *orderModel.OrderError
	if errors.As(err, &orderErr) {
		statusCode := http.StatusUnprocessableEntity
		switch orderErr.Code {
		case orderModel.ErrCodeOrderNotFound:
			statusCode = http.StatusNotFound
		case orderModel.ErrCodeOrderAlreadyClaimed, orderModel.ErrCodeInvalidTransition:
			statusCode = http.StatusConflict
		case orderModel.ErrCodeNotOrderOwner:
			statusCode = http.StatusForbidden
		}
		response.ErrorWithDetails(c, statusCode, orderErr.Code, orderErr.Message, nil)
		return
	}

	if errors.Is(err, orderModel.ErrOrderNotFound) {
		response.NotFound(c, "Order not found")
		return
	}

	response.InternalServerError(c, "Internal server error")
}
