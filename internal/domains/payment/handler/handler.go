package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	orderModel "foodorder-backend/internal/domains/order/model"
	"foodorder-backend/internal/domains/payment/model"
	"foodorder-backend/internal/domains/payment/service"
	"foodorder-backend/internal/shared/response"
)

// =====================================================
// PAYMENT HANDLER
// =====================================================
type PaymentHandler struct {
	paymentService service.PaymentService
}

func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// RegisterRoutes registers payment routes. The transfer confirmation is
// public: the link lands in the customer's inbox and the token is the
// credential.
func (h *PaymentHandler) RegisterRoutes(authed, public, admin *gin.RouterGroup) {
	authed.POST("/payments", h.SubmitCardPayment)                // POST /api/v1/payments
	public.POST("/payments/transfer/confirm", h.ConfirmTransfer) // POST /api/v1/payments/transfer/confirm
	admin.POST("/payments/:orderID/refund", h.Refund)            // POST /api/v1/admin/payments/:orderID/refund
}

func (h *PaymentHandler) SubmitCardPayment(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	var req model.SubmitCardPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.paymentService.SubmitCardPayment(c.Request.Context(), userID, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

func (h *PaymentHandler) ConfirmTransfer(c *gin.Context) {
	var req model.ConfirmTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.paymentService.ConfirmTransfer(c.Request.Context(), req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

func (h *PaymentHandler) Refund(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("orderID"))
	if err != nil {
		response.BadRequest(c, "Invalid order ID")
		return
	}

	result, err := h.paymentService.Refund(c.Request.Context(), orderID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
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
func (h *PaymentHandler) handleServiceError(c *gin.Context, err error) {
	var paymentErr *model.PaymentError
	if errors.As(err, &paymentErr) {
		statusCode := http.StatusUnprocessableEntity
		switch paymentErr.Code {
		case model.ErrCodePaymentNotFound:
			statusCode = http.StatusNotFound
		case model.ErrCodePaymentDeclined:
			statusCode = http.StatusPaymentRequired
		case model.ErrCodeAlreadyPaid, model.ErrCodeNotRefundable:
			statusCode = http.StatusConflict
		}
		response.ErrorWithDetails(c, statusCode, paymentErr.Code, paymentErr.Message, nil)
		return
	}

	switch {
	case errors.Is(err, model.ErrPaymentNotFound):
		response.NotFound(c, "Payment not found")
	case errors.Is(err, orderModel.ErrOrderNotFound):
		response.NotFound(c, "Order not found")
	default:
		response.InternalServerError(c, "Internal server error")
	}
}
