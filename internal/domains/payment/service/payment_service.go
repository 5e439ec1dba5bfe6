package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	orderModel "foodorder-backend/internal/domains/order/model"
	orderRepo "foodorder-backend/internal/domains/order/repository"
	"foodorder-backend/internal/domains/payment/gateway"
	"foodorder-backend/internal/domains/payment/model"
	"foodorder-backend/internal/domains/payment/repository"
	"foodorder-backend/pkg/logger"
)

// =====================================================
// PAYMENT SERVICE IMPLEMENTATION
// =====================================================
type paymentService struct {
	paymentRepo repository.PaymentRepository
	orderRepo   orderRepo.OrderRepository
	cardGateway gateway.CardGateway
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	orderRepository orderRepo.OrderRepository,
	cardGateway gateway.CardGateway,
) PaymentService {
	return &paymentService{
		paymentRepo: paymentRepo,
		orderRepo:   orderRepository,
		cardGateway: cardGateway,
	}
}

// =====================================================
// CARD PAYMENT
// =====================================================

func (s *paymentService) SubmitCardPayment(ctx context.Context, userID uuid.UUID, req model.SubmitCardPaymentRequest) (*model.SubmitCardPaymentResponse, error) {
	// Step 1: Validate
	if err := req.Validate(); err != nil {
		return nil, model.NewPaymentError(model.ErrCodeInvalidPayment, "Invalid payment request", err)
	}

	// Step 2: Load the order and check it takes card payment
	order, err := s.orderRepo.GetOrderByIDAndUserID(ctx, req.OrderID, userID)
	if err != nil {
		return nil, err
	}

	if order.PaymentMethod != orderModel.PaymentMethodCard {
		return nil, model.NewPaymentError(
			model.ErrCodeWrongPaymentMethod,
			"Order is not payable by card",
			model.ErrWrongPaymentMethod,
		)
	}

	// Step 3: Reject double capture before touching the authorizer
	existing, err := s.paymentRepo.GetByOrderID(ctx, req.OrderID)
	if err != nil && !errors.Is(err, model.ErrPaymentNotFound) {
		return nil, err
	}
	if existing != nil && existing.IsPaid() {
		return nil, model.NewPaymentError(model.ErrCodeAlreadyPaid, "Order is already paid", model.ErrAlreadyPaid)
	}

	// Step 4: Authorize
	result, err := s.cardGateway.Authorize(ctx, gateway.AuthorizeRequest{
		OrderID:   order.ID,
		Amount:    order.Total,
		CardToken: req.CardToken,
	})
	if err != nil {
		return nil, err
	}

	// Step 5: Persist the outcome. A decline leaves the order payable so
	// the customer can retry with another card.
	now := time.Now()
	payment := &model.Payment{
		ID:      uuid.New(),
		OrderID: order.ID,
		Method:  order.PaymentMethod,
		Amount:  order.Total,
	}

	if !result.Approved {
		payment.Status = model.PaymentStatusFailed
		if _, err := s.paymentRepo.UpsertCardResult(ctx, payment); err != nil {
			logger.Error("Failed to record declined card attempt", err)
		}
		return nil, model.NewPaymentError(
			model.ErrCodePaymentDeclined,
			"Payment declined: "+result.DeclineReason,
			model.ErrPaymentDeclined,
		)
	}

	payment.Status = model.PaymentStatusPaid
	payment.TransactionRef = &result.TransactionRef
	payment.ConfirmedAt = &now

	written, err := s.paymentRepo.UpsertCardResult(ctx, payment)
	if err != nil {
		return nil, err
	}
	if !written {
		// Another submission captured between our check and write
		return nil, model.NewPaymentError(model.ErrCodeAlreadyPaid, "Order is already paid", model.ErrAlreadyPaid)
	}

	logger.Info("Card payment captured", map[string]interface{}{
		"order_id":        order.ID,
		"transaction_ref": result.TransactionRef,
	})

	s.confirmOrderAfterPayment(ctx, order.ID, &userID)

	return &model.SubmitCardPaymentResponse{
		PaymentID:      payment.ID,
		OrderID:        order.ID,
		Amount:         payment.Amount,
		Status:         payment.Status,
		TransactionRef: payment.TransactionRef,
		PaidAt:         payment.ConfirmedAt,
	}, nil
}

// =====================================================
// TRANSFER CONFIRMATION
// =====================================================

func (s *paymentService) ConfirmTransfer(ctx context.Context, req model.ConfirmTransferRequest) (*model.ConfirmTransferResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, model.NewPaymentError(model.ErrCodeInvalidPayment, "Invalid confirmation request", err)
	}

	confirmed, err := s.paymentRepo.ConfirmTransfer(ctx, req.OrderID, req.Token)
	if err != nil {
		return nil, err
	}

	payment, err := s.paymentRepo.GetByOrderID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	if confirmed {
		logger.Info("Transfer payment confirmed", map[string]interface{}{
			"order_id": req.OrderID,
		})
		// The emailed token is the credential here, so no actor id to record.
		s.confirmOrderAfterPayment(ctx, req.OrderID, nil)
		return &model.ConfirmTransferResponse{
			OrderID:     req.OrderID,
			Status:      payment.Status,
			AlreadyPaid: false,
			ConfirmedAt: payment.ConfirmedAt,
		}, nil
	}

	// Zero rows updated: either the token is wrong, or this exact
	// confirmation already happened. A repeat is a success.
	if payment.ConfirmationToken == nil || *payment.ConfirmationToken != req.Token {
		return nil, model.NewPaymentError(
			model.ErrCodeInvalidConfirmToken,
			"Confirmation token does not match this order",
			model.ErrInvalidConfirmToken,
		)
	}

	return &model.ConfirmTransferResponse{
		OrderID:     req.OrderID,
		Status:      payment.Status,
		AlreadyPaid: true,
		ConfirmedAt: payment.ConfirmedAt,
	}, nil
}

// confirmOrderAfterPayment moves a paid order out of pending. The update is
// conditional, so orders the kitchen already advanced are left alone and a
// repeat confirmation writes no duplicate history.
func (s *paymentService) confirmOrderAfterPayment(ctx context.Context, orderID uuid.UUID, changedBy *uuid.UUID) {
	confirmed, err := s.orderRepo.ConfirmPaidOrder(ctx, orderID)
	if err != nil {
		logger.Error("Failed to confirm order after payment", err)
		return
	}
	if !confirmed {
		return
	}

	fromStatus := orderModel.OrderStatusPending
	history := &orderModel.OrderStatusHistory{
		OrderID:    orderID,
		FromStatus: &fromStatus,
		ToStatus:   orderModel.OrderStatusConfirmed,
		ChangedBy:  changedBy,
	}
	if err := s.orderRepo.CreateOrderStatusHistory(ctx, history); err != nil {
		logger.Error("Failed to record payment confirmation history", err)
	}
}

// =====================================================
// REFUND (Admin)
// =====================================================

func (s *paymentService) Refund(ctx context.Context, orderID uuid.UUID) (*model.RefundResponse, error) {
	payment, err := s.paymentRepo.MarkRefunded(ctx, orderID)
	if err != nil {
		if errors.Is(err, model.ErrNotRefundable) {
			return nil, model.NewPaymentError(
				model.ErrCodeNotRefundable,
				"No captured payment to refund for this order",
				model.ErrNotRefundable,
			)
		}
		return nil, err
	}

	logger.Info("Payment refunded", map[string]interface{}{
		"order_id":   orderID,
		"payment_id": payment.ID,
	})

	return &model.RefundResponse{
		PaymentID:  payment.ID,
		OrderID:    payment.OrderID,
		Amount:     payment.Amount,
		Status:     payment.Status,
		RefundedAt: payment.RefundedAt,
	}, nil
}
