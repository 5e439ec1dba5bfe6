package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"foodorder-backend/internal/domains/delivery/model"
	"foodorder-backend/internal/domains/delivery/repository"
	orderModel "foodorder-backend/internal/domains/order/model"
	orderRepo "foodorder-backend/internal/domains/order/repository"
	paymentRepo "foodorder-backend/internal/domains/payment/repository"
	"foodorder-backend/internal/shared"
	"foodorder-backend/pkg/logger"
)

// =====================================================
// DELIVERY SERVICE IMPLEMENTATION
// =====================================================
type deliveryService struct {
	deliveryRepo repository.DeliveryRepository
	orderRepo    orderRepo.OrderRepository
	paymentRepo  paymentRepo.PaymentRepository
	asynq        *asynq.Client
}

// NewDeliveryService creates a new delivery service
func NewDeliveryService(
	deliveryRepo repository.DeliveryRepository,
	orderRepository orderRepo.OrderRepository,
	paymentRepository paymentRepo.PaymentRepository,
	asynqClient *asynq.Client,
) DeliveryService {
	return &deliveryService{
		deliveryRepo: deliveryRepo,
		orderRepo:    orderRepository,
		paymentRepo:  paymentRepository,
		asynq:        asynqClient,
	}
}

func (s *deliveryService) ListAvailable(ctx context.Context) ([]model.DeliveryOrder, error) {
	return s.deliveryRepo.ListAvailable(ctx)
}

// =====================================================
// ACCEPT (claim)
// =====================================================

func (s *deliveryService) Accept(ctx context.Context, orderID, courierID uuid.UUID) (*model.DeliveryOrder, error) {
	claimed, err := s.deliveryRepo.Claim(ctx, orderID, courierID)
	if err != nil {
		return nil, err
	}

	if !claimed {
		// The claim statement matched nothing. Look at the row to tell
		// "someone else won" apart from "not claimable at all".
		order, getErr := s.deliveryRepo.GetDeliveryOrder(ctx, orderID)
		if getErr != nil {
			return nil, getErr
		}
		if order.DeliveryPersonID != nil {
			return nil, orderModel.NewOrderError(
				orderModel.ErrCodeOrderAlreadyClaimed,
				"Order already claimed by another delivery person",
				orderModel.ErrOrderAlreadyClaimed,
			)
		}
		return nil, orderModel.NewOrderError(
			orderModel.ErrCodeInvalidTransition,
			fmt.Sprintf("Order in status %q is not available for claiming", order.Status),
			orderModel.ErrInvalidTransition,
		)
	}

	return s.deliveryRepo.GetDeliveryOrder(ctx, orderID)
}

// =====================================================
// PICKUP
// =====================================================

func (s *deliveryService) Pickup(ctx context.Context, orderID, courierID uuid.UUID) (*model.DeliveryOrder, error) {
	updated, err := s.deliveryRepo.MarkPickedUp(ctx, orderID, courierID)
	if err != nil {
		return nil, err
	}

	if !updated {
		return nil, s.classifyProgressFailure(ctx, orderID, courierID, orderModel.OrderStatusReady)
	}

	order, err := s.deliveryRepo.GetDeliveryOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	s.recordTransition(ctx, orderID, courierID, orderModel.OrderStatusReady, orderModel.OrderStatusDelivering)
	s.notifyStatusChange(orderID, order.UserID, orderModel.OrderStatusReady, orderModel.OrderStatusDelivering)

	return order, nil
}

// =====================================================
// DELIVER
// =====================================================

func (s *deliveryService) Deliver(ctx context.Context, orderID, courierID uuid.UUID) (*model.DeliveryOrder, error) {
	updated, err := s.deliveryRepo.MarkDelivered(ctx, orderID, courierID)
	if err != nil {
		return nil, err
	}

	if !updated {
		return nil, s.classifyProgressFailure(ctx, orderID, courierID, orderModel.OrderStatusDelivering)
	}

	order, err := s.deliveryRepo.GetDeliveryOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	s.recordTransition(ctx, orderID, courierID, orderModel.OrderStatusDelivering, orderModel.OrderStatusDelivered)
	s.notifyStatusChange(orderID, order.UserID, orderModel.OrderStatusDelivering, orderModel.OrderStatusDelivered)

	// Cash changes hands at the door, so the marker row settles here. The
	// conditional update is a no-op for card and transfer orders.
	if _, err := s.paymentRepo.SettleCashOnDelivery(ctx, orderID); err != nil {
		logger.Error("Failed to settle cash payment on delivery", err)
	}

	return order, nil
}

func (s *deliveryService) History(ctx context.Context, courierID uuid.UUID, req model.ListHistoryRequest) ([]model.DeliveryOrder, int, error) {
	if err := req.Validate(); err != nil {
		return nil, 0, err
	}
	return s.deliveryRepo.ListHistory(ctx, courierID, req.Page, req.Limit)
}

// =====================================================
// HELPERS
// =====================================================

// classifyProgressFailure explains a zero-row pickup/deliver update:
// wrong courier means forbidden, wrong status means conflict.
func (s *deliveryService) classifyProgressFailure(ctx context.Context, orderID, courierID uuid.UUID, expectedStatus string) error {
	order, err := s.deliveryRepo.GetDeliveryOrder(ctx, orderID)
	if err != nil {
		return err
	}

	if order.DeliveryPersonID == nil || *order.DeliveryPersonID != courierID {
		return orderModel.NewOrderError(
			orderModel.ErrCodeNotOrderOwner,
			"Order is not assigned to this delivery person",
			orderModel.ErrNotOrderOwner,
		)
	}

	return orderModel.NewOrderError(
		orderModel.ErrCodeInvalidTransition,
		fmt.Sprintf("Order is %q, expected %q", order.Status, expectedStatus),
		orderModel.ErrInvalidTransition,
	)
}

func (s *deliveryService) recordTransition(ctx context.Context, orderID, courierID uuid.UUID, fromStatus, toStatus string) {
	history := &orderModel.OrderStatusHistory{
		OrderID:    orderID,
		FromStatus: &fromStatus,
		ToStatus:   toStatus,
		ChangedBy:  &courierID,
	}
	if err := s.orderRepo.CreateOrderStatusHistory(ctx, history); err != nil {
		logger.Error("Failed to record delivery transition history", err)
	}
}

func (s *deliveryService) notifyStatusChange(orderID, userID uuid.UUID, fromStatus, toStatus string) {
	if s.asynq == nil {
		return
	}

	payload := shared.OrderEventPayload{
		OrderID:    orderID.String(),
		UserID:     userID.String(),
		FromStatus: fromStatus,
		ToStatus:   toStatus,
	}

	b, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to marshal delivery event payload", err)
		return
	}

	task := asynq.NewTask(shared.TypeOrderStatusChanged, b)
	if _, err := s.asynq.Enqueue(task, asynq.Queue(shared.QueueNotifications)); err != nil {
		logger.Error("Failed to enqueue delivery status notification", err)
	}
}
