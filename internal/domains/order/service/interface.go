package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"foodorder-backend/internal/domains/order/model"
)

// OrderService defines order business logic operations
type OrderService interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, req model.CreateOrderRequest) (*model.CreateOrderResponse, error)
	GetOrderDetail(ctx context.Context, orderID, requesterID uuid.UUID, isAdmin bool) (*model.OrderDetailResponse, error)
	ListOrders(ctx context.Context, userID uuid.UUID, req model.ListOrdersRequest) ([]model.OrderSummaryResponse, int, error)
	ListAllOrders(ctx context.Context, req model.ListOrdersRequest) ([]model.OrderSummaryResponse, int, error)

	CancelOrder(ctx context.Context, orderID, userID uuid.UUID, req model.CancelOrderRequest) error
	UpdateOrderStatus(ctx context.Context, orderID, adminID uuid.UUID, req model.UpdateOrderStatusRequest) error
	ConfirmDelivery(ctx context.Context, orderID, userID uuid.UUID) error

	// CancelStaleOrders cancels pending orders older than maxAge. Safe to
	// run repeatedly; returns how many orders this run cancelled.
	CancelStaleOrders(ctx context.Context, maxAge time.Duration) (int, error)
}
