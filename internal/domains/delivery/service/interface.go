package service

import (
	"context"

	"github.com/google/uuid"

	"foodorder-backend/internal/domains/delivery/model"
)

// DeliveryService coordinates courier claims and progress updates.
type DeliveryService interface {
	ListAvailable(ctx context.Context) ([]model.DeliveryOrder, error)

	// Accept claims a ready order for the courier. At most one courier
	// can ever win a given order.
	Accept(ctx context.Context, orderID, courierID uuid.UUID) (*model.DeliveryOrder, error)

	// Pickup marks a claimed order as out for delivery.
	Pickup(ctx context.Context, orderID, courierID uuid.UUID) (*model.DeliveryOrder, error)

	// Deliver completes a delivering order held by the courier.
	Deliver(ctx context.Context, orderID, courierID uuid.UUID) (*model.DeliveryOrder, error)

	History(ctx context.Context, courierID uuid.UUID, req model.ListHistoryRequest) ([]model.DeliveryOrder, int, error)
}
