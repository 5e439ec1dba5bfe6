package repository

import (
	"context"

	"github.com/google/uuid"

	"foodorder-backend/internal/domains/delivery/model"
)

// DeliveryRepository is the courier-side data access contract. It reads and
// claims rows in the orders table; claim and progress updates are single
// conditional statements so concurrent couriers cannot both win.
type DeliveryRepository interface {
	// ListAvailable returns ready, unclaimed orders, oldest ready first.
	ListAvailable(ctx context.Context) ([]model.DeliveryOrder, error)

	GetDeliveryOrder(ctx context.Context, orderID uuid.UUID) (*model.DeliveryOrder, error)

	// Claim assigns the order to the courier if and only if it is still
	// ready and unclaimed. False means another courier won.
	Claim(ctx context.Context, orderID, courierID uuid.UUID) (bool, error)

	// MarkPickedUp moves a claimed ready order to delivering.
	MarkPickedUp(ctx context.Context, orderID, courierID uuid.UUID) (bool, error)

	// MarkDelivered closes a delivering order held by the courier.
	MarkDelivered(ctx context.Context, orderID, courierID uuid.UUID) (bool, error)

	// ListHistory returns the courier's past and in-flight assignments.
	ListHistory(ctx context.Context, courierID uuid.UUID, page, limit int) ([]model.DeliveryOrder, int, error)
}
