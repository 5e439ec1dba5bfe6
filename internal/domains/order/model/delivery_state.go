package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// =====================================================
// DELIVERY STATE (tagged variant)
// =====================================================
// Delivery progress is a single variant rather than loose nullable
// columns, so a courier and its timestamps cannot be read in a
// combination the lifecycle never produces.
type DeliveryStateKind string

const (
	DeliveryUnclaimed DeliveryStateKind = "unclaimed"
	DeliveryClaimed   DeliveryStateKind = "claimed"
	DeliveryPickedUp  DeliveryStateKind = "picked_up"
	DeliveryDelivered DeliveryStateKind = "delivered"
)

type DeliveryState struct {
	Kind    DeliveryStateKind `json:"kind"`
	Courier *uuid.UUID        `json:"courier,omitempty"`
	At      *time.Time        `json:"at,omitempty"`
}

var ErrInconsistentDeliveryState = errors.New("delivery columns disagree with order status")

// DeliveryState derives the delivery variant from the order row. It fails
// on combinations the transitions cannot produce, e.g. a picked-up
// timestamp with no courier, or a delivering status on an unclaimed order.
func (o *Order) DeliveryState() (DeliveryState, error) {
	switch {
	case o.DeliveredAt != nil:
		if o.DeliveryPersonID == nil || o.PickedUpAt == nil {
			return DeliveryState{}, ErrInconsistentDeliveryState
		}
		return DeliveryState{Kind: DeliveryDelivered, Courier: o.DeliveryPersonID, At: o.DeliveredAt}, nil

	case o.PickedUpAt != nil:
		if o.DeliveryPersonID == nil || o.AcceptedAt == nil {
			return DeliveryState{}, ErrInconsistentDeliveryState
		}
		if o.Status != OrderStatusDelivering {
			return DeliveryState{}, ErrInconsistentDeliveryState
		}
		return DeliveryState{Kind: DeliveryPickedUp, Courier: o.DeliveryPersonID, At: o.PickedUpAt}, nil

	case o.DeliveryPersonID != nil:
		if o.AcceptedAt == nil {
			return DeliveryState{}, ErrInconsistentDeliveryState
		}
		return DeliveryState{Kind: DeliveryClaimed, Courier: o.DeliveryPersonID, At: o.AcceptedAt}, nil

	default:
		if o.Status == OrderStatusDelivering || o.Status == OrderStatusDelivered {
			return DeliveryState{}, ErrInconsistentDeliveryState
		}
		return DeliveryState{Kind: DeliveryUnclaimed}, nil
	}
}

// NextDeliveryState returns the variant after a transition, enforcing order:
// unclaimed -> claimed -> picked_up -> delivered.
func (ds DeliveryState) NextDeliveryState(kind DeliveryStateKind, courier uuid.UUID, at time.Time) (DeliveryState, error) {
	valid := map[DeliveryStateKind]DeliveryStateKind{
		DeliveryUnclaimed: DeliveryClaimed,
		DeliveryClaimed:   DeliveryPickedUp,
		DeliveryPickedUp:  DeliveryDelivered,
	}

	next, ok := valid[ds.Kind]
	if !ok || next != kind {
		return DeliveryState{}, ErrInvalidTransition
	}

	if ds.Kind != DeliveryUnclaimed && (ds.Courier == nil || *ds.Courier != courier) {
		return DeliveryState{}, ErrNotOrderOwner
	}

	return DeliveryState{Kind: kind, Courier: &courier, At: &at}, nil
}
