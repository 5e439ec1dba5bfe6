package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =====================================================
// DELIVERY ORDER VIEW
// =====================================================
// The courier-facing projection of an order: address, amount to collect,
// and claim progress. Pricing breakdown and items stay in the order domain.
type DeliveryOrder struct {
	ID               uuid.UUID       `json:"id"`
	UserID           uuid.UUID       `json:"user_id"`
	Status           string          `json:"status"`
	PaymentMethod    string          `json:"payment_method"`
	Total            decimal.Decimal `json:"total"`
	Street           string          `json:"street"`
	City             string          `json:"city"`
	PostalCode       string          `json:"postal_code"`
	Reference        *string         `json:"reference,omitempty"`
	CustomerNote     *string         `json:"customer_note,omitempty"`
	DeliveryPersonID *uuid.UUID      `json:"delivery_person_id,omitempty"`
	ReadyAt          *time.Time      `json:"ready_at,omitempty"`
	AcceptedAt       *time.Time      `json:"accepted_at,omitempty"`
	PickedUpAt       *time.Time      `json:"picked_up_at,omitempty"`
	DeliveredAt      *time.Time      `json:"delivered_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// CollectOnDelivery reports whether the courier collects cash.
func (d *DeliveryOrder) CollectOnDelivery() bool {
	return d.PaymentMethod == "cash"
}

// =====================================================
// LIST HISTORY REQUEST
// =====================================================
type ListHistoryRequest struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

// Validate normalizes pagination.
func (req *ListHistoryRequest) Validate() error {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}
	return nil
}
