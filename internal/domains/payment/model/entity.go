package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =====================================================
// PAYMENT STATUS CONSTANTS
// =====================================================
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// =====================================================
// ENTITY: Payment
// =====================================================
// One payment row per order. Cash orders get a pending marker at checkout,
// transfer orders get a row carrying the confirmation token, card orders get
// their row when the card is submitted.
type Payment struct {
	ID      uuid.UUID `json:"id"`
	OrderID uuid.UUID `json:"order_id"`
	Method  string    `json:"method"`

	Amount decimal.Decimal `json:"amount"`

	// TransactionRef is the authorizer's reference for card payments.
	TransactionRef *string `json:"transaction_ref,omitempty"`
	// ConfirmationToken is the opaque token in transfer confirmation links.
	ConfirmationToken *uuid.UUID `json:"-"`

	Status      string     `json:"status"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	RefundedAt  *time.Time `json:"refunded_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// IsPaid reports whether the payment has been captured.
func (p *Payment) IsPaid() bool {
	return p.Status == PaymentStatusPaid
}

// CanBeRefunded checks the refund precondition.
func (p *Payment) CanBeRefunded() bool {
	return p.Status == PaymentStatusPaid
}
