package service

import (
	"context"

	"github.com/google/uuid"

	"foodorder-backend/internal/domains/payment/model"
)

// PaymentService is the reconciliation surface for the three payment
// methods: card capture, transfer confirmation, and admin refunds. Cash
// needs no endpoint; its marker row settles on delivery.
type PaymentService interface {
	SubmitCardPayment(ctx context.Context, userID uuid.UUID, req model.SubmitCardPaymentRequest) (*model.SubmitCardPaymentResponse, error)

	// ConfirmTransfer is idempotent: a repeated confirmation with the same
	// token succeeds with AlreadyPaid set instead of failing.
	ConfirmTransfer(ctx context.Context, req model.ConfirmTransferRequest) (*model.ConfirmTransferResponse, error)

	Refund(ctx context.Context, orderID uuid.UUID) (*model.RefundResponse, error)
}
