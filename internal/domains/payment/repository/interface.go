package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"foodorder-backend/internal/domains/payment/model"
)

// PaymentRepository is the data access contract for payments. Each order
// holds at most one payment row, enforced by a unique constraint.
type PaymentRepository interface {
	// CreateWithTx inserts the payment row inside the order creation tx.
	CreateWithTx(ctx context.Context, tx pgx.Tx, payment *model.Payment) error

	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*model.Payment, error)

	// UpsertCardResult records a card attempt. A previous failed attempt is
	// overwritten; a paid row is left untouched and reported via the bool.
	UpsertCardResult(ctx context.Context, payment *model.Payment) (bool, error)

	// ConfirmTransfer flips the matching unconfirmed row to paid. The bool
	// is false when the row was already confirmed, making repeats no-ops.
	ConfirmTransfer(ctx context.Context, orderID uuid.UUID, token uuid.UUID) (bool, error)

	// SettleCashOnDelivery marks the pending cash marker row paid once the
	// order is delivered. Non-cash and already-settled rows match nothing.
	SettleCashOnDelivery(ctx context.Context, orderID uuid.UUID) (bool, error)

	// MarkRefunded flips a paid row to refunded.
	MarkRefunded(ctx context.Context, orderID uuid.UUID) (*model.Payment, error)
}
