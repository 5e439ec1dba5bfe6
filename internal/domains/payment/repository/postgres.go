package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	orderModel "foodorder-backend/internal/domains/order/model"
	"foodorder-backend/internal/domains/payment/model"
)

// =====================================================
// POSTGRES REPOSITORY IMPLEMENTATION
// =====================================================
type postgresPaymentRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresPaymentRepository(pool *pgxpool.Pool) PaymentRepository {
	return &postgresPaymentRepository{
		pool: pool,
	}
}

const paymentColumns = `
	id, order_id, method, amount, transaction_ref, confirmation_token,
	status, confirmed_at, refunded_at, created_at`

func scanPayment(row pgx.Row) (*model.Payment, error) {
	var payment model.Payment
	err := row.Scan(
		&payment.ID,
		&payment.OrderID,
		&payment.Method,
		&payment.Amount,
		&payment.TransactionRef,
		&payment.ConfirmationToken,
		&payment.Status,
		&payment.ConfirmedAt,
		&payment.RefundedAt,
		&payment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *postgresPaymentRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, payment *model.Payment) error {
	query := `
		INSERT INTO payments (
			id, order_id, method, amount, transaction_ref, confirmation_token, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err := tx.QueryRow(ctx, query,
		payment.ID,
		payment.OrderID,
		payment.Method,
		payment.Amount,
		payment.TransactionRef,
		payment.ConfirmationToken,
		payment.Status,
	).Scan(&payment.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create payment with tx: %w", err)
	}

	return nil
}

func (r *postgresPaymentRepository) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*model.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE order_id = $1`

	payment, err := scanPayment(r.pool.QueryRow(ctx, query, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get payment by order id: %w", err)
	}

	return payment, nil
}

// UpsertCardResult writes the attempt outcome. The WHERE on the conflict
// branch keeps a captured payment from ever being downgraded by a retry.
func (r *postgresPaymentRepository) UpsertCardResult(ctx context.Context, payment *model.Payment) (bool, error) {
	query := `
		INSERT INTO payments (
			id, order_id, method, amount, transaction_ref, status, confirmed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (order_id) DO UPDATE
		SET transaction_ref = EXCLUDED.transaction_ref,
			status = EXCLUDED.status,
			confirmed_at = EXCLUDED.confirmed_at
		WHERE payments.status != $8
	`

	result, err := r.pool.Exec(ctx, query,
		payment.ID,
		payment.OrderID,
		payment.Method,
		payment.Amount,
		payment.TransactionRef,
		payment.Status,
		payment.ConfirmedAt,
		model.PaymentStatusPaid,
	)
	if err != nil {
		return false, fmt.Errorf("failed to upsert card payment: %w", err)
	}

	return result.RowsAffected() == 1, nil
}

// ConfirmTransfer is a single conditional UPDATE, so exactly one confirm
// per token can win regardless of how many requests race.
func (r *postgresPaymentRepository) ConfirmTransfer(ctx context.Context, orderID uuid.UUID, token uuid.UUID) (bool, error) {
	query := `
		UPDATE payments
		SET status = $1, confirmed_at = NOW()
		WHERE order_id = $2 AND confirmation_token = $3 AND confirmed_at IS NULL
	`

	result, err := r.pool.Exec(ctx, query, model.PaymentStatusPaid, orderID, token)
	if err != nil {
		return false, fmt.Errorf("failed to confirm transfer: %w", err)
	}

	return result.RowsAffected() == 1, nil
}

func (r *postgresPaymentRepository) SettleCashOnDelivery(ctx context.Context, orderID uuid.UUID) (bool, error) {
	query := `
		UPDATE payments
		SET status = $1, confirmed_at = NOW()
		WHERE order_id = $2 AND method = $3 AND status = $4
	`

	result, err := r.pool.Exec(ctx, query,
		model.PaymentStatusPaid, orderID, orderModel.PaymentMethodCash, model.PaymentStatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to settle cash payment: %w", err)
	}

	return result.RowsAffected() == 1, nil
}

func (r *postgresPaymentRepository) MarkRefunded(ctx context.Context, orderID uuid.UUID) (*model.Payment, error) {
	query := `
		UPDATE payments
		SET status = $1, refunded_at = NOW()
		WHERE order_id = $2 AND status = $3
		RETURNING ` + paymentColumns

	payment, err := scanPayment(r.pool.QueryRow(ctx, query, model.PaymentStatusRefunded, orderID, model.PaymentStatusPaid))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotRefundable
		}
		return nil, fmt.Errorf("failed to mark payment refunded: %w", err)
	}

	return payment, nil
}
