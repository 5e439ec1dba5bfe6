package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"foodorder-backend/internal/domains/delivery/model"
	orderModel "foodorder-backend/internal/domains/order/model"
)

// =====================================================
// POSTGRES REPOSITORY IMPLEMENTATION
// =====================================================
type postgresDeliveryRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresDeliveryRepository(pool *pgxpool.Pool) DeliveryRepository {
	return &postgresDeliveryRepository{
		pool: pool,
	}
}

const deliveryOrderColumns = `
	id, user_id, status, payment_method, total,
	street, city, postal_code, reference, customer_note,
	delivery_person_id, ready_at, accepted_at, picked_up_at, delivered_at,
	created_at`

func scanDeliveryOrder(row pgx.Row) (*model.DeliveryOrder, error) {
	var order model.DeliveryOrder
	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.Status,
		&order.PaymentMethod,
		&order.Total,
		&order.Street,
		&order.City,
		&order.PostalCode,
		&order.Reference,
		&order.CustomerNote,
		&order.DeliveryPersonID,
		&order.ReadyAt,
		&order.AcceptedAt,
		&order.PickedUpAt,
		&order.DeliveredAt,
		&order.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *postgresDeliveryRepository) ListAvailable(ctx context.Context) ([]model.DeliveryOrder, error) {
	query := `
		SELECT ` + deliveryOrderColumns + `
		FROM orders
		WHERE status = $1 AND delivery_person_id IS NULL
		ORDER BY ready_at ASC NULLS LAST, created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, orderModel.OrderStatusReady)
	if err != nil {
		return nil, fmt.Errorf("failed to list available orders: %w", err)
	}
	defer rows.Close()

	return collectDeliveryOrders(rows)
}

func (r *postgresDeliveryRepository) GetDeliveryOrder(ctx context.Context, orderID uuid.UUID) (*model.DeliveryOrder, error) {
	query := `SELECT ` + deliveryOrderColumns + ` FROM orders WHERE id = $1`

	order, err := scanDeliveryOrder(r.pool.QueryRow(ctx, query, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, orderModel.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get delivery order: %w", err)
	}

	return order, nil
}

// Claim is the whole claim coordinator: one conditional UPDATE. Under any
// number of racing couriers exactly one statement matches the row; the rest
// see zero rows affected.
func (r *postgresDeliveryRepository) Claim(ctx context.Context, orderID, courierID uuid.UUID) (bool, error) {
	query := `
		UPDATE orders
		SET delivery_person_id = $1,
			accepted_at = NOW(),
			version = version + 1,
			updated_at = NOW()
		WHERE id = $2 AND status = $3 AND delivery_person_id IS NULL
	`

	result, err := r.pool.Exec(ctx, query, courierID, orderID, orderModel.OrderStatusReady)
	if err != nil {
		return false, fmt.Errorf("failed to claim order: %w", err)
	}

	return result.RowsAffected() == 1, nil
}

func (r *postgresDeliveryRepository) MarkPickedUp(ctx context.Context, orderID, courierID uuid.UUID) (bool, error) {
	query := `
		UPDATE orders
		SET status = $1,
			picked_up_at = NOW(),
			version = version + 1,
			updated_at = NOW()
		WHERE id = $2 AND delivery_person_id = $3 AND status = $4
	`

	result, err := r.pool.Exec(ctx, query, orderModel.OrderStatusDelivering, orderID, courierID, orderModel.OrderStatusReady)
	if err != nil {
		return false, fmt.Errorf("failed to mark order picked up: %w", err)
	}

	return result.RowsAffected() == 1, nil
}

func (r *postgresDeliveryRepository) MarkDelivered(ctx context.Context, orderID, courierID uuid.UUID) (bool, error) {
	query := `
		UPDATE orders
		SET status = $1,
			delivered_at = NOW(),
			version = version + 1,
			updated_at = NOW()
		WHERE id = $2 AND delivery_person_id = $3 AND status = $4
	`

	result, err := r.pool.Exec(ctx, query, orderModel.OrderStatusDelivered, orderID, courierID, orderModel.OrderStatusDelivering)
	if err != nil {
		return false, fmt.Errorf("failed to mark order delivered: %w", err)
	}

	return result.RowsAffected() == 1, nil
}

func (r *postgresDeliveryRepository) ListHistory(ctx context.Context, courierID uuid.UUID, page, limit int) ([]model.DeliveryOrder, int, error) {
	offset := (page - 1) * limit

	countQuery := `SELECT COUNT(*) FROM orders WHERE delivery_person_id = $1`

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, courierID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count courier orders: %w", err)
	}

	query := `
		SELECT ` + deliveryOrderColumns + `
		FROM orders
		WHERE delivery_person_id = $1
		ORDER BY accepted_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, courierID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list courier orders: %w", err)
	}
	defer rows.Close()

	orders, err := collectDeliveryOrders(rows)
	if err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func collectDeliveryOrders(rows pgx.Rows) ([]model.DeliveryOrder, error) {
	var orders []model.DeliveryOrder
	for rows.Next() {
		order, err := scanDeliveryOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan delivery order: %w", err)
		}
		orders = append(orders, *order)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating delivery orders: %w", rows.Err())
	}

	return orders, nil
}
