package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"foodorder-backend/internal/domains/order/model"
)

// =====================================================
// POSTGRES REPOSITORY IMPLEMENTATION
// =====================================================
type postgresOrderRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &postgresOrderRepository{
		pool: pool,
	}
}

const orderColumns = `
	id, user_id, status, payment_method, coupon_id,
	subtotal, discount_amount, delivery_fee, tax, total,
	street, city, postal_code, reference,
	customer_note, admin_note,
	delivery_person_id, ready_at, accepted_at, picked_up_at, delivered_at,
	created_at, updated_at, cancelled_at, version`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var order model.Order
	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.Status,
		&order.PaymentMethod,
		&order.CouponID,
		&order.Subtotal,
		&order.DiscountAmount,
		&order.DeliveryFee,
		&order.Tax,
		&order.Total,
		&order.Street,
		&order.City,
		&order.PostalCode,
		&order.Reference,
		&order.CustomerNote,
		&order.AdminNote,
		&order.DeliveryPersonID,
		&order.ReadyAt,
		&order.AcceptedAt,
		&order.PickedUpAt,
		&order.DeliveredAt,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.CancelledAt,
		&order.Version,
	)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// =====================================================
// TRANSACTION MANAGEMENT
// =====================================================

func (r *postgresOrderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func (r *postgresOrderRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	return tx.Commit(ctx)
}

func (r *postgresOrderRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	return tx.Rollback(ctx)
}

// =====================================================
// CREATE ORDER
// =====================================================

func (r *postgresOrderRepository) CreateOrderWithTx(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (
			id, user_id, status, payment_method, coupon_id,
			subtotal, discount_amount, delivery_fee, tax, total,
			street, city, postal_code, reference,
			customer_note, version
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10,
			$11, $12, $13, $14,
			$15, $16
		)
		RETURNING created_at, updated_at
	`

	err := tx.QueryRow(ctx, query,
		order.ID,
		order.UserID,
		order.Status,
		order.PaymentMethod,
		order.CouponID,
		order.Subtotal,
		order.DiscountAmount,
		order.DeliveryFee,
		order.Tax,
		order.Total,
		order.Street,
		order.City,
		order.PostalCode,
		order.Reference,
		order.CustomerNote,
		order.Version,
	).Scan(&order.CreatedAt, &order.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create order with tx: %w", err)
	}

	return nil
}

func (r *postgresOrderRepository) CreateOrderItemsWithTx(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	batch := &pgx.Batch{}
	query := `
		INSERT INTO order_items (
			id, order_id, product_id, product_name, quantity, unit_price, extras, subtotal
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	for _, item := range items {
		batch.Queue(query,
			item.ID,
			item.OrderID,
			item.ProductID,
			item.ProductName,
			item.Quantity,
			item.UnitPrice,
			item.Extras,
			item.Subtotal,
		)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(items); i++ {
		_, err := results.Exec()
		if err != nil {
			return fmt.Errorf("failed to create order item %d: %w", i, err)
		}
	}

	return nil
}

// =====================================================
// GET ORDER
// =====================================================

func (r *postgresOrderRepository) GetOrderByID(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order by id: %w", err)
	}

	return order, nil
}

func (r *postgresOrderRepository) GetOrderByIDAndUserID(ctx context.Context, orderID, userID uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND user_id = $2`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, orderID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order by id and user id: %w", err)
	}

	return order, nil
}

func (r *postgresOrderRepository) GetOrderItemsByOrderID(ctx context.Context, orderID uuid.UUID) ([]model.OrderItem, error) {
	query := `
		SELECT
			id, order_id, product_id, product_name, quantity, unit_price, extras, subtotal, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order items: %w", err)
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var item model.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.ProductName,
			&item.Quantity,
			&item.UnitPrice,
			&item.Extras,
			&item.Subtotal,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating order items: %w", rows.Err())
	}

	return items, nil
}

func (r *postgresOrderRepository) CountOrderItemsByOrderIDs(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	result := make(map[uuid.UUID]int)
	if len(orderIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT order_id, COUNT(*)
		FROM order_items
		WHERE order_id = ANY($1)
		GROUP BY order_id
	`

	rows, err := r.pool.Query(ctx, query, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to count order items by order ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var oid uuid.UUID
		var count int
		if err := rows.Scan(&oid, &count); err != nil {
			return nil, fmt.Errorf("failed to scan order items count: %w", err)
		}
		result[oid] = count
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating order items count: %w", rows.Err())
	}

	return result, nil
}

// =====================================================
// LIST ORDERS
// =====================================================

func (r *postgresOrderRepository) ListOrdersByUserID(ctx context.Context, userID uuid.UUID, status string, page, limit int) ([]model.Order, int, error) {
	offset := (page - 1) * limit

	queryBuilder := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1`
	countQuery := `SELECT COUNT(*) FROM orders WHERE user_id = $1`
	args := []interface{}{userID}
	countArgs := []interface{}{userID}

	if status != "" {
		queryBuilder += ` AND status = $2`
		countQuery += ` AND status = $2`
		args = append(args, status)
		countArgs = append(countArgs, status)
	}

	queryBuilder += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	var total int
	err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	rows, err := r.pool.Query(ctx, queryBuilder, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders, err := collectOrders(rows)
	if err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *postgresOrderRepository) ListAllOrders(ctx context.Context, status string, page, limit int) ([]model.Order, int, error) {
	offset := (page - 1) * limit

	queryBuilder := `SELECT ` + orderColumns + ` FROM orders WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM orders WHERE 1=1`
	args := []interface{}{}
	countArgs := []interface{}{}

	if status != "" {
		queryBuilder += ` AND status = $1`
		countQuery += ` AND status = $1`
		args = append(args, status)
		countArgs = append(countArgs, status)
	}

	queryBuilder += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	var total int
	err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count all orders: %w", err)
	}

	rows, err := r.pool.Query(ctx, queryBuilder, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list all orders: %w", err)
	}
	defer rows.Close()

	orders, err := collectOrders(rows)
	if err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func collectOrders(rows pgx.Rows) ([]model.Order, error) {
	var orders []model.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating orders: %w", rows.Err())
	}

	return orders, nil
}

func (r *postgresOrderRepository) CountNonCancelledByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM orders WHERE user_id = $1 AND status != $2`

	var count int
	err := r.pool.QueryRow(ctx, query, userID, model.OrderStatusCancelled).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count orders by user: %w", err)
	}

	return count, nil
}

// =====================================================
// UPDATE ORDER
// =====================================================

// UpdateOrderStatus moves the order and backfills the delivery timestamps
// the new status implies. Stamps never overwrite an already-set column, so
// an override jump keeps the real pickup time recorded by a courier.
func (r *postgresOrderRepository) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status string, version int, adminNote *string, stamps model.StatusTimestamps) error {
	query := `
		UPDATE orders
		SET status = $1,
			admin_note = COALESCE($4, admin_note),
			ready_at = COALESCE(ready_at, $5),
			picked_up_at = COALESCE(picked_up_at, $6),
			delivered_at = COALESCE(delivered_at, $7),
			version = version + 1,
			updated_at = NOW()
		WHERE id = $2 AND version = $3
	`

	result, err := r.pool.Exec(ctx, query, status, orderID, version, adminNote,
		stamps.ReadyAt, stamps.PickedUpAt, stamps.DeliveredAt)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return model.ErrVersionMismatch
	}

	return nil
}

func (r *postgresOrderRepository) ConfirmPaidOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	query := `
		UPDATE orders
		SET status = $1,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $2 AND status = $3
	`

	result, err := r.pool.Exec(ctx, query, model.OrderStatusConfirmed, orderID, model.OrderStatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to confirm paid order: %w", err)
	}

	return result.RowsAffected() == 1, nil
}

func (r *postgresOrderRepository) CancelOrder(ctx context.Context, orderID uuid.UUID, reason *string, version int) error {
	query := `
		UPDATE orders
		SET status = $1,
			admin_note = COALESCE($2, admin_note),
			cancelled_at = NOW(),
			version = version + 1,
			updated_at = NOW()
		WHERE id = $3 AND version = $4
	`

	result, err := r.pool.Exec(ctx, query, model.OrderStatusCancelled, reason, orderID, version)
	if err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}

	if result.RowsAffected() == 0 {
		return model.ErrVersionMismatch
	}

	return nil
}

func (r *postgresOrderRepository) ConfirmDelivery(ctx context.Context, orderID, userID uuid.UUID) error {
	query := `
		UPDATE orders
		SET status = $1,
			delivered_at = NOW(),
			version = version + 1,
			updated_at = NOW()
		WHERE id = $2 AND user_id = $3 AND status = $4
	`

	result, err := r.pool.Exec(ctx, query, model.OrderStatusDelivered, orderID, userID, model.OrderStatusDelivering)
	if err != nil {
		return fmt.Errorf("failed to confirm delivery: %w", err)
	}

	if result.RowsAffected() == 0 {
		return model.ErrInvalidTransition
	}

	return nil
}

// =====================================================
// STALE ORDER SWEEP
// =====================================================

func (r *postgresOrderRepository) FindStalePendingIDs(ctx context.Context, olderThan time.Time) ([]uuid.UUID, error) {
	query := `
		SELECT id FROM orders
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, model.OrderStatusPending, olderThan)
	if err != nil {
		return nil, fmt.Errorf("failed to find stale pending orders: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan stale order id: %w", err)
		}
		ids = append(ids, id)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating stale order ids: %w", rows.Err())
	}

	return ids, nil
}

// CancelStalePending is the idempotent half of the sweep: the conditions
// make a repeat call, or a call racing a confirmation, update nothing.
func (r *postgresOrderRepository) CancelStalePending(ctx context.Context, orderID uuid.UUID, olderThan time.Time) (bool, error) {
	query := `
		UPDATE orders
		SET status = $1,
			cancelled_at = NOW(),
			version = version + 1,
			updated_at = NOW()
		WHERE id = $2 AND status = $3 AND created_at < $4
	`

	result, err := r.pool.Exec(ctx, query, model.OrderStatusCancelled, orderID, model.OrderStatusPending, olderThan)
	if err != nil {
		return false, fmt.Errorf("failed to cancel stale order: %w", err)
	}

	return result.RowsAffected() == 1, nil
}

// =====================================================
// ORDER STATUS HISTORY
// =====================================================

func (r *postgresOrderRepository) CreateOrderStatusHistory(ctx context.Context, history *model.OrderStatusHistory) error {
	query := `
		INSERT INTO order_status_history (
			order_id, from_status, to_status, changed_by, notes
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING id, changed_at
	`

	err := r.pool.QueryRow(ctx, query,
		history.OrderID,
		history.FromStatus,
		history.ToStatus,
		history.ChangedBy,
		history.Notes,
	).Scan(&history.ID, &history.ChangedAt)

	if err != nil {
		return fmt.Errorf("failed to create order status history: %w", err)
	}

	return nil
}

func (r *postgresOrderRepository) CreateOrderStatusHistoryWithTx(ctx context.Context, tx pgx.Tx, history *model.OrderStatusHistory) error {
	query := `
		INSERT INTO order_status_history (
			order_id, from_status, to_status, changed_by, notes
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING id, changed_at
	`

	err := tx.QueryRow(ctx, query,
		history.OrderID,
		history.FromStatus,
		history.ToStatus,
		history.ChangedBy,
		history.Notes,
	).Scan(&history.ID, &history.ChangedAt)

	if err != nil {
		return fmt.Errorf("failed to create order status history with tx: %w", err)
	}

	return nil
}

func (r *postgresOrderRepository) GetOrderStatusHistory(ctx context.Context, orderID uuid.UUID) ([]model.OrderStatusHistory, error) {
	query := `
		SELECT
			id, order_id, from_status, to_status, changed_by, notes, changed_at
		FROM order_status_history
		WHERE order_id = $1
		ORDER BY changed_at ASC
	`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order status history: %w", err)
	}
	defer rows.Close()

	var histories []model.OrderStatusHistory
	for rows.Next() {
		var history model.OrderStatusHistory
		err := rows.Scan(
			&history.ID,
			&history.OrderID,
			&history.FromStatus,
			&history.ToStatus,
			&history.ChangedBy,
			&history.Notes,
			&history.ChangedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order status history: %w", err)
		}
		histories = append(histories, history)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating order status history: %w", rows.Err())
	}

	return histories, nil
}
