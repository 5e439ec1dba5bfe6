package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"foodorder-backend/internal/domains/coupon/model"
)

const couponColumns = `
	id, code, description,
	discount_type, value, min_amount, max_discount,
	day_of_week, is_weekend_only, trigger_type,
	max_uses_per_user, valid_from, valid_until,
	active, current_uses, created_at, updated_at
`

// =====================================================
// POSTGRES REPOSITORY IMPLEMENTATION
// =====================================================
type postgresCouponRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresCouponRepository(pool *pgxpool.Pool) CouponRepository {
	return &postgresCouponRepository{pool: pool}
}

func scanCoupon(row pgx.Row) (*model.Coupon, error) {
	var c model.Coupon
	err := row.Scan(
		&c.ID,
		&c.Code,
		&c.Description,
		&c.DiscountType,
		&c.Value,
		&c.MinAmount,
		&c.MaxDiscount,
		&c.DayOfWeek,
		&c.IsWeekendOnly,
		&c.TriggerType,
		&c.MaxUsesPerUser,
		&c.ValidFrom,
		&c.ValidUntil,
		&c.Active,
		&c.CurrentUses,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// =====================================================
// READ OPERATIONS
// =====================================================

func (r *postgresCouponRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE id = $1`

	c, err := scanCoupon(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrCouponNotFound
		}
		return nil, fmt.Errorf("find coupon by id: %w", err)
	}

	return c, nil
}

// FindByCode looks a coupon up case-insensitively.
func (r *postgresCouponRepository) FindByCode(ctx context.Context, code string) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE LOWER(code) = LOWER($1)`

	c, err := scanCoupon(r.pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrCouponNotFound
		}
		return nil, fmt.Errorf("find coupon by code: %w", err)
	}

	return c, nil
}

func (r *postgresCouponRepository) ListActive(ctx context.Context) ([]*model.Coupon, error) {
	query := `
		SELECT ` + couponColumns + `
		FROM coupons
		WHERE active = true
		  AND (valid_from IS NULL OR valid_from <= NOW())
		  AND (valid_until IS NULL OR valid_until >= NOW())
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list active coupons: %w", err)
	}
	defer rows.Close()

	var coupons []*model.Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan coupon: %w", err)
		}
		coupons = append(coupons, c)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating coupons: %w", rows.Err())
	}

	return coupons, nil
}

// =====================================================
// USAGE TRACKING
// =====================================================

func (r *postgresCouponRepository) CountUsageByUser(ctx context.Context, couponID, userID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM coupon_usage WHERE coupon_id = $1 AND user_id = $2`

	var count int
	err := r.pool.QueryRow(ctx, query, couponID, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count coupon usage: %w", err)
	}

	return count, nil
}

func (r *postgresCouponRepository) CountUsageByUserAll(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, error) {
	query := `
		SELECT coupon_id, COUNT(*)
		FROM coupon_usage
		WHERE user_id = $1
		GROUP BY coupon_id
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("count coupon usage by user: %w", err)
	}
	defer rows.Close()

	result := make(map[uuid.UUID]int)
	for rows.Next() {
		var couponID uuid.UUID
		var count int
		if err := rows.Scan(&couponID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan usage count: %w", err)
		}
		result[couponID] = count
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating usage counts: %w", rows.Err())
	}

	return result, nil
}

// ApplyUsageWithTx serializes per-coupon usage commits: the FOR UPDATE lock
// forces concurrent checkouts through one at a time, so the count re-check
// inside this transaction is authoritative.
func (r *postgresCouponRepository) ApplyUsageWithTx(ctx context.Context, tx pgx.Tx, usage *model.CouponUsage, maxUsesPerUser int) error {
	var currentUses int
	err := tx.QueryRow(ctx,
		`SELECT current_uses FROM coupons WHERE id = $1 FOR UPDATE`,
		usage.CouponID,
	).Scan(&currentUses)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrCouponNotFound
		}
		return fmt.Errorf("lock coupon for usage: %w", err)
	}

	var userUses int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM coupon_usage WHERE coupon_id = $1 AND user_id = $2`,
		usage.CouponID, usage.UserID,
	).Scan(&userUses)
	if err != nil {
		return fmt.Errorf("recheck coupon usage count: %w", err)
	}

	if userUses >= maxUsesPerUser {
		return model.NewCouponError(model.ErrCodeCouponExhausted, "Coupon usage limit reached", model.ErrCouponExhausted)
	}

	if usage.ID == uuid.Nil {
		usage.ID = uuid.New()
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO coupon_usage (
			id, coupon_id, user_id, order_id, discount_amount, used_at
		) VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING used_at
	`,
		usage.ID,
		usage.CouponID,
		usage.UserID,
		usage.OrderID,
		usage.DiscountAmount,
	).Scan(&usage.UsedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return model.NewCouponError(model.ErrCodeCouponDuplicate, "Coupon already applied to this order", model.ErrCouponDuplicate)
		}
		return fmt.Errorf("create coupon usage: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE coupons SET current_uses = current_uses + 1, updated_at = NOW() WHERE id = $1`,
		usage.CouponID,
	)
	if err != nil {
		return fmt.Errorf("increment coupon uses: %w", err)
	}

	return nil
}

func (r *postgresCouponRepository) UsageHistoryByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.UsageHistoryItem, int, error) {
	offset := (page - 1) * limit

	query := `
		SELECT cu.coupon_id, c.code, cu.order_id, cu.discount_amount, cu.used_at
		FROM coupon_usage cu
		JOIN coupons c ON c.id = cu.coupon_id
		WHERE cu.user_id = $1
		ORDER BY cu.used_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("usage history: %w", err)
	}
	defer rows.Close()

	var items []model.UsageHistoryItem
	for rows.Next() {
		var item model.UsageHistoryItem
		if err := rows.Scan(&item.CouponID, &item.Code, &item.OrderID, &item.DiscountAmount, &item.UsedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan usage history item: %w", err)
		}
		items = append(items, item)
	}

	if rows.Err() != nil {
		return nil, 0, fmt.Errorf("error iterating usage history: %w", rows.Err())
	}

	var total int
	err = r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM coupon_usage WHERE user_id = $1`, userID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count usage history: %w", err)
	}

	return items, total, nil
}

// =====================================================
// WRITE OPERATIONS (ADMIN)
// =====================================================

func (r *postgresCouponRepository) Create(ctx context.Context, coupon *model.Coupon) error {
	coupon.Code = strings.ToUpper(coupon.Code)
	if coupon.ID == uuid.Nil {
		coupon.ID = uuid.New()
	}

	query := `
		INSERT INTO coupons (
			id, code, description,
			discount_type, value, min_amount, max_discount,
			day_of_week, is_weekend_only, trigger_type,
			max_uses_per_user, valid_from, valid_until,
			active, current_uses, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, 0, NOW(), NOW()
		)
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		coupon.ID,
		coupon.Code,
		coupon.Description,
		coupon.DiscountType,
		coupon.Value,
		coupon.MinAmount,
		coupon.MaxDiscount,
		coupon.DayOfWeek,
		coupon.IsWeekendOnly,
		coupon.TriggerType,
		coupon.MaxUsesPerUser,
		coupon.ValidFrom,
		coupon.ValidUntil,
		coupon.Active,
	).Scan(&coupon.CreatedAt, &coupon.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return model.ErrCouponCodeExists
		}
		return fmt.Errorf("create coupon: %w", err)
	}

	coupon.CurrentUses = 0

	return nil
}

func (r *postgresCouponRepository) Update(ctx context.Context, coupon *model.Coupon) error {
	query := `
		UPDATE coupons
		SET description = $2,
			value = $3,
			min_amount = $4,
			max_discount = $5,
			max_uses_per_user = $6,
			valid_until = $7,
			active = $8,
			updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		coupon.ID,
		coupon.Description,
		coupon.Value,
		coupon.MinAmount,
		coupon.MaxDiscount,
		coupon.MaxUsesPerUser,
		coupon.ValidUntil,
		coupon.Active,
	)
	if err != nil {
		return fmt.Errorf("update coupon: %w", err)
	}

	if result.RowsAffected() == 0 {
		return model.ErrCouponNotFound
	}

	return nil
}

func (r *postgresCouponRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE coupons SET active = $2, updated_at = NOW() WHERE id = $1`,
		id, active,
	)
	if err != nil {
		return fmt.Errorf("set coupon active: %w", err)
	}

	if result.RowsAffected() == 0 {
		return model.ErrCouponNotFound
	}

	return nil
}
