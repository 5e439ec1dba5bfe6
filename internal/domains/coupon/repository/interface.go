package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"foodorder-backend/internal/domains/coupon/model"
)

// CouponRepository is the data access contract for coupons and their usage.
type CouponRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Coupon, error)
	FindByCode(ctx context.Context, code string) (*model.Coupon, error)
	ListActive(ctx context.Context) ([]*model.Coupon, error)

	CountUsageByUser(ctx context.Context, couponID, userID uuid.UUID) (int, error)
	CountUsageByUserAll(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, error)

	// ApplyUsageWithTx records a usage row and increments current_uses inside
	// the caller's transaction. It locks the coupon row, re-checks the
	// per-user count, and relies on the (coupon_id, order_id) uniqueness
	// constraint as a backstop, so a burst of duplicate checkouts cannot
	// exceed maxUsesPerUser.
	ApplyUsageWithTx(ctx context.Context, tx pgx.Tx, usage *model.CouponUsage, maxUsesPerUser int) error

	UsageHistoryByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.UsageHistoryItem, int, error)

	Create(ctx context.Context, coupon *model.Coupon) error
	Update(ctx context.Context, coupon *model.Coupon) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}
