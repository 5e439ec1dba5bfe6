package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodorder-backend/internal/domains/coupon/model"
)

// =====================================================
// FAKES
// =====================================================

type fakeCouponRepo struct {
	coupons   map[string]*model.Coupon
	userUsage map[uuid.UUID]int // by coupon ID
}

func newFakeCouponRepo(coupons ...*model.Coupon) *fakeCouponRepo {
	r := &fakeCouponRepo{
		coupons:   map[string]*model.Coupon{},
		userUsage: map[uuid.UUID]int{},
	}
	for _, c := range coupons {
		r.coupons[c.Code] = c
	}
	return r
}

func (r *fakeCouponRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Coupon, error) {
	for _, c := range r.coupons {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, model.ErrCouponNotFound
}

func (r *fakeCouponRepo) FindByCode(ctx context.Context, code string) (*model.Coupon, error) {
	c, ok := r.coupons[code]
	if !ok {
		return nil, model.ErrCouponNotFound
	}
	return c, nil
}

func (r *fakeCouponRepo) ListActive(ctx context.Context) ([]*model.Coupon, error) {
	var out []*model.Coupon
	for _, c := range r.coupons {
		if c.Active {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCouponRepo) CountUsageByUser(ctx context.Context, couponID, userID uuid.UUID) (int, error) {
	return r.userUsage[couponID], nil
}

func (r *fakeCouponRepo) CountUsageByUserAll(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, error) {
	return r.userUsage, nil
}

func (r *fakeCouponRepo) ApplyUsageWithTx(ctx context.Context, tx pgx.Tx, usage *model.CouponUsage, maxUsesPerUser int) error {
	r.userUsage[usage.CouponID]++
	return nil
}

func (r *fakeCouponRepo) UsageHistoryByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.UsageHistoryItem, int, error) {
	return nil, 0, nil
}

func (r *fakeCouponRepo) Create(ctx context.Context, coupon *model.Coupon) error { return nil }
func (r *fakeCouponRepo) Update(ctx context.Context, coupon *model.Coupon) error { return nil }
func (r *fakeCouponRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return nil
}

type fakeOrderCounter struct {
	count int
}

func (f *fakeOrderCounter) CountNonCancelledByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	return f.count, nil
}

func welcomeCoupon() *model.Coupon {
	return &model.Coupon{
		ID:             uuid.New(),
		Code:           "WELCOME10",
		DiscountType:   model.DiscountTypePercentage,
		Value:          decimal.NewFromInt(10),
		TriggerType:    model.TriggerTypeFirstPurchase,
		MaxUsesPerUser: 1,
		Active:         true,
	}
}

// =====================================================
// EVALUATION
// =====================================================

func TestEvaluateForOrderFirstPurchase(t *testing.T) {
	repo := newFakeCouponRepo(welcomeCoupon())
	counter := &fakeOrderCounter{count: 0}
	svc := NewCouponService(repo, counter, nil)

	coupon, discount, err := svc.EvaluateForOrder(
		context.Background(), uuid.New(), "WELCOME10",
		decimal.RequireFromString("20.00"), time.Now(),
	)
	require.NoError(t, err)
	assert.Equal(t, "WELCOME10", coupon.Code)
	assert.True(t, discount.Equal(decimal.RequireFromString("2.00")), "discount %s", discount)

	// A returning customer cannot use a first-purchase coupon.
	counter.count = 2
	_, _, err = svc.EvaluateForOrder(
		context.Background(), uuid.New(), "WELCOME10",
		decimal.RequireFromString("20.00"), time.Now(),
	)

	var couponErr *model.CouponError
	require.True(t, errors.As(err, &couponErr))
	assert.Equal(t, model.ErrCodeCouponFirstOnly, couponErr.Code)
}

func TestEvaluateForOrderUnknownCode(t *testing.T) {
	svc := NewCouponService(newFakeCouponRepo(), &fakeOrderCounter{}, nil)

	_, _, err := svc.EvaluateForOrder(
		context.Background(), uuid.New(), "NOPE",
		decimal.RequireFromString("20.00"), time.Now(),
	)

	var couponErr *model.CouponError
	require.True(t, errors.As(err, &couponErr))
	assert.Equal(t, model.ErrCodeCouponNotFound, couponErr.Code)
}

func TestEvaluateForOrderUsageLimit(t *testing.T) {
	coupon := welcomeCoupon()
	coupon.TriggerType = model.TriggerTypeManual
	repo := newFakeCouponRepo(coupon)
	repo.userUsage[coupon.ID] = 1
	svc := NewCouponService(repo, &fakeOrderCounter{}, nil)

	_, _, err := svc.EvaluateForOrder(
		context.Background(), uuid.New(), "WELCOME10",
		decimal.RequireFromString("20.00"), time.Now(),
	)

	var couponErr *model.CouponError
	require.True(t, errors.As(err, &couponErr))
	assert.Equal(t, model.ErrCodeCouponExhausted, couponErr.Code)
}

// =====================================================
// VALIDATE (dry run)
// =====================================================

func TestValidateReportsReasonInsteadOfFailing(t *testing.T) {
	coupon := welcomeCoupon()
	coupon.Active = false
	svc := NewCouponService(newFakeCouponRepo(coupon), &fakeOrderCounter{}, nil)

	resp, err := svc.Validate(context.Background(), uuid.New(), model.ValidateCouponRequest{
		Code:     "WELCOME10",
		Subtotal: decimal.RequireFromString("20.00"),
	})
	require.NoError(t, err)

	assert.False(t, resp.Valid)
	require.NotNil(t, resp.Reason)
	assert.NotEmpty(t, *resp.Reason)
	assert.Nil(t, resp.DiscountAmount)
}

func TestValidateSuccess(t *testing.T) {
	svc := NewCouponService(newFakeCouponRepo(welcomeCoupon()), &fakeOrderCounter{}, nil)

	resp, err := svc.Validate(context.Background(), uuid.New(), model.ValidateCouponRequest{
		Code:     "WELCOME10",
		Subtotal: decimal.RequireFromString("20.00"),
	})
	require.NoError(t, err)

	assert.True(t, resp.Valid)
	require.NotNil(t, resp.DiscountAmount)
	assert.True(t, resp.DiscountAmount.Equal(decimal.RequireFromString("2.00")))
}
