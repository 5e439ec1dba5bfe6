package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodorder-backend/internal/config"
	"foodorder-backend/internal/domains/catalog"
	couponModel "foodorder-backend/internal/domains/coupon/model"
	paymentModel "foodorder-backend/internal/domains/payment/model"
	paymentRepo "foodorder-backend/internal/domains/payment/repository"

	"foodorder-backend/internal/domains/order/model"
)

// =====================================================
// FAKES
// =====================================================

type fakeOrderRepo struct {
	mu        sync.Mutex
	orders    map[uuid.UUID]*model.Order
	items     map[uuid.UUID][]model.OrderItem
	histories []model.OrderStatusHistory
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders: map[uuid.UUID]*model.Order{},
		items:  map[uuid.UUID][]model.OrderItem{},
	}
}

func (r *fakeOrderRepo) BeginTx(ctx context.Context) (pgx.Tx, error)     { return nil, nil }
func (r *fakeOrderRepo) CommitTx(ctx context.Context, tx pgx.Tx) error   { return nil }
func (r *fakeOrderRepo) RollbackTx(ctx context.Context, tx pgx.Tx) error { return nil }

func (r *fakeOrderRepo) CreateOrderWithTx(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *order
	cp.CreatedAt = time.Now()
	r.orders[order.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) CreateOrderItemsWithTx(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range items {
		r.items[item.OrderID] = append(r.items[item.OrderID], item)
	}
	return nil
}

func (r *fakeOrderRepo) GetOrderByID(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return nil, model.NewOrderError(model.ErrCodeOrderNotFound, "Order not found", model.ErrOrderNotFound)
	}
	cp := *order
	return &cp, nil
}

func (r *fakeOrderRepo) GetOrderByIDAndUserID(ctx context.Context, orderID, userID uuid.UUID) (*model.Order, error) {
	order, err := r.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, model.NewOrderError(model.ErrCodeOrderNotFound, "Order not found", model.ErrOrderNotFound)
	}
	return order, nil
}

func (r *fakeOrderRepo) GetOrderItemsByOrderID(ctx context.Context, orderID uuid.UUID) ([]model.OrderItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[orderID], nil
}

func (r *fakeOrderRepo) CountOrderItemsByOrderIDs(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[uuid.UUID]int{}
	for _, id := range orderIDs {
		counts[id] = len(r.items[id])
	}
	return counts, nil
}

func (r *fakeOrderRepo) ListOrdersByUserID(ctx context.Context, userID uuid.UUID, status string, page, limit int) ([]model.Order, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Order
	for _, o := range r.orders {
		if o.UserID == userID && (status == "" || o.Status == status) {
			out = append(out, *o)
		}
	}
	return out, len(out), nil
}

func (r *fakeOrderRepo) ListAllOrders(ctx context.Context, status string, page, limit int) ([]model.Order, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Order
	for _, o := range r.orders {
		if status == "" || o.Status == status {
			out = append(out, *o)
		}
	}
	return out, len(out), nil
}

func (r *fakeOrderRepo) CountNonCancelledByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, o := range r.orders {
		if o.UserID == userID && o.Status != model.OrderStatusCancelled {
			n++
		}
	}
	return n, nil
}

func (r *fakeOrderRepo) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status string, version int, adminNote *string, stamps model.StatusTimestamps) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return model.NewOrderError(model.ErrCodeOrderNotFound, "Order not found", model.ErrOrderNotFound)
	}
	if order.Version != version {
		return model.NewOrderError(model.ErrCodeVersionMismatch, "Concurrent modification", model.ErrVersionMismatch)
	}
	order.Status = status
	order.Version++
	if adminNote != nil {
		order.AdminNote = adminNote
	}
	// Stamps backfill, never overwrite, same as the SQL COALESCE.
	if order.ReadyAt == nil {
		order.ReadyAt = stamps.ReadyAt
	}
	if order.PickedUpAt == nil {
		order.PickedUpAt = stamps.PickedUpAt
	}
	if order.DeliveredAt == nil {
		order.DeliveredAt = stamps.DeliveredAt
	}
	return nil
}

func (r *fakeOrderRepo) ConfirmPaidOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok || order.Status != model.OrderStatusPending {
		return false, nil
	}
	order.Status = model.OrderStatusConfirmed
	order.Version++
	return true, nil
}

func (r *fakeOrderRepo) CancelOrder(ctx context.Context, orderID uuid.UUID, reason *string, version int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return model.NewOrderError(model.ErrCodeOrderNotFound, "Order not found", model.ErrOrderNotFound)
	}
	if order.Version != version {
		return model.NewOrderError(model.ErrCodeVersionMismatch, "Concurrent modification", model.ErrVersionMismatch)
	}
	now := time.Now()
	order.Status = model.OrderStatusCancelled
	order.CancelledAt = &now
	order.Version++
	return nil
}

func (r *fakeOrderRepo) ConfirmDelivery(ctx context.Context, orderID, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok || order.UserID != userID || order.Status != model.OrderStatusDelivering {
		return model.NewOrderError(model.ErrCodeInvalidTransition, "Cannot confirm", model.ErrInvalidTransition)
	}
	now := time.Now()
	order.Status = model.OrderStatusDelivered
	order.DeliveredAt = &now
	order.Version++
	return nil
}

func (r *fakeOrderRepo) FindStalePendingIDs(ctx context.Context, olderThan time.Time) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []uuid.UUID
	for id, o := range r.orders {
		if o.Status == model.OrderStatusPending && o.CreatedAt.Before(olderThan) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *fakeOrderRepo) CancelStalePending(ctx context.Context, orderID uuid.UUID, olderThan time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok || order.Status != model.OrderStatusPending || !order.CreatedAt.Before(olderThan) {
		return false, nil
	}
	now := time.Now()
	order.Status = model.OrderStatusCancelled
	order.CancelledAt = &now
	order.Version++
	return true, nil
}

func (r *fakeOrderRepo) CreateOrderStatusHistory(ctx context.Context, history *model.OrderStatusHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.histories = append(r.histories, *history)
	return nil
}

func (r *fakeOrderRepo) CreateOrderStatusHistoryWithTx(ctx context.Context, tx pgx.Tx, history *model.OrderStatusHistory) error {
	return r.CreateOrderStatusHistory(ctx, history)
}

func (r *fakeOrderRepo) GetOrderStatusHistory(ctx context.Context, orderID uuid.UUID) ([]model.OrderStatusHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.OrderStatusHistory
	for _, h := range r.histories {
		if h.OrderID == orderID {
			out = append(out, h)
		}
	}
	return out, nil
}

// fakeCouponService returns a canned evaluation result.
type fakeCouponService struct {
	coupon   *couponModel.Coupon
	discount decimal.Decimal
	err      error
}

func (f *fakeCouponService) EvaluateForOrder(ctx context.Context, userID uuid.UUID, code string, subtotal decimal.Decimal, now time.Time) (*couponModel.Coupon, decimal.Decimal, error) {
	if f.err != nil {
		return nil, decimal.Zero, f.err
	}
	return f.coupon, f.discount, nil
}

func (f *fakeCouponService) Validate(ctx context.Context, userID uuid.UUID, req couponModel.ValidateCouponRequest) (*couponModel.ValidateCouponResponse, error) {
	return nil, nil
}
func (f *fakeCouponService) ListActive(ctx context.Context) ([]couponModel.CouponSummary, error) {
	return nil, nil
}
func (f *fakeCouponService) ListAvailable(ctx context.Context, userID uuid.UUID) ([]couponModel.AvailableCoupon, error) {
	return nil, nil
}
func (f *fakeCouponService) UsageHistory(ctx context.Context, userID uuid.UUID, page, limit int) ([]couponModel.UsageHistoryItem, int, error) {
	return nil, 0, nil
}
func (f *fakeCouponService) CreateCoupon(ctx context.Context, req couponModel.CreateCouponRequest) (*couponModel.Coupon, error) {
	return nil, nil
}
func (f *fakeCouponService) UpdateCoupon(ctx context.Context, id uuid.UUID, req couponModel.UpdateCouponRequest) (*couponModel.Coupon, error) {
	return nil, nil
}
func (f *fakeCouponService) DeactivateCoupon(ctx context.Context, id uuid.UUID) error { return nil }

// fakeCouponRepo records usage applications with the same serialized
// re-check the SQL runs under its row lock.
type fakeCouponRepo struct {
	mu     sync.Mutex
	usages []couponModel.CouponUsage
}

func (f *fakeCouponRepo) ApplyUsageWithTx(ctx context.Context, tx pgx.Tx, usage *couponModel.CouponUsage, maxUsesPerUser int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	uses := 0
	for _, u := range f.usages {
		if u.CouponID == usage.CouponID && u.UserID == usage.UserID {
			uses++
		}
	}
	if uses >= maxUsesPerUser {
		return couponModel.NewCouponError(couponModel.ErrCodeCouponExhausted, "Coupon usage limit reached", couponModel.ErrCouponExhausted)
	}
	f.usages = append(f.usages, *usage)
	return nil
}

func (f *fakeCouponRepo) FindByID(ctx context.Context, id uuid.UUID) (*couponModel.Coupon, error) {
	return nil, couponModel.ErrCouponNotFound
}
func (f *fakeCouponRepo) FindByCode(ctx context.Context, code string) (*couponModel.Coupon, error) {
	return nil, couponModel.ErrCouponNotFound
}
func (f *fakeCouponRepo) ListActive(ctx context.Context) ([]*couponModel.Coupon, error) {
	return nil, nil
}
func (f *fakeCouponRepo) CountUsageByUser(ctx context.Context, couponID, userID uuid.UUID) (int, error) {
	return 0, nil
}
func (f *fakeCouponRepo) CountUsageByUserAll(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, error) {
	return nil, nil
}
func (f *fakeCouponRepo) UsageHistoryByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]couponModel.UsageHistoryItem, int, error) {
	return nil, 0, nil
}
func (f *fakeCouponRepo) Create(ctx context.Context, coupon *couponModel.Coupon) error { return nil }
func (f *fakeCouponRepo) Update(ctx context.Context, coupon *couponModel.Coupon) error { return nil }
func (f *fakeCouponRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return nil
}

// fakePaymentRepo records payment rows created with the order.
type fakePaymentRepo struct {
	mu       sync.Mutex
	payments map[uuid.UUID]*paymentModel.Payment
}

var _ paymentRepo.PaymentRepository = (*fakePaymentRepo)(nil)

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: map[uuid.UUID]*paymentModel.Payment{}}
}

func (f *fakePaymentRepo) CreateWithTx(ctx context.Context, tx pgx.Tx, payment *paymentModel.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *payment
	f.payments[payment.OrderID] = &cp
	return nil
}

func (f *fakePaymentRepo) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*paymentModel.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[orderID]
	if !ok {
		return nil, paymentModel.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePaymentRepo) UpsertCardResult(ctx context.Context, payment *paymentModel.Payment) (bool, error) {
	return true, nil
}

func (f *fakePaymentRepo) ConfirmTransfer(ctx context.Context, orderID uuid.UUID, token uuid.UUID) (bool, error) {
	return false, nil
}

func (f *fakePaymentRepo) SettleCashOnDelivery(ctx context.Context, orderID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[orderID]
	if !ok || p.Method != model.PaymentMethodCash || p.Status != paymentModel.PaymentStatusPending {
		return false, nil
	}
	now := time.Now()
	p.Status = paymentModel.PaymentStatusPaid
	p.ConfirmedAt = &now
	return true, nil
}

func (f *fakePaymentRepo) MarkRefunded(ctx context.Context, orderID uuid.UUID) (*paymentModel.Payment, error) {
	return nil, paymentModel.ErrNotRefundable
}

// fakeCatalog serves products from a map.
type fakeCatalog struct {
	products map[uuid.UUID]*catalog.Product
}

func (f *fakeCatalog) GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return p, nil
}

func (f *fakeCatalog) GetProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*catalog.Product, error) {
	out := map[uuid.UUID]*catalog.Product{}
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

// =====================================================
// FIXTURE
// =====================================================

type orderServiceFixture struct {
	service     OrderService
	orderRepo   *fakeOrderRepo
	couponSvc   *fakeCouponService
	couponRepo  *fakeCouponRepo
	paymentRepo *fakePaymentRepo
	productID   uuid.UUID
}

func newOrderServiceFixture(t *testing.T) *orderServiceFixture {
	t.Helper()

	productID := uuid.New()
	cat := &fakeCatalog{products: map[uuid.UUID]*catalog.Product{
		productID: {
			ID:        productID,
			Name:      "Margherita Pizza",
			Price:     decimal.RequireFromString("10.00"),
			Available: true,
		},
	}}

	f := &orderServiceFixture{
		orderRepo:   newFakeOrderRepo(),
		couponSvc:   &fakeCouponService{},
		couponRepo:  &fakeCouponRepo{},
		paymentRepo: newFakePaymentRepo(),
		productID:   productID,
	}

	f.service = NewOrderService(
		f.orderRepo,
		f.couponSvc,
		f.couponRepo,
		f.paymentRepo,
		cat,
		nil, // no queue in tests
		config.OrderConfig{
			DeliveryFee:    "2.50",
			TaxRate:        "0.12",
			ConfirmBaseURL: "https://example.test/payments/confirm",
		},
	)

	return f
}

func validCreateRequest(productID uuid.UUID, paymentMethod string) model.CreateOrderRequest {
	return model.CreateOrderRequest{
		Items: []model.CreateOrderItem{
			{ProductID: productID, Quantity: 2},
		},
		Address: model.OrderAddressInput{
			Street:     "12 Main Street",
			City:       "Springfield",
			PostalCode: "10001",
		},
		PaymentMethod: paymentMethod,
	}
}

// =====================================================
// CREATE ORDER
// =====================================================

func TestCreateOrderComputesTotals(t *testing.T) {
	f := newOrderServiceFixture(t)

	resp, err := f.service.CreateOrder(context.Background(), uuid.New(), validCreateRequest(f.productID, model.PaymentMethodCash))
	require.NoError(t, err)

	assert.Equal(t, model.OrderStatusPending, resp.Status)
	assert.True(t, resp.Subtotal.Equal(decimal.RequireFromString("20.00")), "subtotal %s", resp.Subtotal)
	assert.True(t, resp.DiscountAmount.Equal(decimal.Zero))
	assert.True(t, resp.DeliveryFee.Equal(decimal.RequireFromString("2.50")))
	assert.True(t, resp.Tax.Equal(decimal.RequireFromString("2.40")), "tax %s", resp.Tax)
	assert.True(t, resp.Total.Equal(decimal.RequireFromString("24.90")), "total %s", resp.Total)
	assert.Nil(t, resp.ConfirmationURL)

	// Cash orders get a pending payment row for reconciliation on delivery.
	pay, err := f.paymentRepo.GetByOrderID(context.Background(), resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, paymentModel.PaymentStatusPending, pay.Status)
	assert.True(t, pay.Amount.Equal(resp.Total))
}

func TestCreateOrderWithCoupon(t *testing.T) {
	f := newOrderServiceFixture(t)
	userID := uuid.New()

	couponID := uuid.New()
	f.couponSvc.coupon = &couponModel.Coupon{ID: couponID, Code: "WELCOME10", MaxUsesPerUser: 1}
	f.couponSvc.discount = decimal.RequireFromString("2.00")

	req := validCreateRequest(f.productID, model.PaymentMethodCash)
	code := "WELCOME10"
	req.CouponCode = &code

	resp, err := f.service.CreateOrder(context.Background(), userID, req)
	require.NoError(t, err)

	// 20.00 - 2.00 discount, 12% tax on 18.00, flat 2.50 fee.
	assert.True(t, resp.DiscountAmount.Equal(decimal.RequireFromString("2.00")))
	assert.True(t, resp.Tax.Equal(decimal.RequireFromString("2.16")), "tax %s", resp.Tax)
	assert.True(t, resp.Total.Equal(decimal.RequireFromString("22.66")), "total %s", resp.Total)

	// Usage committed with the order.
	require.Len(t, f.couponRepo.usages, 1)
	assert.Equal(t, couponID, f.couponRepo.usages[0].CouponID)
	assert.Equal(t, resp.OrderID, f.couponRepo.usages[0].OrderID)
	assert.True(t, f.couponRepo.usages[0].DiscountAmount.Equal(decimal.RequireFromString("2.00")))
}

func TestCreateOrderCouponRejectionAborts(t *testing.T) {
	f := newOrderServiceFixture(t)
	f.couponSvc.err = couponModel.NewCouponError(couponModel.ErrCodeCouponExpired, "Coupon has expired", couponModel.ErrCouponExpired)

	req := validCreateRequest(f.productID, model.PaymentMethodCash)
	code := "EXPIRED"
	req.CouponCode = &code

	_, err := f.service.CreateOrder(context.Background(), uuid.New(), req)

	var couponErr *couponModel.CouponError
	require.True(t, errors.As(err, &couponErr))
	assert.Equal(t, couponModel.ErrCodeCouponExpired, couponErr.Code)
	assert.Empty(t, f.orderRepo.orders)
}

func TestCreateOrderTransferReturnsConfirmationURL(t *testing.T) {
	f := newOrderServiceFixture(t)

	resp, err := f.service.CreateOrder(context.Background(), uuid.New(), validCreateRequest(f.productID, model.PaymentMethodTransfer))
	require.NoError(t, err)

	require.NotNil(t, resp.ConfirmationURL)
	assert.Contains(t, *resp.ConfirmationURL, "order_id="+resp.OrderID.String())
	assert.Contains(t, *resp.ConfirmationURL, "token=")

	pay, err := f.paymentRepo.GetByOrderID(context.Background(), resp.OrderID)
	require.NoError(t, err)
	require.NotNil(t, pay.ConfirmationToken)
	assert.Contains(t, *resp.ConfirmationURL, pay.ConfirmationToken.String())
}

func TestCreateOrderRejectsEmptyCart(t *testing.T) {
	f := newOrderServiceFixture(t)

	req := validCreateRequest(f.productID, model.PaymentMethodCash)
	req.Items = nil

	_, err := f.service.CreateOrder(context.Background(), uuid.New(), req)

	var orderErr *model.OrderError
	require.True(t, errors.As(err, &orderErr))
}

func TestCreateOrderRejectsUnknownProduct(t *testing.T) {
	f := newOrderServiceFixture(t)

	req := validCreateRequest(uuid.New(), model.PaymentMethodCash)

	_, err := f.service.CreateOrder(context.Background(), uuid.New(), req)

	var orderErr *model.OrderError
	require.True(t, errors.As(err, &orderErr))
	assert.Equal(t, model.ErrCodeProductUnavailable, orderErr.Code)
}

func TestCreateOrderRejectsBadPaymentMethod(t *testing.T) {
	f := newOrderServiceFixture(t)

	req := validCreateRequest(f.productID, "paypal")

	_, err := f.service.CreateOrder(context.Background(), uuid.New(), req)

	var orderErr *model.OrderError
	require.True(t, errors.As(err, &orderErr))
	assert.Equal(t, model.ErrCodeInvalidOrder, orderErr.Code)
}

func TestCreateOrderCouponDoubleApplyRace(t *testing.T) {
	// Two checkouts with a one-use coupon racing each other: the usage
	// re-check inside the transaction lets exactly one commit a usage row.
	f := newOrderServiceFixture(t)
	userID := uuid.New()

	couponID := uuid.New()
	f.couponSvc.coupon = &couponModel.Coupon{ID: couponID, Code: "WELCOME10", MaxUsesPerUser: 1}
	f.couponSvc.discount = decimal.RequireFromString("2.00")

	const checkouts = 10
	var wg sync.WaitGroup
	var winners, exhausted int64
	var tallyMu sync.Mutex

	for i := 0; i < checkouts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := validCreateRequest(f.productID, model.PaymentMethodCash)
			code := "WELCOME10"
			req.CouponCode = &code

			_, err := f.service.CreateOrder(context.Background(), userID, req)

			tallyMu.Lock()
			defer tallyMu.Unlock()
			if err == nil {
				winners++
				return
			}

			var couponErr *couponModel.CouponError
			if errors.As(err, &couponErr) && couponErr.Code == couponModel.ErrCodeCouponExhausted {
				exhausted++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), winners, "exactly one checkout may apply the coupon")
	assert.Equal(t, int64(checkouts-1), exhausted, "every loser must see the exhausted rejection")
	assert.Len(t, f.couponRepo.usages, 1)
}

// =====================================================
// CANCEL ORDER
// =====================================================

func TestCancelOrderOnlyFromEarlyStatuses(t *testing.T) {
	tests := []struct {
		status  string
		wantErr bool
	}{
		{model.OrderStatusPending, false},
		{model.OrderStatusConfirmed, false},
		{model.OrderStatusPreparing, true},
		{model.OrderStatusReady, true},
		{model.OrderStatusDelivering, true},
		{model.OrderStatusDelivered, true},
		{model.OrderStatusCancelled, true},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			f := newOrderServiceFixture(t)
			userID := uuid.New()
			orderID := uuid.New()
			f.orderRepo.orders[orderID] = &model.Order{ID: orderID, UserID: userID, Status: tt.status}

			err := f.service.CancelOrder(context.Background(), orderID, userID, model.CancelOrderRequest{})

			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, model.OrderStatusCancelled, f.orderRepo.orders[orderID].Status)
				return
			}

			var orderErr *model.OrderError
			require.True(t, errors.As(err, &orderErr))
			assert.Equal(t, model.ErrCodeOrderCannotCancel, orderErr.Code)
		})
	}
}

func TestCancelOrderOwnershipEnforced(t *testing.T) {
	f := newOrderServiceFixture(t)
	orderID := uuid.New()
	f.orderRepo.orders[orderID] = &model.Order{ID: orderID, UserID: uuid.New(), Status: model.OrderStatusPending}

	err := f.service.CancelOrder(context.Background(), orderID, uuid.New(), model.CancelOrderRequest{})

	var orderErr *model.OrderError
	require.True(t, errors.As(err, &orderErr))
	assert.Equal(t, model.ErrCodeOrderNotFound, orderErr.Code)
}

// =====================================================
// UPDATE ORDER STATUS (Admin)
// =====================================================

func TestUpdateOrderStatusHappyPath(t *testing.T) {
	f := newOrderServiceFixture(t)
	orderID := uuid.New()
	f.orderRepo.orders[orderID] = &model.Order{ID: orderID, UserID: uuid.New(), Status: model.OrderStatusPending}

	for _, next := range []string{
		model.OrderStatusConfirmed,
		model.OrderStatusPreparing,
		model.OrderStatusReady,
	} {
		err := f.service.UpdateOrderStatus(context.Background(), orderID, uuid.New(), model.UpdateOrderStatusRequest{Status: next})
		require.NoError(t, err, next)
		assert.Equal(t, next, f.orderRepo.orders[orderID].Status)
	}

	// ready stamps the timestamp the courier queue sorts by
	assert.NotNil(t, f.orderRepo.orders[orderID].ReadyAt)
}

func TestUpdateOrderStatusAllowsForwardJumps(t *testing.T) {
	// The kitchen may skip stages: pending straight to preparing, and a
	// jump landing on ready still stamps ready_at for the courier queue.
	f := newOrderServiceFixture(t)
	orderID := uuid.New()
	f.orderRepo.orders[orderID] = &model.Order{ID: orderID, UserID: uuid.New(), Status: model.OrderStatusPending}

	err := f.service.UpdateOrderStatus(context.Background(), orderID, uuid.New(), model.UpdateOrderStatusRequest{Status: model.OrderStatusPreparing})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPreparing, f.orderRepo.orders[orderID].Status)

	err = f.service.UpdateOrderStatus(context.Background(), orderID, uuid.New(), model.UpdateOrderStatusRequest{Status: model.OrderStatusReady})
	require.NoError(t, err)
	assert.NotNil(t, f.orderRepo.orders[orderID].ReadyAt)
}

func TestUpdateOrderStatusRejectsBackwardMoves(t *testing.T) {
	f := newOrderServiceFixture(t)
	orderID := uuid.New()
	f.orderRepo.orders[orderID] = &model.Order{ID: orderID, UserID: uuid.New(), Status: model.OrderStatusReady}

	err := f.service.UpdateOrderStatus(context.Background(), orderID, uuid.New(), model.UpdateOrderStatusRequest{Status: model.OrderStatusPreparing})

	var orderErr *model.OrderError
	require.True(t, errors.As(err, &orderErr))
	assert.Equal(t, model.ErrCodeInvalidTransition, orderErr.Code)
	assert.Equal(t, model.OrderStatusReady, f.orderRepo.orders[orderID].Status)
}

func TestUpdateOrderStatusOverrideKeepsDeliveryColumnsConsistent(t *testing.T) {
	// Courier claims, admin overrides to delivering, customer confirms at
	// the door: the derived delivery variant must survive the whole path.
	f := newOrderServiceFixture(t)
	userID := uuid.New()
	orderID := uuid.New()
	courier := uuid.New()
	now := time.Now()
	f.orderRepo.orders[orderID] = &model.Order{
		ID:               orderID,
		UserID:           userID,
		Status:           model.OrderStatusReady,
		ReadyAt:          &now,
		DeliveryPersonID: &courier,
		AcceptedAt:       &now,
	}

	err := f.service.UpdateOrderStatus(context.Background(), orderID, uuid.New(), model.UpdateOrderStatusRequest{Status: model.OrderStatusDelivering})
	require.NoError(t, err)
	assert.NotNil(t, f.orderRepo.orders[orderID].PickedUpAt)

	require.NoError(t, f.service.ConfirmDelivery(context.Background(), orderID, userID))

	state, err := f.orderRepo.orders[orderID].DeliveryState()
	require.NoError(t, err)
	assert.Equal(t, model.DeliveryDelivered, state.Kind)
}

func TestUpdateOrderStatusDeliveringNeedsCourier(t *testing.T) {
	f := newOrderServiceFixture(t)
	orderID := uuid.New()
	f.orderRepo.orders[orderID] = &model.Order{ID: orderID, UserID: uuid.New(), Status: model.OrderStatusReady}

	err := f.service.UpdateOrderStatus(context.Background(), orderID, uuid.New(), model.UpdateOrderStatusRequest{Status: model.OrderStatusDelivering})

	var orderErr *model.OrderError
	require.True(t, errors.As(err, &orderErr))
	assert.Equal(t, model.ErrCodeCourierRequired, orderErr.Code)

	// With a courier attached the same transition goes through.
	courier := uuid.New()
	now := time.Now()
	f.orderRepo.orders[orderID].DeliveryPersonID = &courier
	f.orderRepo.orders[orderID].AcceptedAt = &now

	err = f.service.UpdateOrderStatus(context.Background(), orderID, uuid.New(), model.UpdateOrderStatusRequest{Status: model.OrderStatusDelivering})
	require.NoError(t, err)
}

// =====================================================
// CONFIRM DELIVERY (Customer)
// =====================================================

func TestConfirmDelivery(t *testing.T) {
	f := newOrderServiceFixture(t)
	userID := uuid.New()
	orderID := uuid.New()
	f.orderRepo.orders[orderID] = &model.Order{ID: orderID, UserID: userID, Status: model.OrderStatusDelivering}

	require.NoError(t, f.service.ConfirmDelivery(context.Background(), orderID, userID))
	assert.Equal(t, model.OrderStatusDelivered, f.orderRepo.orders[orderID].Status)

	// Not delivering yet: rejected with a conflict, not a silent success.
	otherID := uuid.New()
	f.orderRepo.orders[otherID] = &model.Order{ID: otherID, UserID: userID, Status: model.OrderStatusReady}

	err := f.service.ConfirmDelivery(context.Background(), otherID, userID)
	var orderErr *model.OrderError
	require.True(t, errors.As(err, &orderErr))
	assert.Equal(t, model.ErrCodeInvalidTransition, orderErr.Code)
}

func TestConfirmDeliverySettlesCashPayment(t *testing.T) {
	f := newOrderServiceFixture(t)
	userID := uuid.New()

	resp, err := f.service.CreateOrder(context.Background(), userID, validCreateRequest(f.productID, model.PaymentMethodCash))
	require.NoError(t, err)

	courier := uuid.New()
	now := time.Now()
	order := f.orderRepo.orders[resp.OrderID]
	order.Status = model.OrderStatusDelivering
	order.DeliveryPersonID = &courier
	order.AcceptedAt = &now
	order.PickedUpAt = &now

	require.NoError(t, f.service.ConfirmDelivery(context.Background(), resp.OrderID, userID))

	// Cash changed hands at the door, so the marker row is now settled.
	pay, err := f.paymentRepo.GetByOrderID(context.Background(), resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, paymentModel.PaymentStatusPaid, pay.Status)
	assert.NotNil(t, pay.ConfirmedAt)
}

// =====================================================
// STALE ORDER SWEEP
// =====================================================

func TestCancelStaleOrders(t *testing.T) {
	f := newOrderServiceFixture(t)

	stale := uuid.New()
	fresh := uuid.New()
	confirmed := uuid.New()
	f.orderRepo.orders[stale] = &model.Order{ID: stale, Status: model.OrderStatusPending, CreatedAt: time.Now().Add(-2 * time.Hour)}
	f.orderRepo.orders[fresh] = &model.Order{ID: fresh, Status: model.OrderStatusPending, CreatedAt: time.Now().Add(-5 * time.Minute)}
	f.orderRepo.orders[confirmed] = &model.Order{ID: confirmed, Status: model.OrderStatusConfirmed, CreatedAt: time.Now().Add(-2 * time.Hour)}

	cancelled, err := f.service.CancelStaleOrders(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, cancelled)

	assert.Equal(t, model.OrderStatusCancelled, f.orderRepo.orders[stale].Status)
	assert.Equal(t, model.OrderStatusPending, f.orderRepo.orders[fresh].Status)
	assert.Equal(t, model.OrderStatusConfirmed, f.orderRepo.orders[confirmed].Status)

	// Sweeping again finds nothing.
	cancelled, err = f.service.CancelStaleOrders(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, cancelled)
}
