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

	orderModel "foodorder-backend/internal/domains/order/model"
	orderRepo "foodorder-backend/internal/domains/order/repository"
	"foodorder-backend/internal/domains/payment/gateway"
	"foodorder-backend/internal/domains/payment/model"
)

// =====================================================
// FAKES
// =====================================================

// fakePaymentRepo keeps one payment row per order, with the same
// conditional semantics the SQL enforces.
type fakePaymentRepo struct {
	mu       sync.Mutex
	payments map[uuid.UUID]*model.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: map[uuid.UUID]*model.Payment{}}
}

func (r *fakePaymentRepo) CreateWithTx(ctx context.Context, tx pgx.Tx, payment *model.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *payment
	r.payments[payment.OrderID] = &cp
	return nil
}

func (r *fakePaymentRepo) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[orderID]
	if !ok {
		return nil, model.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePaymentRepo) UpsertCardResult(ctx context.Context, payment *model.Payment) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.payments[payment.OrderID]; ok && existing.Status == model.PaymentStatusPaid {
		return false, nil
	}
	cp := *payment
	r.payments[payment.OrderID] = &cp
	return true, nil
}

func (r *fakePaymentRepo) ConfirmTransfer(ctx context.Context, orderID uuid.UUID, token uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[orderID]
	if !ok || p.ConfirmationToken == nil || *p.ConfirmationToken != token || p.ConfirmedAt != nil {
		return false, nil
	}
	now := time.Now()
	p.Status = model.PaymentStatusPaid
	p.ConfirmedAt = &now
	return true, nil
}

func (r *fakePaymentRepo) SettleCashOnDelivery(ctx context.Context, orderID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[orderID]
	if !ok || p.Method != orderModel.PaymentMethodCash || p.Status != model.PaymentStatusPending {
		return false, nil
	}
	now := time.Now()
	p.Status = model.PaymentStatusPaid
	p.ConfirmedAt = &now
	return true, nil
}

func (r *fakePaymentRepo) MarkRefunded(ctx context.Context, orderID uuid.UUID) (*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[orderID]
	if !ok || p.Status != model.PaymentStatusPaid {
		return nil, model.ErrNotRefundable
	}
	now := time.Now()
	p.Status = model.PaymentStatusRefunded
	p.RefundedAt = &now
	cp := *p
	return &cp, nil
}

// stubOrderRepo serves a single order and tracks payment-triggered status
// changes; everything else panics if touched.
type stubOrderRepo struct {
	orderRepo.OrderRepository
	mu        sync.Mutex
	order     *orderModel.Order
	histories []orderModel.OrderStatusHistory
}

func (s *stubOrderRepo) GetOrderByIDAndUserID(ctx context.Context, orderID, userID uuid.UUID) (*orderModel.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.order == nil || s.order.ID != orderID || s.order.UserID != userID {
		return nil, orderModel.NewOrderError(orderModel.ErrCodeOrderNotFound, "Order not found", orderModel.ErrOrderNotFound)
	}
	cp := *s.order
	return &cp, nil
}

func (s *stubOrderRepo) ConfirmPaidOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.order == nil || s.order.ID != orderID || s.order.Status != orderModel.OrderStatusPending {
		return false, nil
	}
	s.order.Status = orderModel.OrderStatusConfirmed
	return true, nil
}

func (s *stubOrderRepo) CreateOrderStatusHistory(ctx context.Context, history *orderModel.OrderStatusHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.histories = append(s.histories, *history)
	return nil
}

// scriptedGateway approves or declines without randomness.
type scriptedGateway struct {
	approve bool
	reason  string
}

func (g *scriptedGateway) Authorize(ctx context.Context, req gateway.AuthorizeRequest) (*gateway.AuthorizeResult, error) {
	if !g.approve {
		return &gateway.AuthorizeResult{Approved: false, DeclineReason: g.reason}, nil
	}
	return &gateway.AuthorizeResult{Approved: true, TransactionRef: "TXN-TEST-0001"}, nil
}

func cardOrder(userID uuid.UUID) *orderModel.Order {
	return &orderModel.Order{
		ID:            uuid.New(),
		UserID:        userID,
		Status:        orderModel.OrderStatusPending,
		PaymentMethod: orderModel.PaymentMethodCard,
		Total:         decimal.RequireFromString("24.90"),
	}
}

// =====================================================
// CARD PAYMENT
// =====================================================

func TestSubmitCardPaymentCaptures(t *testing.T) {
	userID := uuid.New()
	order := cardOrder(userID)
	payments := newFakePaymentRepo()
	orders := &stubOrderRepo{order: order}
	svc := NewPaymentService(payments, orders, &scriptedGateway{approve: true})

	resp, err := svc.SubmitCardPayment(context.Background(), userID, model.SubmitCardPaymentRequest{
		OrderID:   order.ID,
		CardToken: "tok_test_4242",
	})
	require.NoError(t, err)

	assert.Equal(t, model.PaymentStatusPaid, resp.Status)
	assert.True(t, resp.Amount.Equal(order.Total))
	require.NotNil(t, resp.TransactionRef)
	assert.Equal(t, "TXN-TEST-0001", *resp.TransactionRef)
	assert.NotNil(t, resp.PaidAt)

	// The capture pulls the order out of pending, with an audit entry.
	assert.Equal(t, orderModel.OrderStatusConfirmed, orders.order.Status)
	require.Len(t, orders.histories, 1)
	assert.Equal(t, orderModel.OrderStatusConfirmed, orders.histories[0].ToStatus)
}

func TestSubmitCardPaymentDeclinedIsRetryable(t *testing.T) {
	userID := uuid.New()
	order := cardOrder(userID)
	payments := newFakePaymentRepo()
	declining := &scriptedGateway{reason: "insufficient funds"}
	svc := NewPaymentService(payments, &stubOrderRepo{order: order}, declining)

	req := model.SubmitCardPaymentRequest{OrderID: order.ID, CardToken: "tok_declined"}

	_, err := svc.SubmitCardPayment(context.Background(), userID, req)
	var payErr *model.PaymentError
	require.True(t, errors.As(err, &payErr))
	assert.Equal(t, model.ErrCodePaymentDeclined, payErr.Code)

	// The failed attempt was recorded but the order stays payable.
	stored, err := payments.GetByOrderID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusFailed, stored.Status)

	// A retry with a working card succeeds.
	declining.approve = true
	resp, err := svc.SubmitCardPayment(context.Background(), userID, req)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, resp.Status)
}

func TestSubmitCardPaymentSecondCaptureRejected(t *testing.T) {
	userID := uuid.New()
	order := cardOrder(userID)
	payments := newFakePaymentRepo()
	svc := NewPaymentService(payments, &stubOrderRepo{order: order}, &scriptedGateway{approve: true})

	req := model.SubmitCardPaymentRequest{OrderID: order.ID, CardToken: "tok_test_4242"}

	_, err := svc.SubmitCardPayment(context.Background(), userID, req)
	require.NoError(t, err)

	_, err = svc.SubmitCardPayment(context.Background(), userID, req)
	var payErr *model.PaymentError
	require.True(t, errors.As(err, &payErr))
	assert.Equal(t, model.ErrCodeAlreadyPaid, payErr.Code)
}

func TestSubmitCardPaymentWrongMethod(t *testing.T) {
	userID := uuid.New()
	order := cardOrder(userID)
	order.PaymentMethod = orderModel.PaymentMethodCash
	svc := NewPaymentService(newFakePaymentRepo(), &stubOrderRepo{order: order}, &scriptedGateway{approve: true})

	_, err := svc.SubmitCardPayment(context.Background(), userID, model.SubmitCardPaymentRequest{
		OrderID:   order.ID,
		CardToken: "tok_test_4242",
	})

	var payErr *model.PaymentError
	require.True(t, errors.As(err, &payErr))
	assert.Equal(t, model.ErrCodeWrongPaymentMethod, payErr.Code)
}

func TestSubmitCardPaymentForeignOrder(t *testing.T) {
	order := cardOrder(uuid.New())
	svc := NewPaymentService(newFakePaymentRepo(), &stubOrderRepo{order: order}, &scriptedGateway{approve: true})

	_, err := svc.SubmitCardPayment(context.Background(), uuid.New(), model.SubmitCardPaymentRequest{
		OrderID:   order.ID,
		CardToken: "tok_test_4242",
	})

	var orderErr *orderModel.OrderError
	require.True(t, errors.As(err, &orderErr))
	assert.Equal(t, orderModel.ErrCodeOrderNotFound, orderErr.Code)
}

// =====================================================
// TRANSFER CONFIRMATION
// =====================================================

func transferPayment(t *testing.T, payments *fakePaymentRepo) (uuid.UUID, uuid.UUID) {
	t.Helper()
	orderID := uuid.New()
	token := uuid.New()
	err := payments.CreateWithTx(context.Background(), nil, &model.Payment{
		ID:                uuid.New(),
		OrderID:           orderID,
		Method:            orderModel.PaymentMethodTransfer,
		Amount:            decimal.RequireFromString("22.66"),
		ConfirmationToken: &token,
		Status:            model.PaymentStatusPending,
	})
	require.NoError(t, err)
	return orderID, token
}

func TestConfirmTransferIsIdempotent(t *testing.T) {
	payments := newFakePaymentRepo()
	svc := NewPaymentService(payments, &stubOrderRepo{}, &scriptedGateway{})
	orderID, token := transferPayment(t, payments)

	req := model.ConfirmTransferRequest{OrderID: orderID, Token: token}

	first, err := svc.ConfirmTransfer(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, first.Status)
	assert.False(t, first.AlreadyPaid)
	require.NotNil(t, first.ConfirmedAt)

	// The same link clicked twice: still success, flagged as a repeat,
	// and the original confirmation time is preserved.
	second, err := svc.ConfirmTransfer(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, second.Status)
	assert.True(t, second.AlreadyPaid)
	require.NotNil(t, second.ConfirmedAt)
	assert.True(t, second.ConfirmedAt.Equal(*first.ConfirmedAt))
}

func TestConfirmTransferConfirmsPendingOrder(t *testing.T) {
	payments := newFakePaymentRepo()
	orderID, token := transferPayment(t, payments)
	orders := &stubOrderRepo{order: &orderModel.Order{
		ID:            orderID,
		UserID:        uuid.New(),
		Status:        orderModel.OrderStatusPending,
		PaymentMethod: orderModel.PaymentMethodTransfer,
	}}
	svc := NewPaymentService(payments, orders, &scriptedGateway{})

	req := model.ConfirmTransferRequest{OrderID: orderID, Token: token}

	_, err := svc.ConfirmTransfer(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, orderModel.OrderStatusConfirmed, orders.order.Status)
	require.Len(t, orders.histories, 1)

	// A repeat click cannot confirm twice or double up the audit trail.
	_, err = svc.ConfirmTransfer(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, orderModel.OrderStatusConfirmed, orders.order.Status)
	assert.Len(t, orders.histories, 1)
}

func TestConfirmTransferWrongToken(t *testing.T) {
	payments := newFakePaymentRepo()
	svc := NewPaymentService(payments, &stubOrderRepo{}, &scriptedGateway{})
	orderID, _ := transferPayment(t, payments)

	_, err := svc.ConfirmTransfer(context.Background(), model.ConfirmTransferRequest{
		OrderID: orderID,
		Token:   uuid.New(),
	})

	var payErr *model.PaymentError
	require.True(t, errors.As(err, &payErr))
	assert.Equal(t, model.ErrCodeInvalidConfirmToken, payErr.Code)
}

// =====================================================
// REFUND
// =====================================================

func TestRefund(t *testing.T) {
	payments := newFakePaymentRepo()
	svc := NewPaymentService(payments, &stubOrderRepo{}, &scriptedGateway{})
	orderID, token := transferPayment(t, payments)

	// Not paid yet: nothing to refund.
	_, err := svc.Refund(context.Background(), orderID)
	var payErr *model.PaymentError
	require.True(t, errors.As(err, &payErr))
	assert.Equal(t, model.ErrCodeNotRefundable, payErr.Code)

	_, err = svc.ConfirmTransfer(context.Background(), model.ConfirmTransferRequest{OrderID: orderID, Token: token})
	require.NoError(t, err)

	resp, err := svc.Refund(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusRefunded, resp.Status)
	assert.NotNil(t, resp.RefundedAt)
}
