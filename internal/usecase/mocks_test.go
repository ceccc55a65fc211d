package usecase_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"app/internal/domain/model"
	"app/internal/gateway"
	repo "app/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// TxManager / TxRepos mocks
// =====================

// TxManagerMock は WithinTx の中で渡す repos を固定して unit テストを回す
type TxManagerMock struct {
	mock.Mock
	Repos repo.TxRepos
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	// 呼ばれた事実だけ記録（ctxの具体値は問わない）
	m.Called(ctx)
	return fn(m.Repos)
}

type TxReposMock struct {
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	cartItems  repo.CartItemRepository
	products   repo.ProductRepository
	coupons    repo.CouponRepository
	addresses  repo.AddressRepository
	carriers   repo.CarrierRepository
}

func (r *TxReposMock) Orders() repo.OrderRepository         { return r.orders }
func (r *TxReposMock) OrderItems() repo.OrderItemRepository { return r.orderItems }
func (r *TxReposMock) CartItems() repo.CartItemRepository   { return r.cartItems }
func (r *TxReposMock) Products() repo.ProductRepository     { return r.products }
func (r *TxReposMock) Coupons() repo.CouponRepository       { return r.coupons }
func (r *TxReposMock) Addresses() repo.AddressRepository    { return r.addresses }
func (r *TxReposMock) Carriers() repo.CarrierRepository     { return r.carriers }

// =====================
// Repository mocks
// =====================

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	args := m.Called(ctx, userID, page, limit)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *OrderRepoMock) Create(ctx context.Context, order model.Order) (int64, error) {
	args := m.Called(ctx, order)
	return args.Get(0).(int64), args.Error(1)
}

func (m *OrderRepoMock) FindBySessionID(ctx context.Context, sessionID string) (model.Order, error) {
	args := m.Called(ctx, sessionID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) SetSessionID(ctx context.Context, orderID int64, sessionID string) error {
	args := m.Called(ctx, orderID, sessionID)
	return args.Error(0)
}

func (m *OrderRepoMock) MarkPaidIfPending(ctx context.Context, orderID int64, paymentIntentID string) (bool, error) {
	args := m.Called(ctx, orderID, paymentIntentID)
	return args.Bool(0), args.Error(1)
}

func (m *OrderRepoMock) CancelIfActive(ctx context.Context, orderID int64, fromPayment model.PaymentStatus, refunded bool) (bool, error) {
	args := m.Called(ctx, orderID, fromPayment, refunded)
	return args.Bool(0), args.Error(1)
}

func (m *OrderRepoMock) MarkRefundedIfCancelled(ctx context.Context, orderID int64, paymentIntentID string) (bool, error) {
	args := m.Called(ctx, orderID, paymentIntentID)
	return args.Bool(0), args.Error(1)
}

func (m *OrderRepoMock) MarkShippedIf(ctx context.Context, orderID int64, trackingNumber string, trackingURL string) (bool, error) {
	args := m.Called(ctx, orderID, trackingNumber, trackingURL)
	return args.Bool(0), args.Error(1)
}

func (m *OrderRepoMock) UpdateStatusIf(ctx context.Context, orderID int64, from []model.OrderStatus, to model.OrderStatus) (bool, error) {
	args := m.Called(ctx, orderID, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *OrderRepoMock) CancelStalePending(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func (m *OrderRepoMock) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	args := m.Called(ctx, f)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

type OrderItemRepoMock struct{ mock.Mock }

func (m *OrderItemRepoMock) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

func (m *OrderItemRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderItem)
	return items, args.Error(1)
}

func (m *OrderItemRepoMock) MarkPaidByOrderID(ctx context.Context, orderID int64) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

type CartItemRepoMock struct{ mock.Mock }

func (m *CartItemRepoMock) ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error) {
	args := m.Called(ctx, userID)
	items, _ := args.Get(0).([]model.CartItem)
	return items, args.Error(1)
}

func (m *CartItemRepoMock) FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error) {
	args := m.Called(ctx, cartItemID)
	item, _ := args.Get(0).(model.CartItem)
	return item, args.Error(1)
}

func (m *CartItemRepoMock) UpsertByUserAndProduct(ctx context.Context, userID int64, productID int64, addQty int64) error {
	args := m.Called(ctx, userID, productID, addQty)
	return args.Error(0)
}

func (m *CartItemRepoMock) UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error {
	args := m.Called(ctx, cartItemID, qty)
	return args.Error(0)
}

func (m *CartItemRepoMock) DeleteByID(ctx context.Context, cartItemID int64) error {
	args := m.Called(ctx, cartItemID)
	return args.Error(0)
}

func (m *CartItemRepoMock) DeleteByUserID(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	args := m.Called(ctx, q)
	products, _ := args.Get(0).([]model.Product)
	return products, args.Get(1).(int64), args.Error(2)
}

func (m *ProductRepoMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

type CouponRepoMock struct{ mock.Mock }

func (m *CouponRepoMock) FindByCode(ctx context.Context, code string) (model.Coupon, error) {
	args := m.Called(ctx, code)
	c, _ := args.Get(0).(model.Coupon)
	return c, args.Error(1)
}

func (m *CouponRepoMock) FindByID(ctx context.Context, couponID int64) (model.Coupon, error) {
	args := m.Called(ctx, couponID)
	c, _ := args.Get(0).(model.Coupon)
	return c, args.Error(1)
}

func (m *CouponRepoMock) ListActive(ctx context.Context, now time.Time) ([]model.Coupon, error) {
	args := m.Called(ctx, now)
	coupons, _ := args.Get(0).([]model.Coupon)
	return coupons, args.Error(1)
}

func (m *CouponRepoMock) Create(ctx context.Context, c model.Coupon) (int64, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(int64), args.Error(1)
}

type AddressRepoMock struct{ mock.Mock }

func (m *AddressRepoMock) Create(ctx context.Context, address model.Address) (model.Address, error) {
	args := m.Called(ctx, address)
	a, _ := args.Get(0).(model.Address)
	return a, args.Error(1)
}

func (m *AddressRepoMock) ListByUserID(ctx context.Context, userID int64) ([]model.Address, error) {
	args := m.Called(ctx, userID)
	list, _ := args.Get(0).([]model.Address)
	return list, args.Error(1)
}

func (m *AddressRepoMock) FindByID(ctx context.Context, addressID int64) (model.Address, error) {
	args := m.Called(ctx, addressID)
	a, _ := args.Get(0).(model.Address)
	return a, args.Error(1)
}

func (m *AddressRepoMock) Update(ctx context.Context, address model.Address) error {
	args := m.Called(ctx, address)
	return args.Error(0)
}

func (m *AddressRepoMock) Delete(ctx context.Context, addressID int64) error {
	args := m.Called(ctx, addressID)
	return args.Error(0)
}

func (m *AddressRepoMock) IsOwnedByUser(ctx context.Context, addressID, userID int64) (bool, error) {
	args := m.Called(ctx, addressID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *AddressRepoMock) SetDefault(ctx context.Context, userID, addressID int64) error {
	args := m.Called(ctx, userID, addressID)
	return args.Error(0)
}

type CarrierRepoMock struct{ mock.Mock }

func (m *CarrierRepoMock) List(ctx context.Context) ([]model.ShippingCarrier, error) {
	args := m.Called(ctx)
	carriers, _ := args.Get(0).([]model.ShippingCarrier)
	return carriers, args.Error(1)
}

func (m *CarrierRepoMock) FindByID(ctx context.Context, carrierID int64) (model.ShippingCarrier, error) {
	args := m.Called(ctx, carrierID)
	c, _ := args.Get(0).(model.ShippingCarrier)
	return c, args.Error(1)
}

func (m *CarrierRepoMock) Create(ctx context.Context, c model.ShippingCarrier) (int64, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(int64), args.Error(1)
}

type AuditRepoMock struct{ mock.Mock }

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *AuditRepoMock) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	args := m.Called(ctx, filter)
	logs, _ := args.Get(0).([]model.AuditLog)
	return logs, args.Error(1)
}

// =====================
// PaymentGateway mock
// =====================

type GatewayMock struct{ mock.Mock }

func (m *GatewayMock) CreateSession(ctx context.Context, items []gateway.LineItem, meta gateway.SessionMetadata) (gateway.Session, error) {
	args := m.Called(ctx, items, meta)
	s, _ := args.Get(0).(gateway.Session)
	return s, args.Error(1)
}

func (m *GatewayMock) GetSession(ctx context.Context, sessionID string) (gateway.SessionStatus, error) {
	args := m.Called(ctx, sessionID)
	s, _ := args.Get(0).(gateway.SessionStatus)
	return s, args.Error(1)
}

func (m *GatewayMock) ChargeSucceeded(ctx context.Context, paymentIntentID string) (bool, error) {
	args := m.Called(ctx, paymentIntentID)
	return args.Bool(0), args.Error(1)
}

func (m *GatewayMock) Refund(ctx context.Context, paymentIntentID string) error {
	args := m.Called(ctx, paymentIntentID)
	return args.Error(0)
}

// =====================
// Helper: error contains（HTTPErrorの実装詳細に依存しない）
// =====================

func assertErrContains(t *testing.T, err error, wantSubstr string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.True(t, strings.Contains(err.Error(), wantSubstr), "err=%q want contains %q", err.Error(), wantSubstr)
	}
}
