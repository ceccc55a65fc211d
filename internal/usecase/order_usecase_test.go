package usecase_test

import (
	"context"
	"testing"

	"app/internal/domain/model"
	"app/internal/gateway"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type orderMocks struct {
	tx         *TxManagerMock
	orders     *OrderRepoMock
	orderItems *OrderItemRepoMock
	gw         *GatewayMock
}

func newOrderMocks() *orderMocks {
	m := &orderMocks{
		tx:         new(TxManagerMock),
		orders:     new(OrderRepoMock),
		orderItems: new(OrderItemRepoMock),
		gw:         new(GatewayMock),
	}
	m.tx.Repos = &TxReposMock{
		orders:     m.orders,
		orderItems: m.orderItems,
	}
	m.tx.On("WithinTx", mock.Anything).Return(nil)
	return m
}

func (m *orderMocks) usecase() *usecase.OrderUsecase {
	return usecase.NewOrderUsecase(m.tx, m.gw)
}

func myOrder(userID int64, status model.OrderStatus) model.Order {
	return model.Order{
		ID:            50,
		UserID:        userID,
		Status:        status,
		PaymentStatus: model.PaymentStatusPending,
		Subtotal:      decimal.NewFromInt(25),
		TotalPrice:    decimal.NewFromInt(30),
		CarrierName:   "Standard",
		CarrierPrice:  decimal.NewFromInt(5),
	}
}

// =====================
// List / Detail
// =====================

func TestListMyOrders_Success(t *testing.T) {
	m := newOrderMocks()
	userID := int64(7)

	orders := []model.Order{
		{ID: 10, UserID: userID, Status: model.OrderStatusPending},
		{ID: 11, UserID: userID, Status: model.OrderStatusProcessing},
	}
	m.orders.On("ListByUserID", mock.Anything, userID, 1, 50).Return(orders, int64(2), nil)
	m.orderItems.On("ListByOrderID", mock.Anything, int64(10)).Return([]model.OrderItem{}, nil)
	m.orderItems.On("ListByOrderID", mock.Anything, int64(11)).Return([]model.OrderItem{}, nil)

	outs, err := m.usecase().ListMyOrders(context.Background(), userID)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(outs))
	assert.Equal(t, "pending", outs[0].Status)
}

func TestGetMyOrderDetail_OtherUsersOrderIsNotFound(t *testing.T) {
	m := newOrderMocks()

	m.orders.On("FindByID", mock.Anything, int64(50)).Return(myOrder(999, model.OrderStatusPending), nil)

	_, err := m.usecase().GetMyOrderDetail(context.Background(), 7, 50)
	assertErrContains(t, err, "not found")
}

func TestGetMyOrderDetail_Success(t *testing.T) {
	m := newOrderMocks()
	userID := int64(7)

	m.orders.On("FindByID", mock.Anything, int64(50)).Return(myOrder(userID, model.OrderStatusProcessing), nil)
	m.orderItems.On("ListByOrderID", mock.Anything, int64(50)).Return([]model.OrderItem{
		{OrderID: 50, ProductID: 100, ProductNameSnapshot: "Mug", UnitPrice: decimal.NewFromInt(10), Quantity: 2},
	}, nil)

	out, err := m.usecase().GetMyOrderDetail(context.Background(), userID, 50)
	assert.NoError(t, err)
	assert.Equal(t, int64(50), out.ID)
	assert.Equal(t, 1, len(out.Items))
	assert.Equal(t, "Mug", out.Items[0].Name)
}

// =====================
// Track
// =====================

func TestTrackOrder_NotShippedYet(t *testing.T) {
	m := newOrderMocks()
	userID := int64(7)

	m.orders.On("FindByID", mock.Anything, int64(50)).Return(myOrder(userID, model.OrderStatusProcessing), nil)

	_, err := m.usecase().TrackOrder(context.Background(), userID, 50)
	assertErrContains(t, err, "tracking details not available yet")
}

func TestTrackOrder_Success(t *testing.T) {
	m := newOrderMocks()
	userID := int64(7)

	o := myOrder(userID, model.OrderStatusShipped)
	o.TrackingNumber = "TRK-ABC123"
	o.TrackingURL = "https://tracking.example.com/TRK-ABC123"
	m.orders.On("FindByID", mock.Anything, int64(50)).Return(o, nil)

	out, err := m.usecase().TrackOrder(context.Background(), userID, 50)
	assert.NoError(t, err)
	assert.Equal(t, "TRK-ABC123", out.TrackingNumber)
	assert.Equal(t, "shipped", out.Status)
	assert.Equal(t, "Standard", out.CarrierName)
}

// =====================
// Cancel
// =====================

func TestCancelOrder_AlreadyShipped(t *testing.T) {
	m := newOrderMocks()
	userID := int64(7)

	m.orders.On("FindByID", mock.Anything, int64(50)).Return(myOrder(userID, model.OrderStatusShipped), nil)

	_, err := m.usecase().CancelOrder(context.Background(), userID, 50)
	assertErrContains(t, err, "order already shipped")

	m.orders.AssertNotCalled(t, "CancelIfActive", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCancelOrder_AlreadyDelivered(t *testing.T) {
	m := newOrderMocks()
	userID := int64(7)

	m.orders.On("FindByID", mock.Anything, int64(50)).Return(myOrder(userID, model.OrderStatusDelivered), nil)

	_, err := m.usecase().CancelOrder(context.Background(), userID, 50)
	assertErrContains(t, err, "order already delivered")

	m.orders.AssertNotCalled(t, "CancelIfActive", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCancelOrder_AlreadyCancelled(t *testing.T) {
	m := newOrderMocks()
	userID := int64(7)

	m.orders.On("FindByID", mock.Anything, int64(50)).Return(myOrder(userID, model.OrderStatusCancelled), nil)

	_, err := m.usecase().CancelOrder(context.Background(), userID, 50)
	assertErrContains(t, err, "order already cancelled")
}

func TestCancelOrder_OtherUsersOrderIsForbidden(t *testing.T) {
	m := newOrderMocks()

	m.orders.On("FindByID", mock.Anything, int64(50)).Return(myOrder(999, model.OrderStatusPending), nil)

	_, err := m.usecase().CancelOrder(context.Background(), 7, 50)
	assertErrContains(t, err, "forbidden")
}

func TestCancelOrder_UnpaidPending_NoRefund(t *testing.T) {
	m := newOrderMocks()
	userID := int64(7)

	m.orders.On("FindByID", mock.Anything, int64(50)).Return(myOrder(userID, model.OrderStatusPending), nil).Once()
	m.orders.On("CancelIfActive", mock.Anything, int64(50), model.PaymentStatusPending, false).Return(true, nil)

	cancelled := myOrder(userID, model.OrderStatusCancelled)
	m.orders.On("FindByID", mock.Anything, int64(50)).Return(cancelled, nil).Once()
	m.orderItems.On("ListByOrderID", mock.Anything, int64(50)).Return([]model.OrderItem{}, nil)

	out, err := m.usecase().CancelOrder(context.Background(), userID, 50)
	assert.NoError(t, err)
	assert.Equal(t, "cancelled", out.Status)

	//未払いなのでゲートウェイには触らない
	m.gw.AssertNotCalled(t, "ChargeSucceeded", mock.Anything, mock.Anything)
	m.gw.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything)
}

func TestCancelOrder_PaidOrder_RefundsThenCancels(t *testing.T) {
	m := newOrderMocks()
	userID := int64(7)

	paid := myOrder(userID, model.OrderStatusProcessing)
	paid.PaymentStatus = model.PaymentStatusPaid
	paid.PaymentIntentID = "pi_789"
	m.orders.On("FindByID", mock.Anything, int64(50)).Return(paid, nil).Once()

	m.gw.On("ChargeSucceeded", mock.Anything, "pi_789").Return(true, nil)
	m.gw.On("Refund", mock.Anything, "pi_789").Return(nil)

	m.orders.On("CancelIfActive", mock.Anything, int64(50), model.PaymentStatusPaid, true).Return(true, nil)

	cancelled := paid
	cancelled.Status = model.OrderStatusCancelled
	cancelled.PaymentStatus = model.PaymentStatusRefunded
	m.orders.On("FindByID", mock.Anything, int64(50)).Return(cancelled, nil).Once()
	m.orderItems.On("ListByOrderID", mock.Anything, int64(50)).Return([]model.OrderItem{}, nil)

	out, err := m.usecase().CancelOrder(context.Background(), userID, 50)
	assert.NoError(t, err)
	assert.Equal(t, "cancelled", out.Status)
	assert.Equal(t, "refunded", out.PaymentStatus)

	m.gw.AssertExpectations(t)
}

// 返金したのに行を進められない＝500で知らせる
func TestCancelOrder_InconsistentAfterRefund(t *testing.T) {
	m := newOrderMocks()
	userID := int64(7)

	paid := myOrder(userID, model.OrderStatusProcessing)
	paid.PaymentStatus = model.PaymentStatusPaid
	paid.PaymentIntentID = "pi_789"
	m.orders.On("FindByID", mock.Anything, int64(50)).Return(paid, nil)

	m.gw.On("ChargeSucceeded", mock.Anything, "pi_789").Return(true, nil)
	m.gw.On("Refund", mock.Anything, "pi_789").Return(nil)

	m.orders.On("CancelIfActive", mock.Anything, int64(50), model.PaymentStatusPaid, true).Return(false, nil)

	_, err := m.usecase().CancelOrder(context.Background(), userID, 50)
	assertErrContains(t, err, "order state inconsistent after refund")
}

// 読みと更新の間に支払い照合が割り込んだらキャンセルは409で止まる（paidのまま潰さない）
func TestCancelOrder_PaymentConfirmRacesCancel(t *testing.T) {
	m := newOrderMocks()
	userID := int64(7)

	m.orders.On("FindByID", mock.Anything, int64(50)).Return(myOrder(userID, model.OrderStatusPending), nil)
	m.orders.On("CancelIfActive", mock.Anything, int64(50), model.PaymentStatusPending, false).Return(false, nil)

	_, err := m.usecase().CancelOrder(context.Background(), userID, 50)
	assertErrContains(t, err, "order status changed concurrently")

	//未払いとして読んだので返金は走らない
	m.gw.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything)
}

func TestCancelOrder_GatewayTimeoutOnChargeCheck(t *testing.T) {
	m := newOrderMocks()
	userID := int64(7)

	paid := myOrder(userID, model.OrderStatusProcessing)
	paid.PaymentStatus = model.PaymentStatusPaid
	paid.PaymentIntentID = "pi_789"
	m.orders.On("FindByID", mock.Anything, int64(50)).Return(paid, nil)

	m.gw.On("ChargeSucceeded", mock.Anything, "pi_789").Return(false, gateway.ErrTimeout)

	_, err := m.usecase().CancelOrder(context.Background(), userID, 50)
	assertErrContains(t, err, "gateway timeout")

	m.orders.AssertNotCalled(t, "CancelIfActive", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCancelOrder_NotFound(t *testing.T) {
	m := newOrderMocks()

	m.orders.On("FindByID", mock.Anything, int64(99)).Return(model.Order{}, repo.ErrNotFound)

	_, err := m.usecase().CancelOrder(context.Background(), 7, 99)
	assertErrContains(t, err, "not found")
}
