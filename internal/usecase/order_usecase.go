package usecase

import (
	"context"
	"errors"
	"net/http"
	"time"

	"app/internal/domain/model"
	"app/internal/gateway"
	repo "app/internal/repository"

	"github.com/shopspring/decimal"
)

type OrderUsecase struct {
	tx      repo.TransactionManager
	gateway gateway.PaymentGateway
}

func NewOrderUsecase(tx repo.TransactionManager, gw gateway.PaymentGateway) *OrderUsecase {
	return &OrderUsecase{tx: tx, gateway: gw}
}

type OrderItemOutput struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
	Paid      bool            `json:"paid"`
}

type OrderOutput struct {
	ID              int64             `json:"id"`
	UserID          int64             `json:"user_id"`
	Status          string            `json:"status"`
	PaymentStatus   string            `json:"payment_status"`
	Subtotal        decimal.Decimal   `json:"subtotal"`
	DiscountApplied decimal.Decimal   `json:"discount_applied"`
	CarrierName     string            `json:"carrier_name"`
	CarrierPrice    decimal.Decimal   `json:"carrier_price"`
	TotalPrice      decimal.Decimal   `json:"total_price"`
	CouponCode      string            `json:"coupon_code,omitempty"`
	TrackingNumber  string            `json:"tracking_number,omitempty"`
	TrackingURL     string            `json:"tracking_url,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	Items           []OrderItemOutput `json:"items"`
}

type TrackingOutput struct {
	OrderID        int64  `json:"order_id"`
	Status         string `json:"status"`
	CarrierName    string `json:"carrier_name"`
	TrackingNumber string `json:"tracking_number"`
	TrackingURL    string `json:"tracking_url"`
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64) ([]OrderOutput, error) {
	if userID <= 0 {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	//ページングはまず固定で取る
	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListByUserID(ctx, userID, 1, 50)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			outs = append(outs, toOrderOutput(o, items))
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.UserID != userID {
			//他人の注文は「存在しない扱い」にする
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// TrackOrder は配送追跡情報を返す。未出荷は400。
func (u *OrderUsecase) TrackOrder(ctx context.Context, userID int64, orderID int64) (TrackingOutput, error) {
	if userID <= 0 {
		return TrackingOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return TrackingOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out TrackingOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.UserID != userID {
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		if o.TrackingNumber == "" {
			return NewHTTPError(http.StatusBadRequest, "tracking details not available yet")
		}

		out = TrackingOutput{
			OrderID:        o.ID,
			Status:         string(o.Status),
			CarrierName:    o.CarrierName,
			TrackingNumber: o.TrackingNumber,
			TrackingURL:    o.TrackingURL,
		}
		return nil
	})

	if err != nil {
		return TrackingOutput{}, err
	}
	return out, nil
}

// CancelOrder は出荷前の注文をキャンセルする。
// 支払い済みなら返金してからcancelledへ進める。
func (u *OrderUsecase) CancelOrder(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		//所有チェック
		if o.UserID != userID {
			return NewHTTPError(http.StatusForbidden, "forbidden")
		}

		switch o.Status {
		case model.OrderStatusShipped:
			return NewHTTPError(http.StatusBadRequest, "order already shipped")
		case model.OrderStatusDelivered:
			return NewHTTPError(http.StatusBadRequest, "order already delivered")
		case model.OrderStatusCancelled:
			return NewHTTPError(http.StatusBadRequest, "order already cancelled")
		}

		refunded := false
		if o.PaymentStatus == model.PaymentStatusPaid && o.PaymentIntentID != "" {
			//ゲートウェイ側で本当に決済されているか確認してから返金
			succeeded, err := u.gateway.ChargeSucceeded(ctx, o.PaymentIntentID)
			if err != nil {
				if errors.Is(err, gateway.ErrTimeout) {
					return NewHTTPError(http.StatusGatewayTimeout, "gateway timeout")
				}
				return NewHTTPError(http.StatusBadGateway, "gateway error")
			}
			if succeeded {
				if err := u.gateway.Refund(ctx, o.PaymentIntentID); err != nil {
					if errors.Is(err, gateway.ErrTimeout) {
						return NewHTTPError(http.StatusGatewayTimeout, "gateway timeout")
					}
					return NewHTTPError(http.StatusBadGateway, "gateway error")
				}
				refunded = true
			}
		}

		//読んだ時点のpayment_statusを条件に入れる。
		//読みと更新の間に支払い照合が入ったら外れて、返金無しのままpaid注文を潰さない。
		updated, err := r.Orders().CancelIfActive(ctx, orderID, o.PaymentStatus, refunded)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !updated {
			if refunded {
				//返金済みなのに行が進められない＝状態が壊れている
				return NewHTTPError(http.StatusInternalServerError, "order state inconsistent after refund")
			}
			return NewHTTPError(http.StatusConflict, "order status changed concurrently")
		}

		cur, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = toOrderOutput(cur, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			Name:      it.ProductNameSnapshot,
			Price:     it.UnitPrice,
			Quantity:  it.Quantity,
			Paid:      it.Paid,
		})
	}

	return OrderOutput{
		ID:              o.ID,
		UserID:          o.UserID,
		Status:          string(o.Status),
		PaymentStatus:   string(o.PaymentStatus),
		Subtotal:        o.Subtotal,
		DiscountApplied: o.DiscountApplied,
		CarrierName:     o.CarrierName,
		CarrierPrice:    o.CarrierPrice,
		TotalPrice:      o.TotalPrice,
		CouponCode:      o.CouponCode,
		TrackingNumber:  o.TrackingNumber,
		TrackingURL:     o.TrackingURL,
		CreatedAt:       o.CreatedAt,
		Items:           outItems,
	}
}
