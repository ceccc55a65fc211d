package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	"app/internal/gateway"
	repo "app/internal/repository"
)

// CheckoutUsecase はカート→注文→決済セッションを1つの論理トランザクションで進める。
// セッション作成に失敗したら注文と明細ごとロールバックする。
type CheckoutUsecase struct {
	tx      repo.TransactionManager
	gateway gateway.PaymentGateway
}

func NewCheckoutUsecase(tx repo.TransactionManager, gw gateway.PaymentGateway) *CheckoutUsecase {
	return &CheckoutUsecase{tx: tx, gateway: gw}
}

type CheckoutInput struct {
	AddressID  int64
	CarrierID  int64
	CouponCode string
}

type CheckoutOutput struct {
	CheckoutURL string `json:"checkout_url"`
	OrderID     int64  `json:"order_id"`
	SessionID   string `json:"session_id"`
}

func (u *CheckoutUsecase) Checkout(ctx context.Context, userID int64, in CheckoutInput) (CheckoutOutput, error) {
	if userID <= 0 {
		return CheckoutOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.AddressID <= 0 {
		return CheckoutOutput{}, NewHTTPError(http.StatusBadRequest, "address is invalid")
	}
	if in.CarrierID <= 0 {
		return CheckoutOutput{}, NewHTTPError(http.StatusBadRequest, "shipping carrier is invalid")
	}
	code := strings.TrimSpace(in.CouponCode)

	var out CheckoutOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//カート取得
		cartItems, err := r.CartItems().ListByUserID(ctx, userID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if len(cartItems) == 0 {
			return NewHTTPError(http.StatusBadRequest, "cart is empty")
		}

		//住所の存在確認＋所有チェック
		addr, err := r.Addresses().FindByID(ctx, in.AddressID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusBadRequest, "address is invalid")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if addr.UserID != userID {
			return NewHTTPError(http.StatusForbidden, "forbidden")
		}

		//配送業者
		carrier, err := r.Carriers().FindByID(ctx, in.CarrierID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusBadRequest, "shipping carrier is invalid")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//クーポン（指定時のみ）
		var coupon *model.Coupon
		if code != "" {
			c, err := r.Coupons().FindByCode(ctx, code)
			if err != nil {
				if errors.Is(err, repo.ErrNotFound) {
					return NewHTTPError(http.StatusBadRequest, "coupon expired or invalid")
				}
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			coupon = &c
		}

		//現在の商品価格で明細を凍結
		lines := make([]PricedLine, 0, len(cartItems))
		for _, ci := range cartItems {
			p, err := r.Products().FindByID(ctx, ci.ProductID)
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusBadRequest, "product no longer available")
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !p.IsActive {
				return NewHTTPError(http.StatusBadRequest, "product no longer available")
			}

			lines = append(lines, PricedLine{
				ProductID: p.ID,
				Name:      p.Name,
				UnitPrice: p.Price,
				Quantity:  ci.Quantity,
			})
		}

		now := time.Now()
		quote, err := PriceCart(lines, coupon, carrier, now)
		if err != nil {
			return err
		}

		//注文作成（pending/pending、住所と配送業者はスナップショット）
		order := model.Order{
			UserID:          userID,
			Subtotal:        quote.Subtotal,
			DiscountApplied: quote.DiscountApplied,
			TotalPrice:      quote.Total,
			AddressID:       addr.ID,
			ShipName:        addr.Name,
			ShipPostalCode:  addr.PostalCode,
			ShipPrefecture:  addr.Prefecture,
			ShipCity:        addr.City,
			ShipLine1:       addr.Line1,
			ShipLine2:       addr.Line2,
			ShipPhone:       addr.Phone,
			CarrierID:       carrier.ID,
			CarrierName:     carrier.Name,
			CarrierPrice:    carrier.Price,
			Status:          model.OrderStatusPending,
			PaymentStatus:   model.PaymentStatusPending,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if coupon != nil {
			order.CouponID = &coupon.ID
			order.CouponCode = coupon.Code
		}

		orderID, err := r.Orders().Create(ctx, order)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		orderItems := make([]model.OrderItem, 0, len(lines))
		for _, l := range lines {
			orderItems = append(orderItems, model.OrderItem{
				ProductID:           l.ProductID,
				ProductNameSnapshot: l.Name,
				UnitPrice:           l.UnitPrice,
				Quantity:            l.Quantity,
				CreatedAt:           now,
			})
		}
		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//決済セッション作成。失敗したらerrを返してトランザクションごと巻き戻す。
		sess, err := u.gateway.CreateSession(ctx, quote.LineItems, gateway.SessionMetadata{
			OrderID:    orderID,
			CouponCode: code,
		})
		if err != nil {
			if errors.Is(err, gateway.ErrTimeout) {
				return NewHTTPError(http.StatusGatewayTimeout, "gateway timeout")
			}
			return NewHTTPError(http.StatusBadGateway, "gateway error")
		}

		if err := r.Orders().SetSessionID(ctx, orderID, sess.ID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//コミット前にカートをクリア（注文が成立しなければ消えない）
		if err := r.CartItems().DeleteByUserID(ctx, userID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = CheckoutOutput{
			CheckoutURL: sess.URL,
			OrderID:     orderID,
			SessionID:   sess.ID,
		}
		return nil
	})

	if err != nil {
		return CheckoutOutput{}, err
	}
	return out, nil
}
