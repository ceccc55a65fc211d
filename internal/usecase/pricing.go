package usecase

import (
	"errors"
	"net/http"
	"time"

	"app/internal/domain/model"
	"app/internal/gateway"

	"github.com/shopspring/decimal"
)

// 価格計算の入力1行（商品・購入時単価・数量）
type PricedLine struct {
	ProductID int64
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int64
}

// チェックアウトの見積り。金額は10進で持ち、
// ゲートウェイへ渡す明細だけ最小通貨単位にする。
type Quote struct {
	Subtotal        decimal.Decimal
	DiscountApplied decimal.Decimal
	CarrierPrice    decimal.Decimal
	Total           decimal.Decimal
	LineItems       []gateway.LineItem
}

// PriceCart は小計・割引・合計を計算する純関数。
// 配送料は合計に含める（ゲートウェイ請求額と注文合計を一致させるため）。
func PriceCart(lines []PricedLine, coupon *model.Coupon, carrier model.ShippingCarrier, now time.Time) (Quote, error) {
	if len(lines) == 0 {
		return Quote{}, NewHTTPError(http.StatusBadRequest, "cart is empty")
	}

	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity)))
	}

	discount := decimal.Zero
	if coupon != nil {
		d, err := coupon.Discount(subtotal, now)
		if err != nil {
			if errors.Is(err, model.ErrCouponNotMet) {
				return Quote{}, NewHTTPError(http.StatusBadRequest, "order total is too low for this coupon")
			}
			return Quote{}, NewHTTPError(http.StatusBadRequest, "coupon expired or invalid")
		}
		discount = d
	}

	total := subtotal.Sub(discount).Add(carrier.Price)

	// ゲートウェイ明細の合計は必ずtotalと一致させる。
	// 割引ありの場合は行単位で配分できないので1行にまとめる。
	var items []gateway.LineItem
	if discount.IsPositive() {
		items = []gateway.LineItem{{
			Name:       "Order total (discount applied)",
			UnitAmount: toMinorUnits(total),
			Quantity:   1,
		}}
	} else {
		items = make([]gateway.LineItem, 0, len(lines)+1)
		for _, l := range lines {
			items = append(items, gateway.LineItem{
				Name:       l.Name,
				UnitAmount: toMinorUnits(l.UnitPrice),
				Quantity:   l.Quantity,
			})
		}
		if carrier.Price.IsPositive() {
			items = append(items, gateway.LineItem{
				Name:       "Shipping: " + carrier.Name,
				UnitAmount: toMinorUnits(carrier.Price),
				Quantity:   1,
			})
		}
	}

	return Quote{
		Subtotal:        subtotal,
		DiscountApplied: discount,
		CarrierPrice:    carrier.Price,
		Total:           total,
		LineItems:       items,
	}, nil
}

// 10進の金額をセント（最小通貨単位）へ。浮動小数は経由しない。
func toMinorUnits(d decimal.Decimal) int64 {
	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
