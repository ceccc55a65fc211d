package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountTypeFixed   DiscountType = "fixed"
	DiscountTypePercent DiscountType = "percent"
)

var (
	// 無効・期限切れクーポン
	ErrCouponInvalid = errors.New("coupon expired or invalid")

	// 注文金額がmin_order_value未満
	ErrCouponNotMet = errors.New("order total is too low for this coupon")
)

// クーポン。注文から参照された後は変更しない（履歴の正しさのため）。
type Coupon struct {
	ID            int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	Code          string           `gorm:"type:varchar(20);not null;uniqueIndex" json:"code"`
	DiscountType  DiscountType     `gorm:"type:varchar(10);not null" json:"discount_type"`
	DiscountValue decimal.Decimal  `gorm:"type:numeric(10,2);not null" json:"discount_value"`
	MinOrderValue decimal.Decimal  `gorm:"type:numeric(10,2);not null;default:0" json:"min_order_value"`
	MaxDiscount   *decimal.Decimal `gorm:"type:numeric(10,2)" json:"max_discount,omitempty"`
	IsActive      bool             `gorm:"not null;default:true" json:"is_active"`
	ValidFrom     time.Time        `gorm:"not null" json:"valid_from"`
	ValidTo       time.Time        `gorm:"not null" json:"valid_to"`
	CreatedAt     time.Time        `gorm:"not null;autoCreateTime" json:"created_at"`
}

// 有効期間内かつactiveか
func (c Coupon) IsValid(now time.Time) bool {
	return c.IsActive && !now.Before(c.ValidFrom) && !now.After(c.ValidTo)
}

// Discount は小計に対する割引額を計算する純関数。
// fixedは小計まで、percentはmax_discountまでクランプする。
func (c Coupon) Discount(subtotal decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	if !c.IsValid(now) {
		return decimal.Zero, ErrCouponInvalid
	}
	if subtotal.LessThan(c.MinOrderValue) {
		return decimal.Zero, ErrCouponNotMet
	}

	d := c.DiscountValue
	if c.DiscountType == DiscountTypePercent {
		d = subtotal.Mul(c.DiscountValue).Div(decimal.NewFromInt(100))
		if c.MaxDiscount != nil && d.GreaterThan(*c.MaxDiscount) {
			d = *c.MaxDiscount
		}
	}

	// 割引は小計を超えない
	if d.GreaterThan(subtotal) {
		d = subtotal
	}
	if d.IsNegative() {
		d = decimal.Zero
	}
	return d, nil
}
