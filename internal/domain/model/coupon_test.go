package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func validCoupon() Coupon {
	return Coupon{
		ID:            1,
		Code:          "SAVE10",
		DiscountType:  DiscountTypePercent,
		DiscountValue: decimal.NewFromInt(10),
		MinOrderValue: decimal.NewFromInt(20),
		IsActive:      true,
		ValidFrom:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		ValidTo:       time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC),
	}
}

func TestCoupon_Discount_PercentCappedByMaxDiscount(t *testing.T) {
	c := validCoupon()
	maxD := decimal.NewFromInt(2)
	c.MaxDiscount = &maxD

	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	//10% of 25.00 = 2.50 だが max_discount 2.00 で頭打ち
	d, err := c.Discount(decimal.NewFromFloat(25.00), now)
	assert.NoError(t, err)
	assert.True(t, d.Equal(decimal.NewFromInt(2)), "d=%s", d)
}

func TestCoupon_Discount_PercentWithoutCap(t *testing.T) {
	c := validCoupon()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	d, err := c.Discount(decimal.NewFromInt(200), now)
	assert.NoError(t, err)
	assert.True(t, d.Equal(decimal.NewFromInt(20)), "d=%s", d)
}

func TestCoupon_Discount_FixedClampedToSubtotal(t *testing.T) {
	c := validCoupon()
	c.DiscountType = DiscountTypeFixed
	c.DiscountValue = decimal.NewFromInt(50)
	c.MinOrderValue = decimal.NewFromInt(20)

	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	//固定50だが小計30なので30まで
	d, err := c.Discount(decimal.NewFromInt(30), now)
	assert.NoError(t, err)
	assert.True(t, d.Equal(decimal.NewFromInt(30)), "d=%s", d)
}

func TestCoupon_Discount_MinOrderNotMet(t *testing.T) {
	c := validCoupon()
	c.MinOrderValue = decimal.NewFromInt(30)

	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	_, err := c.Discount(decimal.NewFromFloat(25.00), now)
	assert.ErrorIs(t, err, ErrCouponNotMet)
}

func TestCoupon_Discount_MinOrderExactlyMet(t *testing.T) {
	c := validCoupon()
	c.MinOrderValue = decimal.NewFromInt(25)

	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	//境界値（小計 == min_order_value）は通す
	d, err := c.Discount(decimal.NewFromInt(25), now)
	assert.NoError(t, err)
	assert.True(t, d.Equal(decimal.NewFromFloat(2.5)), "d=%s", d)
}

func TestCoupon_Discount_Inactive(t *testing.T) {
	c := validCoupon()
	c.IsActive = false

	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	_, err := c.Discount(decimal.NewFromInt(100), now)
	assert.ErrorIs(t, err, ErrCouponInvalid)
}

func TestCoupon_Discount_Expired(t *testing.T) {
	c := validCoupon()
	now := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := c.Discount(decimal.NewFromInt(100), now)
	assert.ErrorIs(t, err, ErrCouponInvalid)
}

func TestCoupon_Discount_NotYetValid(t *testing.T) {
	c := validCoupon()
	now := time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC)

	_, err := c.Discount(decimal.NewFromInt(100), now)
	assert.ErrorIs(t, err, ErrCouponInvalid)
}

func TestCoupon_IsValid_Boundaries(t *testing.T) {
	c := validCoupon()

	//開始時刻ちょうどは有効
	assert.True(t, c.IsValid(c.ValidFrom))
	//終了時刻ちょうども有効
	assert.True(t, c.IsValid(c.ValidTo))
	//終了の1秒後は無効
	assert.False(t, c.IsValid(c.ValidTo.Add(time.Second)))
}
