package repository

import (
	"context"
	"time"

	"app/internal/domain/model"
)

type CouponRepository interface {
	FindByCode(ctx context.Context, code string) (model.Coupon, error)
	FindByID(ctx context.Context, couponID int64) (model.Coupon, error)

	//現在有効なクーポン一覧
	ListActive(ctx context.Context, now time.Time) ([]model.Coupon, error)

	Create(ctx context.Context, c model.Coupon) (int64, error)
}
