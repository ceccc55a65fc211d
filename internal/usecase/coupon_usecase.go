package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/shopspring/decimal"
)

// クーポンのプレビュー適用と一覧。注文への本適用はチェックアウト側。
type CouponUsecase struct {
	couponRepo repo.CouponRepository
	auditRepo  repo.AuditLogRepository
}

func NewCouponUsecase(couponRepo repo.CouponRepository, auditRepo repo.AuditLogRepository) *CouponUsecase {
	return &CouponUsecase{couponRepo: couponRepo, auditRepo: auditRepo}
}

type ApplyCouponInput struct {
	Code       string
	OrderTotal decimal.Decimal
}

type ApplyCouponOutput struct {
	Message  string          `json:"message"`
	Discount decimal.Decimal `json:"discount"`
	NewTotal decimal.Decimal `json:"new_total"`
}

// Apply は割引額のプレビュー。状態は変えない。
func (u *CouponUsecase) Apply(ctx context.Context, in ApplyCouponInput) (ApplyCouponOutput, error) {
	code := strings.TrimSpace(in.Code)
	if code == "" {
		return ApplyCouponOutput{}, NewHTTPError(http.StatusBadRequest, "code is required")
	}
	if in.OrderTotal.IsNegative() {
		return ApplyCouponOutput{}, NewHTTPError(http.StatusBadRequest, "invalid order_total")
	}

	c, err := u.couponRepo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ApplyCouponOutput{}, NewHTTPError(http.StatusBadRequest, "coupon expired or invalid")
		}
		return ApplyCouponOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	d, err := c.Discount(in.OrderTotal, time.Now())
	if err != nil {
		if errors.Is(err, model.ErrCouponNotMet) {
			return ApplyCouponOutput{}, NewHTTPError(http.StatusBadRequest, "order total is too low for this coupon")
		}
		return ApplyCouponOutput{}, NewHTTPError(http.StatusBadRequest, "coupon expired or invalid")
	}

	return ApplyCouponOutput{
		Message:  "coupon applied",
		Discount: d,
		NewTotal: in.OrderTotal.Sub(d),
	}, nil
}

// ListAvailable は現在有効なクーポン一覧。
func (u *CouponUsecase) ListAvailable(ctx context.Context) ([]model.Coupon, error) {
	coupons, err := u.couponRepo.ListActive(ctx, time.Now())
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return coupons, nil
}

type AdminCreateCouponInput struct {
	Code          string
	DiscountType  string
	DiscountValue decimal.Decimal
	MinOrderValue decimal.Decimal
	MaxDiscount   *decimal.Decimal
	ValidFrom     time.Time
	ValidTo       time.Time
}

// AdminCreate は管理者によるクーポン発行。
func (u *CouponUsecase) AdminCreate(ctx context.Context, actorAdminUserID int64, in AdminCreateCouponInput) (model.Coupon, error) {
	if actorAdminUserID <= 0 {
		return model.Coupon{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	code := strings.TrimSpace(in.Code)
	if code == "" || len(code) > 20 {
		return model.Coupon{}, NewHTTPError(http.StatusBadRequest, "invalid code")
	}
	dt := model.DiscountType(in.DiscountType)
	if dt != model.DiscountTypeFixed && dt != model.DiscountTypePercent {
		return model.Coupon{}, NewHTTPError(http.StatusBadRequest, "invalid discount_type")
	}
	if !in.DiscountValue.IsPositive() {
		return model.Coupon{}, NewHTTPError(http.StatusBadRequest, "invalid discount_value")
	}
	if dt == model.DiscountTypePercent && in.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
		return model.Coupon{}, NewHTTPError(http.StatusBadRequest, "invalid discount_value")
	}
	if in.MinOrderValue.IsNegative() {
		return model.Coupon{}, NewHTTPError(http.StatusBadRequest, "invalid min_order_value")
	}
	if !in.ValidTo.After(in.ValidFrom) {
		return model.Coupon{}, NewHTTPError(http.StatusBadRequest, "valid_to must be after valid_from")
	}

	c := model.Coupon{
		Code:          code,
		DiscountType:  dt,
		DiscountValue: in.DiscountValue,
		MinOrderValue: in.MinOrderValue,
		MaxDiscount:   in.MaxDiscount,
		IsActive:      true,
		ValidFrom:     in.ValidFrom,
		ValidTo:       in.ValidTo,
	}

	id, err := u.couponRepo.Create(ctx, c)
	if err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return model.Coupon{}, NewHTTPError(http.StatusConflict, "code already exists")
		}
		return model.Coupon{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	c.ID = id

	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  actorAdminUserID,
		Action:       model.AuditActionCreateCoupon,
		ResourceType: model.AuditResourceCoupon,
		ResourceID:   id,
		AfterJSON:    `{"code":"` + code + `"}`,
		CreatedAt:    time.Now(),
	}); err != nil {
		return model.Coupon{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return c, nil
}
