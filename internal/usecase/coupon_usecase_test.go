package usecase_test

import (
	"context"
	"testing"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newCouponUsecase() (*usecase.CouponUsecase, *CouponRepoMock, *AuditRepoMock) {
	couponRepo := new(CouponRepoMock)
	auditRepo := new(AuditRepoMock)
	return usecase.NewCouponUsecase(couponRepo, auditRepo), couponRepo, auditRepo
}

func TestApplyCoupon_Preview(t *testing.T) {
	uc, couponRepo, _ := newCouponUsecase()

	maxD := decimal.NewFromInt(2)
	couponRepo.On("FindByCode", mock.Anything, "SAVE10").Return(*percentCoupon(10, &maxD, 0), nil)

	out, err := uc.Apply(context.Background(), usecase.ApplyCouponInput{
		Code:       "SAVE10",
		OrderTotal: decimal.NewFromInt(25),
	})
	assert.NoError(t, err)
	assert.True(t, out.Discount.Equal(decimal.NewFromInt(2)), "discount=%s", out.Discount)
	assert.True(t, out.NewTotal.Equal(decimal.NewFromInt(23)), "new_total=%s", out.NewTotal)
}

func TestApplyCoupon_UnknownCode(t *testing.T) {
	uc, couponRepo, _ := newCouponUsecase()

	couponRepo.On("FindByCode", mock.Anything, "NOPE").Return(model.Coupon{}, repo.ErrNotFound)

	_, err := uc.Apply(context.Background(), usecase.ApplyCouponInput{
		Code:       "NOPE",
		OrderTotal: decimal.NewFromInt(25),
	})
	assertErrContains(t, err, "coupon expired or invalid")
}

func TestApplyCoupon_MinOrderNotMet(t *testing.T) {
	uc, couponRepo, _ := newCouponUsecase()

	couponRepo.On("FindByCode", mock.Anything, "BIG").Return(*percentCoupon(10, nil, 30), nil)

	_, err := uc.Apply(context.Background(), usecase.ApplyCouponInput{
		Code:       "BIG",
		OrderTotal: decimal.NewFromInt(25),
	})
	assertErrContains(t, err, "order total is too low for this coupon")
}

func TestApplyCoupon_EmptyCode(t *testing.T) {
	uc, _, _ := newCouponUsecase()

	_, err := uc.Apply(context.Background(), usecase.ApplyCouponInput{
		Code:       "  ",
		OrderTotal: decimal.NewFromInt(25),
	})
	assertErrContains(t, err, "code is required")
}

func TestListAvailableCoupons(t *testing.T) {
	uc, couponRepo, _ := newCouponUsecase()

	couponRepo.On("ListActive", mock.Anything, mock.Anything).Return([]model.Coupon{
		*percentCoupon(10, nil, 0),
	}, nil)

	out, err := uc.ListAvailable(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, len(out))
}

func TestAdminCreateCoupon_Success(t *testing.T) {
	uc, couponRepo, auditRepo := newCouponUsecase()

	adminID := int64(999)

	couponRepo.On("Create", mock.Anything, mock.MatchedBy(func(c model.Coupon) bool {
		return c.Code == "WELCOME" && c.IsActive
	})).Return(int64(5), nil)

	auditRepo.On("Create", mock.Anything, mock.MatchedBy(func(a model.AuditLog) bool {
		return a.ActorUserID == adminID &&
			a.Action == model.AuditActionCreateCoupon &&
			a.ResourceType == model.AuditResourceCoupon &&
			a.ResourceID == int64(5)
	})).Return(nil)

	out, err := uc.AdminCreate(context.Background(), adminID, usecase.AdminCreateCouponInput{
		Code:          "WELCOME",
		DiscountType:  "fixed",
		DiscountValue: decimal.NewFromInt(5),
		ValidFrom:     testNow(),
		ValidTo:       testNow().Add(30 * 24 * time.Hour),
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(5), out.ID)

	couponRepo.AssertExpectations(t)
	auditRepo.AssertExpectations(t)
}

func TestAdminCreateCoupon_DuplicateCode(t *testing.T) {
	uc, couponRepo, _ := newCouponUsecase()

	couponRepo.On("Create", mock.Anything, mock.Anything).Return(int64(0), repo.ErrConflict)

	_, err := uc.AdminCreate(context.Background(), 1, usecase.AdminCreateCouponInput{
		Code:          "WELCOME",
		DiscountType:  "fixed",
		DiscountValue: decimal.NewFromInt(5),
		ValidFrom:     testNow(),
		ValidTo:       testNow().Add(time.Hour),
	})
	assertErrContains(t, err, "code already exists")
}

func TestAdminCreateCoupon_PercentOver100(t *testing.T) {
	uc, _, _ := newCouponUsecase()

	_, err := uc.AdminCreate(context.Background(), 1, usecase.AdminCreateCouponInput{
		Code:          "TOOMUCH",
		DiscountType:  "percent",
		DiscountValue: decimal.NewFromInt(150),
		ValidFrom:     testNow(),
		ValidTo:       testNow().Add(time.Hour),
	})
	assertErrContains(t, err, "invalid discount_value")
}
