package repository

import (
	"context"
	"errors"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type CouponGormRepository struct {
	db *gorm.DB
}

// DI
func NewCouponGormRepository(db *gorm.DB) *CouponGormRepository {
	return &CouponGormRepository{db: db}
}

func (r *CouponGormRepository) FindByCode(ctx context.Context, code string) (model.Coupon, error) {
	var c model.Coupon

	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&c).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Coupon{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Coupon{}, err
	}
	return c, nil
}

func (r *CouponGormRepository) FindByID(ctx context.Context, couponID int64) (model.Coupon, error) {
	var c model.Coupon

	err := r.db.WithContext(ctx).
		Where("id = ?", couponID).
		First(&c).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Coupon{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Coupon{}, err
	}
	return c, nil
}

// 有効期間内のactiveクーポンのみ
func (r *CouponGormRepository) ListActive(ctx context.Context, now time.Time) ([]model.Coupon, error) {
	var coupons []model.Coupon

	err := r.db.WithContext(ctx).
		Where("is_active = ? AND valid_from <= ? AND valid_to >= ?", true, now, now).
		Order("id asc").
		Find(&coupons).Error
	if err != nil {
		return []model.Coupon{}, err
	}

	return coupons, nil
}

func (r *CouponGormRepository) Create(ctx context.Context, c model.Coupon) (int64, error) {
	if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
		//コードはユニーク
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, repo.ErrConflict
		}
		return 0, err
	}
	return c.ID, nil
}
