package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type CarrierGormRepository struct {
	db *gorm.DB
}

// DI
func NewCarrierGormRepository(db *gorm.DB) *CarrierGormRepository {
	return &CarrierGormRepository{db: db}
}

func (r *CarrierGormRepository) List(ctx context.Context) ([]model.ShippingCarrier, error) {
	var carriers []model.ShippingCarrier

	if err := r.db.WithContext(ctx).Order("id asc").Find(&carriers).Error; err != nil {
		return []model.ShippingCarrier{}, err
	}
	return carriers, nil
}

func (r *CarrierGormRepository) FindByID(ctx context.Context, carrierID int64) (model.ShippingCarrier, error) {
	var c model.ShippingCarrier

	err := r.db.WithContext(ctx).
		Where("id = ?", carrierID).
		First(&c).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.ShippingCarrier{}, repo.ErrNotFound
	}
	if err != nil {
		return model.ShippingCarrier{}, err
	}
	return c, nil
}

func (r *CarrierGormRepository) Create(ctx context.Context, c model.ShippingCarrier) (int64, error) {
	if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
		return 0, err
	}
	return c.ID, nil
}
