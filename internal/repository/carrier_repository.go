package repository

import (
	"context"

	"app/internal/domain/model"
)

// 配送業者（参照データ）の窓口
type CarrierRepository interface {
	List(ctx context.Context) ([]model.ShippingCarrier, error)
	FindByID(ctx context.Context, carrierID int64) (model.ShippingCarrier, error)
	Create(ctx context.Context, c model.ShippingCarrier) (int64, error)
}
