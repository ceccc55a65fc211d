package usecase

import (
	"context"
	"net/http"
	"strings"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/shopspring/decimal"
)

// 配送業者の参照と管理者登録。
type CarrierUsecase struct {
	carrierRepo repo.CarrierRepository
}

func NewCarrierUsecase(carrierRepo repo.CarrierRepository) *CarrierUsecase {
	return &CarrierUsecase{carrierRepo: carrierRepo}
}

func (u *CarrierUsecase) List(ctx context.Context) ([]model.ShippingCarrier, error) {
	carriers, err := u.carrierRepo.List(ctx)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return carriers, nil
}

type AdminCreateCarrierInput struct {
	Name         string
	Price        decimal.Decimal
	DeliveryTime string
}

func (u *CarrierUsecase) AdminCreate(ctx context.Context, actorAdminUserID int64, in AdminCreateCarrierInput) (model.ShippingCarrier, error) {
	if actorAdminUserID <= 0 {
		return model.ShippingCarrier{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > 100 {
		return model.ShippingCarrier{}, NewHTTPError(http.StatusBadRequest, "invalid name")
	}
	if in.Price.IsNegative() {
		return model.ShippingCarrier{}, NewHTTPError(http.StatusBadRequest, "invalid price")
	}

	c := model.ShippingCarrier{
		Name:         name,
		Price:        in.Price,
		DeliveryTime: strings.TrimSpace(in.DeliveryTime),
	}

	id, err := u.carrierRepo.Create(ctx, c)
	if err != nil {
		return model.ShippingCarrier{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	c.ID = id
	return c, nil
}
