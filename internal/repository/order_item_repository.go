package repository

import (
	"context"

	"app/internal/domain/model"
)

type OrderItemRepository interface {
	CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error)

	//決済確認時に明細のpaidフラグを立てる
	MarkPaidByOrderID(ctx context.Context, orderID int64) error
}
