package repository

import (
	"context"

	"app/internal/domain/model"
)

type CartItemRepository interface {
	ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error)
	FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error)

	// 同一(user, product)は数量プラス
	UpsertByUserAndProduct(ctx context.Context, userID int64, productID int64, addQty int64) error

	UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error
	DeleteByID(ctx context.Context, cartItemID int64) error

	//チェックアウト成功後のカートクリア
	DeleteByUserID(ctx context.Context, userID int64) error
}
