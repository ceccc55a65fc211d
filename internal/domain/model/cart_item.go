package model

import "time"

// カートの明細。(user, product)につき1行で、再追加は数量加算。
// 価格はチェックアウト時に商品から取るのでここには持たない。
type CartItem struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null;uniqueIndex:idx_cart_user_product" json:"user_id"`
	ProductID int64     `gorm:"not null;uniqueIndex:idx_cart_user_product" json:"product_id"`
	Quantity  int64     `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
