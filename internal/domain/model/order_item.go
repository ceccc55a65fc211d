package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文明細。注文と同時に一括作成し、以降はpaidフラグ以外変更しない。
// unit_priceは購入時点の単価（合計ではない）。
type OrderItem struct {
	ID                  int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID             int64           `gorm:"not null;index" json:"order_id"`
	ProductID           int64           `gorm:"not null;index" json:"product_id"`
	ProductNameSnapshot string          `gorm:"type:varchar(255);not null" json:"product_name_snapshot"`
	UnitPrice           decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"unit_price"`
	Quantity            int64           `gorm:"not null" json:"quantity"`
	Paid                bool            `gorm:"not null;default:false" json:"paid"`
	CreatedAt           time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}
