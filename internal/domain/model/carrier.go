package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 配送業者（参照データ）
type ShippingCarrier struct {
	ID           int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string          `gorm:"type:varchar(50);not null" json:"name"`
	Price        decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	DeliveryTime string          `gorm:"type:varchar(50)" json:"delivery_time"`
	CreatedAt    time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}
