package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
	PaymentStatusFailed   PaymentStatus = "failed"
)

// 注文。作成後は明細と金額を変更しない。
// 住所と配送業者は作成時点の内容をスナップショットで持つ。
type Order struct {
	ID     int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64 `gorm:"not null;index" json:"user_id"`

	Subtotal        decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"subtotal"`
	DiscountApplied decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"discount_applied"`
	TotalPrice      decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"total_price"`

	CouponID   *int64 `gorm:"index" json:"coupon_id,omitempty"`
	CouponCode string `gorm:"type:varchar(20)" json:"coupon_code,omitempty"`

	// 配送先スナップショット
	AddressID      int64  `gorm:"not null" json:"address_id"`
	ShipName       string `gorm:"type:varchar(255);not null" json:"ship_name"`
	ShipPostalCode string `gorm:"type:varchar(20);not null" json:"ship_postal_code"`
	ShipPrefecture string `gorm:"type:varchar(100);not null" json:"ship_prefecture"`
	ShipCity       string `gorm:"type:varchar(255);not null" json:"ship_city"`
	ShipLine1      string `gorm:"type:varchar(255);not null" json:"ship_line1"`
	ShipLine2      string `gorm:"type:varchar(255)" json:"ship_line2"`
	ShipPhone      string `gorm:"type:varchar(30)" json:"ship_phone"`

	// 配送業者スナップショット
	CarrierID    int64           `gorm:"not null" json:"carrier_id"`
	CarrierName  string          `gorm:"type:varchar(50);not null" json:"carrier_name"`
	CarrierPrice decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"carrier_price"`

	Status        OrderStatus   `gorm:"type:varchar(20);not null;index" json:"status"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(10);not null;index" json:"payment_status"`

	// 決済プロバイダの識別子。session_idは一度入れたら変更しない。
	SessionID       string `gorm:"type:varchar(255);index" json:"session_id,omitempty"`
	PaymentIntentID string `gorm:"type:varchar(255)" json:"payment_intent_id,omitempty"`

	TrackingNumber string `gorm:"type:varchar(50)" json:"tracking_number,omitempty"`
	TrackingURL    string `gorm:"type:varchar(255)" json:"tracking_url,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
