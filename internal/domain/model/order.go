package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

type Order struct {
	ID          string `gorm:"type:uuid;primaryKey" json:"id"`
	OrderNumber string `gorm:"type:varchar(32);not null;uniqueIndex:ux_orders_order_number" json:"order_number"`

	//1決済につき注文は1つ
	PaymentID string   `gorm:"type:uuid;not null;uniqueIndex:ux_orders_payment_id" json:"payment_id"`
	Payment   *Payment `gorm:"foreignKey:PaymentID;constraint:OnDelete:RESTRICT" json:"-"`

	UserID      string          `gorm:"type:varchar(255);index" json:"user_id"`
	Status      OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total_amount"`
	Currency    string          `gorm:"type:varchar(3);not null" json:"currency"`

	//注文時点の配送先スナップショット
	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`

	//プレースホルダ明細や住所修正が必要な注文
	NeedsReview bool `gorm:"not null;default:false;index" json:"needs_review"`

	//ゲートウェイから届いたmetadataそのまま（オペレーター修正用）
	Metadata datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
