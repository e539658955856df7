package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidQuantity  = errors.New("order item quantity must be positive")
	ErrInvalidUnitPrice = errors.New("order item unit price must not be negative")
	ErrAmountTooLarge   = errors.New("amount does not fit numeric(14,2)")
)

// numeric(14,2) に入る最大値
var MaxAmount = decimal.New(99999999999999, -2)

type OrderItem struct {
	ID           string          `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID      string          `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID    string          `gorm:"type:varchar(255);not null;index" json:"product_id"`
	ProductName  string          `gorm:"type:varchar(255);not null" json:"product_name"`
	ProductImage string          `gorm:"type:text" json:"product_image,omitempty"`
	Quantity     int64           `gorm:"not null" json:"quantity"`
	UnitPrice    decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"unit_price"`
	TotalPrice   decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total_price"`
	CreatedAt    time.Time       `gorm:"not null" json:"created_at"`
}

// NewOrderItem は数量と単価を検証し、合計を計算した明細を返す。
func NewOrderItem(productID, name, image string, quantity int64, unitPrice decimal.Decimal) (OrderItem, error) {
	if quantity <= 0 {
		return OrderItem{}, ErrInvalidQuantity
	}
	if unitPrice.IsNegative() {
		return OrderItem{}, ErrInvalidUnitPrice
	}
	total := unitPrice.Mul(decimal.NewFromInt(quantity))
	if total.GreaterThan(MaxAmount) {
		return OrderItem{}, ErrAmountTooLarge
	}
	return OrderItem{
		ProductID:    productID,
		ProductName:  name,
		ProductImage: image,
		Quantity:     quantity,
		UnitPrice:    unitPrice,
		TotalPrice:   total,
	}, nil
}
