package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// 決済ゲートウェイのイベントからのみ作成/更新される。
type Payment struct {
	ID string `gorm:"type:uuid;primaryKey" json:"id"`

	//ゲートウェイ側の取引ID（1取引につき1行）
	ExternalTransactionID string `gorm:"type:varchar(255);not null;uniqueIndex:ux_payments_external_transaction_id" json:"external_transaction_id"`

	//主通貨単位（299.00 など）
	Amount   decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	Currency string          `gorm:"type:varchar(3);not null" json:"currency"`

	Status      PaymentStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	UserID      string        `gorm:"type:varchar(255);index" json:"user_id"`
	Description string        `gorm:"type:text" json:"description"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (p Payment) IsCompleted() bool {
	return p.Status == PaymentStatusCompleted
}
