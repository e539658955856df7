package model

import "time"

type ActivityType string

const (
	//注文を作成した
	ActivityOrderCreated ActivityType = "ORDER_CREATED"
	//プレースホルダで注文を作成した（要確認）
	ActivityOrderNeedsReview ActivityType = "ORDER_NEEDS_REVIEW"
	//決済失敗を記録した
	ActivityPaymentFailed ActivityType = "PAYMENT_FAILED"
)

// 追記専用のアクティビティログ。更新はしない。
type ActivityRecord struct {
	ID string `gorm:"type:uuid;primaryKey" json:"id"`

	//注文/決済の持ち主
	UserID string `gorm:"type:varchar(255);index" json:"user_id"`

	Type        ActivityType `gorm:"type:varchar(50);not null;index" json:"type"`
	Description string       `gorm:"type:text;not null" json:"description"`

	//対象（注文ID or 決済ID）
	ReferenceID string `gorm:"type:varchar(255);not null;index" json:"reference_id"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
