package model

// 配送先住所（注文に埋め込むスナップショット）
type ShippingAddress struct {
	FirstName string `gorm:"type:varchar(255)" json:"first_name"`
	LastName  string `gorm:"type:varchar(255)" json:"last_name"`
	Email     string `gorm:"type:varchar(255)" json:"email"`
	Phone     string `gorm:"type:varchar(30)" json:"phone"`

	//番地など
	Address string `gorm:"type:text" json:"address"`
	City    string `gorm:"type:varchar(255)" json:"city"`

	//郵便番号
	Postcode string `gorm:"type:varchar(20)" json:"postcode"`
	Country  string `gorm:"type:varchar(100)" json:"country"`

	//metadataから復元できなかった住所。オペレーターが修正する
	NeedsCorrection bool `gorm:"not null;default:false" json:"needs_correction"`
}
