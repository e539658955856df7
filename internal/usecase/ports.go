package usecase

import "time"

// UUID 等のIDを作る約束
type IDGenerator interface {
	NewID() string
}

// 現在の時間
type Clock interface {
	Now() time.Time
}

// 注文番号を作る約束（衝突はユニーク制約で検出する）
type OrderNumberGenerator interface {
	Next() string
}
