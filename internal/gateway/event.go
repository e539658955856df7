package gateway

import "errors"

const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
)

// 署名が無い/シークレット未設定/署名不一致
var ErrAuthentication = errors.New("gateway signature verification failed")

// 署名は正しいが中身が読めないイベント
var ErrMalformedEvent = errors.New("malformed gateway event")

// Event はゲートウェイの通知を必要な項目だけに正規化したもの。
type Event struct {
	ID   string
	Type string

	//ゲートウェイ側の取引ID（payment intent id）
	TransactionID string

	//最小通貨単位
	Amount   int64
	Currency string

	Metadata      map[string]string
	Description   string
	CustomerEmail string
}

// EventVerifier は生のリクエストボディと署名ヘッダから Event を復元する。
// ボディは受け取ったバイト列のまま渡すこと。
type EventVerifier interface {
	Verify(payload []byte, signature string) (Event, error)
}
