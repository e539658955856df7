package usecase

import "errors"

var (
	// 一時的な失敗（DB接続、デッドロック、注文番号の再試行切れ）。
	// ゲートウェイに再送してもらう。書き込みは何も残っていない。
	ErrTransient = errors.New("transient processing failure")

	// 署名は正しいが突合せに必要な項目がない
	ErrInvalidEvent = errors.New("invalid gateway event")
)
