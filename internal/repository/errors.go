package repository

import "errors"

var ErrNotFound = errors.New("not found")

// ユニーク制約違反。どの制約かで扱いが変わる。
var (
	//payments.external_transaction_id（同じ取引がすでに記録済み）
	ErrPaymentExists = errors.New("payment for external transaction already exists")
	//orders.payment_id（同じ決済の注文がすでにある）
	ErrOrderExistsForPayment = errors.New("order for payment already exists")
	//orders.order_number（番号の衝突。作り直す）
	ErrOrderNumberTaken = errors.New("order number already taken")
)
