package repository

import "context"

// トランザクション内で使う約束
type TxRepos interface {
	Payments() PaymentRepository
	Orders() OrderRepository
	OrderItems() OrderItemRepository
	Activities() ActivityRepository
}

// UsecaseからTxの開始/commit/rollbackを隠す。
// fnがエラーを返したら全部ロールバックする。
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
