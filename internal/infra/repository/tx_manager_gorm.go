package repository

import (
	"context"

	repo "payrecon/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	payments   repo.PaymentRepository
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	activities repo.ActivityRepository
}

func (r *txReposGorm) Payments() repo.PaymentRepository     { return r.payments }
func (r *txReposGorm) Orders() repo.OrderRepository         { return r.orders }
func (r *txReposGorm) OrderItems() repo.OrderItemRepository { return r.orderItems }
func (r *txReposGorm) Activities() repo.ActivityRepository  { return r.activities }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			payments:   NewPaymentGormRepository(tx),
			orders:     NewOrderGormRepository(tx),
			orderItems: NewOrderItemGormRepository(tx),
			activities: NewActivityGormRepository(tx),
		}
		return fn(r)
	})
}
