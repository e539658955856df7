package usecase

import (
	"context"
	"errors"

	"payrecon/internal/domain/model"
	repo "payrecon/internal/repository"
)

// Tx内で既存の注文を見つけたときに返す。ロールバックさせるためのエラー。
var errAlreadyReconciled = errors.New("payment already reconciled")

// PaymentState は外部取引IDに対する現在の記録。
type PaymentState struct {
	HasPayment bool
	Payment    model.Payment

	HasOrder bool
	Order    model.Order
	Items    []model.OrderItem
}

// 注文まで作成済みなら同じ通知は何もしない
func (s PaymentState) Reconciled() bool {
	return s.HasOrder
}

// IdempotencyGuard は書き込み前に外部取引IDで突合せ済みかを調べる。
// 同時配送の競合はDBのユニーク制約で検出し、ここで「突合せ済み」に読み替える。
type IdempotencyGuard struct {
	tx repo.TransactionManager
}

func NewIdempotencyGuard(tx repo.TransactionManager) *IdempotencyGuard {
	return &IdempotencyGuard{tx: tx}
}

func (g *IdempotencyGuard) Lookup(ctx context.Context, externalID string) (PaymentState, error) {
	var st PaymentState

	err := g.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Payments().FindByExternalID(ctx, externalID)
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		st.HasPayment = true
		st.Payment = p

		o, found, err := r.Orders().FindByPaymentID(ctx, p.ID)
		if err != nil {
			return err
		}
		if !found {
			return nil
		}

		items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
		if err != nil {
			return err
		}
		st.HasOrder = true
		st.Order = o
		st.Items = items
		return nil
	})
	if err != nil {
		return PaymentState{}, err
	}
	return st, nil
}

// IsConflict は挿入時の競合（別の配送が先に書いた）かどうか。
func IsConflict(err error) bool {
	return errors.Is(err, repo.ErrPaymentExists) ||
		errors.Is(err, repo.ErrOrderExistsForPayment) ||
		errors.Is(err, errAlreadyReconciled)
}
