package repository

import (
	"context"

	"payrecon/internal/domain/model"
)

type OrderRepository interface {
	FindByPaymentID(ctx context.Context, paymentID string) (model.Order, bool, error)

	//order_number重複なら ErrOrderNumberTaken、payment_id重複なら ErrOrderExistsForPayment
	Create(ctx context.Context, order model.Order) error

	//要確認の注文（新しい順）
	ListNeedingReview(ctx context.Context, limit int) ([]model.Order, error)
}
