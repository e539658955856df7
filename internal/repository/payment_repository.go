package repository

import (
	"context"

	"payrecon/internal/domain/model"

	"github.com/shopspring/decimal"
)

type PaymentRepository interface {
	FindByExternalID(ctx context.Context, externalID string) (model.Payment, error)

	//行ロック付き（失敗済み決済を完了に昇格するとき）
	FindByExternalIDForUpdate(ctx context.Context, externalID string) (model.Payment, error)

	//external_transaction_id が重複なら ErrPaymentExists
	Create(ctx context.Context, p model.Payment) error

	MarkCompleted(ctx context.Context, paymentID string, amount decimal.Decimal, description string) error
}
