package repository

import (
	"errors"

	repo "payrecon/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// ユニーク制約名 -> usecaseが判別するエラー
var uniqueConstraintErrors = map[string]error{
	"ux_payments_external_transaction_id": repo.ErrPaymentExists,
	"ux_orders_payment_id":                repo.ErrOrderExistsForPayment,
	"ux_orders_order_number":              repo.ErrOrderNumberTaken,
}

// translateUniqueViolation は既知のユニーク制約違反だけ置き換える。それ以外はそのまま返す。
func translateUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return err
	}
	if mapped, ok := uniqueConstraintErrors[pgErr.ConstraintName]; ok {
		return mapped
	}
	return err
}
