package usecase

import (
	"context"
	"net/http"
	"strings"

	"payrecon/internal/domain/model"
	repo "payrecon/internal/repository"
)

// オペレーター向けの参照
type LookupUsecase struct {
	tx    repo.TransactionManager
	guard *IdempotencyGuard
}

func NewLookupUsecase(tx repo.TransactionManager, guard *IdempotencyGuard) *LookupUsecase {
	return &LookupUsecase{tx: tx, guard: guard}
}

type ReviewOutput struct {
	Order OrderOutput `json:"order"`
	Notes []string    `json:"notes"`
}

// 外部取引IDから注文を取得。決済が完了していない注文は見せない。
func (u *LookupUsecase) OrderByTransactionID(ctx context.Context, externalID string) (OrderOutput, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" || len(externalID) > 255 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid transaction id")
	}

	st, err := u.guard.Lookup(ctx, externalID)
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !st.Reconciled() || !st.Payment.IsCompleted() {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	return toOrderOutput(st.Order, externalID, st.Items), nil
}

// プレースホルダ明細/住所修正が必要な注文の一覧
func (u *LookupUsecase) ListNeedingReview(ctx context.Context, limit int) ([]ReviewOutput, error) {
	if limit < 1 || limit > 200 {
		return []ReviewOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	var outs []ReviewOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, err := r.Orders().ListNeedingReview(ctx, limit)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		outs = make([]ReviewOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			recs, err := r.Activities().ListByReference(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}

			notes := []string{}
			for _, rec := range recs {
				if rec.Type == model.ActivityOrderNeedsReview {
					notes = append(notes, rec.Description)
				}
			}
			outs = append(outs, ReviewOutput{Order: toOrderOutput(o, "", items), Notes: notes})
		}
		return nil
	})

	if err != nil {
		return []ReviewOutput{}, err
	}
	return outs, nil
}
