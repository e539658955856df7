package repository

import (
	"context"

	"payrecon/internal/domain/model"
)

// アクティビティログの保存・取得の約束。追記のみ。
type ActivityRepository interface {
	Create(ctx context.Context, rec model.ActivityRecord) error

	//対象IDのログを古い順に
	ListByReference(ctx context.Context, referenceID string) ([]model.ActivityRecord, error)
}
