package repository

import (
	"context"

	"payrecon/internal/domain/model"
	repo "payrecon/internal/repository"

	"gorm.io/gorm"
)

type activityGormRepository struct {
	db *gorm.DB
}

func NewActivityGormRepository(db *gorm.DB) repo.ActivityRepository {
	return &activityGormRepository{db: db}
}

func (r *activityGormRepository) Create(ctx context.Context, rec model.ActivityRecord) error {
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return err
	}
	return nil
}

func (r *activityGormRepository) ListByReference(ctx context.Context, referenceID string) ([]model.ActivityRecord, error) {
	var recs []model.ActivityRecord
	err := r.db.WithContext(ctx).
		Where("reference_id = ?", referenceID).
		Order("created_at asc").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}
