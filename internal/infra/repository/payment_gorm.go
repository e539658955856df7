package repository

import (
	"context"
	"errors"
	"time"

	"payrecon/internal/domain/model"
	repo "payrecon/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentGormRepository struct {
	db *gorm.DB
}

func NewPaymentGormRepository(db *gorm.DB) *PaymentGormRepository {
	return &PaymentGormRepository{db: db}
}

func (r *PaymentGormRepository) FindByExternalID(ctx context.Context, externalID string) (model.Payment, error) {
	return r.find(r.db.WithContext(ctx), externalID)
}

func (r *PaymentGormRepository) FindByExternalIDForUpdate(ctx context.Context, externalID string) (model.Payment, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), externalID)
}

func (r *PaymentGormRepository) find(q *gorm.DB, externalID string) (model.Payment, error) {
	var p model.Payment
	err := q.Where("external_transaction_id = ?", externalID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Payment{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Payment{}, err
	}
	return p, nil
}

func (r *PaymentGormRepository) Create(ctx context.Context, p model.Payment) error {
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return translateUniqueViolation(err)
	}
	return nil
}

func (r *PaymentGormRepository) MarkCompleted(ctx context.Context, paymentID string, amount decimal.Decimal, description string) error {
	res := r.db.WithContext(ctx).Model(&model.Payment{}).
		Where("id = ?", paymentID).
		Updates(map[string]interface{}{
			"status":      model.PaymentStatusCompleted,
			"amount":      amount,
			"description": description,
			"updated_at":  time.Now(),
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
