package repository

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"payrecon/internal/domain/model"
	"payrecon/internal/gateway"
	"payrecon/internal/infra/db"
	"payrecon/internal/ordernumber"
	repo "payrecon/internal/repository"
	"payrecon/internal/usecase"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// 実DBが必要。TEST_DATABASE_DSN が無ければスキップ
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN is not set")
	}

	gormDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return gormDB
}

func newPayment(externalID string) model.Payment {
	now := time.Now()
	return model.Payment{
		ID:                    uuid.NewString(),
		ExternalTransactionID: externalID,
		Amount:                decimal.RequireFromString("299.00"),
		Currency:              "usd",
		Status:                model.PaymentStatusCompleted,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}

func newOrder(paymentID, number string) model.Order {
	now := time.Now()
	return model.Order{
		ID:          uuid.NewString(),
		OrderNumber: number,
		PaymentID:   paymentID,
		Status:      model.OrderStatusProcessing,
		TotalAmount: decimal.RequireFromString("299.00"),
		Currency:    "usd",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestDB_PaymentUniqueViolation(t *testing.T) {
	gormDB := openTestDB(t)
	txm := NewTxManagerGorm(gormDB)
	ctx := context.Background()
	extID := "pi_db_" + uuid.NewString()

	require.NoError(t, txm.WithinTx(ctx, func(r repo.TxRepos) error {
		return r.Payments().Create(ctx, newPayment(extID))
	}))

	err := txm.WithinTx(ctx, func(r repo.TxRepos) error {
		return r.Payments().Create(ctx, newPayment(extID))
	})
	assert.ErrorIs(t, err, repo.ErrPaymentExists)
}

func TestDB_OrderUniqueViolations(t *testing.T) {
	gormDB := openTestDB(t)
	txm := NewTxManagerGorm(gormDB)
	ctx := context.Background()

	p1 := newPayment("pi_db_" + uuid.NewString())
	p2 := newPayment("pi_db_" + uuid.NewString())
	number := "ORD-DB" + uuid.NewString()[:8]

	require.NoError(t, txm.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.Payments().Create(ctx, p1); err != nil {
			return err
		}
		if err := r.Payments().Create(ctx, p2); err != nil {
			return err
		}
		return r.Orders().Create(ctx, newOrder(p1.ID, number))
	}))

	err := txm.WithinTx(ctx, func(r repo.TxRepos) error {
		return r.Orders().Create(ctx, newOrder(p2.ID, number))
	})
	assert.ErrorIs(t, err, repo.ErrOrderNumberTaken)

	err = txm.WithinTx(ctx, func(r repo.TxRepos) error {
		return r.Orders().Create(ctx, newOrder(p1.ID, number+"-2"))
	})
	assert.ErrorIs(t, err, repo.ErrOrderExistsForPayment)
}

func TestDB_RollbackLeavesNothing(t *testing.T) {
	gormDB := openTestDB(t)
	txm := NewTxManagerGorm(gormDB)
	ctx := context.Background()
	extID := "pi_db_" + uuid.NewString()
	boom := errors.New("boom")

	err := txm.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.Payments().Create(ctx, newPayment(extID)); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = NewPaymentGormRepository(gormDB).FindByExternalID(ctx, extID)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

type dbIDs struct{}

func (dbIDs) NewID() string { return uuid.NewString() }

type dbClock struct{}

func (dbClock) Now() time.Time { return time.Now() }

func TestDB_ConcurrentReconcileCreatesOneOrder(t *testing.T) {
	gormDB := openTestDB(t)
	txm := NewTxManagerGorm(gormDB)
	ctx := context.Background()

	numbers, err := ordernumber.New()
	require.NoError(t, err)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	guard := usecase.NewIdempotencyGuard(txm)
	uc := usecase.NewReconcileUsecase(txm, guard, numbers, dbIDs{}, dbClock{}, 0, log)

	extID := "pi_db_" + uuid.NewString()
	ev := gateway.Event{
		ID:            "evt_" + extID,
		Type:          gateway.EventPaymentSucceeded,
		TransactionID: extID,
		Amount:        29900,
		Currency:      "usd",
		Metadata: map[string]string{
			"cartItems":       `[{"id":"p1","qty":1,"p":299}]`,
			"shippingAddress": `{"name":"Ayşe Yılmaz"}`,
		},
	}

	var created atomic.Int64
	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			res, err := uc.ReconcileSucceeded(ctx, ev)
			if err != nil {
				return err
			}
			if res.Outcome == usecase.OutcomeCreated {
				created.Add(1)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int64(1), created.Load())

	st, err := guard.Lookup(ctx, extID)
	require.NoError(t, err)
	require.True(t, st.Reconciled())
	assert.Equal(t, "299.00", st.Payment.Amount.StringFixed(2))
	assert.Equal(t, "Ayşe", st.Order.ShippingAddress.FirstName)
	require.Len(t, st.Items, 1)

	recs, err := NewActivityGormRepository(gormDB).ListByReference(ctx, st.Order.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, recs)
}
