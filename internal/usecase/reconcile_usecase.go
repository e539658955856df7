package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"payrecon/internal/domain/model"
	"payrecon/internal/domain/money"
	"payrecon/internal/gateway"
	"payrecon/internal/metadata"
	"payrecon/internal/metrics"
	"payrecon/internal/ordernumber"
	repo "payrecon/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const DefaultOrderNumberAttempts = 5

// 生成器が形式外の番号を返した。衝突と同じく作り直す
var errMalformedOrderNumber = errors.New("malformed order number")

type ReconcileOutcome string

const (
	OutcomeCreated               ReconcileOutcome = "created"
	OutcomeAlreadyReconciled     ReconcileOutcome = "already_reconciled"
	OutcomePaymentFailedRecorded ReconcileOutcome = "payment_failed_recorded"
	OutcomeIgnored               ReconcileOutcome = "ignored"
)

type ReconcileResult struct {
	Outcome ReconcileOutcome
	//created / already_reconciled のときだけ
	Order    *OrderOutput
	Degraded bool
}

// ReconcileUsecase は決済成功通知から Payment/Order/OrderItem/ActivityRecord を1トランザクションで作る。
type ReconcileUsecase struct {
	tx          repo.TransactionManager
	guard       *IdempotencyGuard
	numbers     OrderNumberGenerator
	idGen       IDGenerator
	clock       Clock
	maxAttempts int
	log         *slog.Logger
}

func NewReconcileUsecase(
	tx repo.TransactionManager,
	guard *IdempotencyGuard,
	numbers OrderNumberGenerator,
	idGen IDGenerator,
	clock Clock,
	maxAttempts int,
	log *slog.Logger,
) *ReconcileUsecase {
	if maxAttempts <= 0 {
		maxAttempts = DefaultOrderNumberAttempts
	}
	if log == nil {
		log = slog.Default()
	}
	return &ReconcileUsecase{
		tx:          tx,
		guard:       guard,
		numbers:     numbers,
		idGen:       idGen,
		clock:       clock,
		maxAttempts: maxAttempts,
		log:         log,
	}
}

func (u *ReconcileUsecase) ReconcileSucceeded(ctx context.Context, ev gateway.Event) (ReconcileResult, error) {
	log := u.log.With("transaction_id", ev.TransactionID, "event_id", ev.ID)
	if strings.TrimSpace(ev.TransactionID) == "" {
		return ReconcileResult{}, fmt.Errorf("%w: missing transaction id", ErrInvalidEvent)
	}

	//書き込み前に突合せ済みか確認
	st, err := u.guard.Lookup(ctx, ev.TransactionID)
	if err != nil {
		log.Error("idempotency lookup failed", "error", err)
		return ReconcileResult{}, fmt.Errorf("%w: idempotency lookup: %w", ErrTransient, err)
	}
	if st.Reconciled() {
		log.Info("payment already reconciled", "order_number", st.Order.OrderNumber)
		return alreadyReconciled(st, ev.TransactionID), nil
	}

	amount := money.FromMinor(ev.Amount, ev.Currency)
	if err := checkAmount(amount); err != nil {
		log.Warn("payment amount cannot be stored", "amount", amount.String())
		return ReconcileResult{}, err
	}
	decoded := metadata.Decode(ev.Metadata, amount)
	decoded.FallbackEmail(ev.CustomerEmail)
	if decoded.Degraded() {
		log.Warn("metadata decoded with fallbacks",
			"cart_form", decoded.Cart.Kind(),
			"address_form", string(decoded.AddressForm),
			"notes", decoded.Notes)
	}

	for attempt := 1; attempt <= u.maxAttempts; attempt++ {
		out, err := u.writeOrder(ctx, ev, amount, decoded)
		if err == nil {
			recordDegraded(decoded)
			log.Info("order created",
				"order_number", out.OrderNumber,
				"amount", out.TotalAmount,
				"needs_review", out.NeedsReview)
			return ReconcileResult{Outcome: OutcomeCreated, Order: &out, Degraded: decoded.Degraded()}, nil
		}

		switch {
		case errors.Is(err, repo.ErrOrderNumberTaken):
			metrics.OrderNumberCollisionsTotal.Inc()
			log.Warn("order number collision, regenerating", "attempt", attempt)
			continue

		case errors.Is(err, errMalformedOrderNumber):
			log.Error("order number generator returned a malformed number, regenerating", "error", err, "attempt", attempt)
			continue

		case IsConflict(err):
			//別の配送が先にコミットした
			st, lerr := u.guard.Lookup(ctx, ev.TransactionID)
			if lerr != nil {
				log.Error("idempotency lookup after conflict failed", "error", lerr)
				return ReconcileResult{}, fmt.Errorf("%w: idempotency lookup: %w", ErrTransient, lerr)
			}
			if st.Reconciled() {
				log.Info("concurrent delivery already reconciled", "order_number", st.Order.OrderNumber)
				return alreadyReconciled(st, ev.TransactionID), nil
			}
			//失敗通知の記録だけが先に入った。次の試行で完了に昇格する
			log.Warn("payment recorded concurrently without order, retrying", "attempt", attempt)
			continue

		default:
			log.Error("reconciliation transaction rolled back", "error", err, "attempt", attempt)
			return ReconcileResult{}, fmt.Errorf("%w: %w", ErrTransient, err)
		}
	}

	log.Error("reconciliation attempts exhausted", "attempts", u.maxAttempts)
	return ReconcileResult{}, fmt.Errorf("%w: gave up after %d attempts", ErrTransient, u.maxAttempts)
}

// writeOrder は1回分の試行。途中で失敗したら何も残らない。
func (u *ReconcileUsecase) writeOrder(ctx context.Context, ev gateway.Event, amount decimal.Decimal, decoded metadata.Result) (OrderOutput, error) {
	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		now := u.clock.Now()

		//1. Payment
		payment, err := r.Payments().FindByExternalIDForUpdate(ctx, ev.TransactionID)
		switch {
		case errors.Is(err, repo.ErrNotFound):
			payment = model.Payment{
				ID:                    u.idGen.NewID(),
				ExternalTransactionID: ev.TransactionID,
				Amount:                amount,
				Currency:              strings.ToLower(ev.Currency),
				Status:                model.PaymentStatusCompleted,
				UserID:                decoded.UserID,
				Description:           ev.Description,
				CreatedAt:             now,
				UpdatedAt:             now,
			}
			if err := r.Payments().Create(ctx, payment); err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			//失敗として記録済みの決済を完了に昇格
			_, found, err := r.Orders().FindByPaymentID(ctx, payment.ID)
			if err != nil {
				return err
			}
			if found {
				return errAlreadyReconciled
			}
			if err := r.Payments().MarkCompleted(ctx, payment.ID, amount, ev.Description); err != nil {
				return err
			}
			payment.Status = model.PaymentStatusCompleted
			payment.Amount = amount
		}

		//2. Order
		number := u.numbers.Next()
		if !ordernumber.Valid(number) {
			return fmt.Errorf("%w: %q", errMalformedOrderNumber, number)
		}
		userID := decoded.UserID
		if userID == "" {
			userID = payment.UserID
		}
		order := model.Order{
			ID:              u.idGen.NewID(),
			OrderNumber:     number,
			PaymentID:       payment.ID,
			UserID:          userID,
			Status:          model.OrderStatusProcessing,
			TotalAmount:     amount,
			Currency:        payment.Currency,
			ShippingAddress: decoded.Shipping,
			NeedsReview:     decoded.Degraded(),
			Metadata:        rawMetadata(ev.Metadata),
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := r.Orders().Create(ctx, order); err != nil {
			return err
		}

		//3. OrderItem
		items, err := u.buildItems(order.ID, decoded.Lines, now)
		if err != nil {
			return err
		}
		if err := r.OrderItems().CreateBulk(ctx, order.ID, items); err != nil {
			return err
		}

		//4. ActivityRecord
		if err := r.Activities().Create(ctx, model.ActivityRecord{
			ID:          u.idGen.NewID(),
			UserID:      userID,
			Type:        model.ActivityOrderCreated,
			Description: fmt.Sprintf("order %s created for payment %s (%s %s)", order.OrderNumber, ev.TransactionID, amount.StringFixed(2), strings.ToUpper(order.Currency)),
			ReferenceID: order.ID,
			CreatedAt:   now,
		}); err != nil {
			return err
		}
		if decoded.Degraded() {
			if err := r.Activities().Create(ctx, model.ActivityRecord{
				ID:          u.idGen.NewID(),
				UserID:      userID,
				Type:        model.ActivityOrderNeedsReview,
				Description: strings.Join(decoded.Notes, "; "),
				ReferenceID: order.ID,
				CreatedAt:   now,
			}); err != nil {
				return err
			}
		}

		out = toOrderOutput(order, ev.TransactionID, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func (u *ReconcileUsecase) buildItems(orderID string, lines []metadata.CartLine, now time.Time) ([]model.OrderItem, error) {
	items := make([]model.OrderItem, 0, len(lines))
	for _, l := range lines {
		it, err := model.NewOrderItem(l.ProductID, l.Name, l.ImageURL, l.Quantity, l.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("order item %s: %w", l.ProductID, err)
		}
		it.ID = u.idGen.NewID()
		it.OrderID = orderID
		it.CreatedAt = now
		items = append(items, it)
	}
	return items, nil
}

// RecordFailed は決済失敗を記録する（注文は作らない）。すでに記録があれば何もしない。
func (u *ReconcileUsecase) RecordFailed(ctx context.Context, ev gateway.Event) (ReconcileResult, error) {
	log := u.log.With("transaction_id", ev.TransactionID, "event_id", ev.ID)
	if strings.TrimSpace(ev.TransactionID) == "" {
		return ReconcileResult{}, fmt.Errorf("%w: missing transaction id", ErrInvalidEvent)
	}

	st, err := u.guard.Lookup(ctx, ev.TransactionID)
	if err != nil {
		log.Error("idempotency lookup failed", "error", err)
		return ReconcileResult{}, fmt.Errorf("%w: idempotency lookup: %w", ErrTransient, err)
	}
	if st.Reconciled() {
		log.Info("failure event for reconciled payment ignored", "order_number", st.Order.OrderNumber)
		return alreadyReconciled(st, ev.TransactionID), nil
	}
	if st.HasPayment {
		log.Info("payment already recorded", "status", string(st.Payment.Status))
		return ReconcileResult{Outcome: OutcomePaymentFailedRecorded}, nil
	}

	amount := money.FromMinor(ev.Amount, ev.Currency)
	if err := checkAmount(amount); err != nil {
		log.Warn("payment amount cannot be stored", "amount", amount.String())
		return ReconcileResult{}, err
	}
	userID := metadata.UserID(ev.Metadata)

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		now := u.clock.Now()
		payment := model.Payment{
			ID:                    u.idGen.NewID(),
			ExternalTransactionID: ev.TransactionID,
			Amount:                amount,
			Currency:              strings.ToLower(ev.Currency),
			Status:                model.PaymentStatusFailed,
			UserID:                userID,
			Description:           ev.Description,
			CreatedAt:             now,
			UpdatedAt:             now,
		}
		if err := r.Payments().Create(ctx, payment); err != nil {
			return err
		}
		return r.Activities().Create(ctx, model.ActivityRecord{
			ID:          u.idGen.NewID(),
			UserID:      userID,
			Type:        model.ActivityPaymentFailed,
			Description: fmt.Sprintf("payment %s failed (%s %s)", ev.TransactionID, amount.StringFixed(2), strings.ToUpper(ev.Currency)),
			ReferenceID: payment.ID,
			CreatedAt:   now,
		})
	})

	switch {
	case err == nil:
		log.Info("payment failure recorded")
		return ReconcileResult{Outcome: OutcomePaymentFailedRecorded}, nil
	case IsConflict(err):
		st, lerr := u.guard.Lookup(ctx, ev.TransactionID)
		if lerr != nil {
			return ReconcileResult{}, fmt.Errorf("%w: idempotency lookup: %w", ErrTransient, lerr)
		}
		if st.Reconciled() {
			return alreadyReconciled(st, ev.TransactionID), nil
		}
		return ReconcileResult{Outcome: OutcomePaymentFailedRecorded}, nil
	default:
		log.Error("recording payment failure rolled back", "error", err)
		return ReconcileResult{}, fmt.Errorf("%w: %w", ErrTransient, err)
	}
}

// numeric(14,2) に入らない金額は何度送られても保存できない
func checkAmount(amount decimal.Decimal) error {
	if amount.IsNegative() || amount.GreaterThan(model.MaxAmount) {
		return fmt.Errorf("%w: amount %s out of range", ErrInvalidEvent, amount.String())
	}
	return nil
}

func alreadyReconciled(st PaymentState, externalID string) ReconcileResult {
	out := toOrderOutput(st.Order, externalID, st.Items)
	return ReconcileResult{Outcome: OutcomeAlreadyReconciled, Order: &out, Degraded: st.Order.NeedsReview}
}

func recordDegraded(d metadata.Result) {
	if d.CartDegraded {
		metrics.DegradedMetadataTotal.WithLabelValues("cart").Inc()
	}
	if d.AddressDegraded {
		metrics.DegradedMetadataTotal.WithLabelValues("address").Inc()
	}
}

func rawMetadata(md map[string]string) datatypes.JSON {
	if len(md) == 0 {
		return nil
	}
	b, err := json.Marshal(md)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}
