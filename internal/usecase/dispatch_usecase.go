package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"payrecon/internal/gateway"
	"payrecon/internal/metrics"
)

// Reconciler は種類ごとの決済イベント処理。
type Reconciler interface {
	ReconcileSucceeded(ctx context.Context, ev gateway.Event) (ReconcileResult, error)
	RecordFailed(ctx context.Context, ev gateway.Event) (ReconcileResult, error)
}

type DispatchResult struct {
	EventID       string
	EventType     string
	TransactionID string
	ReconcileResult
}

// DispatchUsecase は署名検証 -> 種類で振り分け -> 結果を返す。
// 再試行はゲートウェイの再送に任せるので、ここではキューもバックオフも持たない。
type DispatchUsecase struct {
	verifier   gateway.EventVerifier
	reconciler Reconciler
	log        *slog.Logger
}

func NewDispatchUsecase(verifier gateway.EventVerifier, reconciler Reconciler, log *slog.Logger) *DispatchUsecase {
	if log == nil {
		log = slog.Default()
	}
	return &DispatchUsecase{verifier: verifier, reconciler: reconciler, log: log}
}

// Handle は生のボディと署名ヘッダを受け取る。
// 返すエラーは gateway.ErrAuthentication / gateway.ErrMalformedEvent / ErrInvalidEvent / ErrTransient。
func (u *DispatchUsecase) Handle(ctx context.Context, payload []byte, signature string) (DispatchResult, error) {
	start := time.Now()
	defer func() {
		metrics.ReconcileDuration.Observe(time.Since(start).Seconds())
	}()

	ev, err := u.verifier.Verify(payload, signature)
	if err != nil {
		u.log.Warn("gateway notification rejected", "error", err)
		metrics.ReconcileOutcomesTotal.WithLabelValues("rejected").Inc()
		return DispatchResult{}, err
	}

	res := DispatchResult{EventID: ev.ID, EventType: ev.Type, TransactionID: ev.TransactionID}
	log := u.log.With("transaction_id", ev.TransactionID, "event_id", ev.ID, "event_type", ev.Type)

	switch ev.Type {
	case gateway.EventPaymentSucceeded:
		res.ReconcileResult, err = u.reconciler.ReconcileSucceeded(ctx, ev)
	case gateway.EventPaymentFailed:
		res.ReconcileResult, err = u.reconciler.RecordFailed(ctx, ev)
	default:
		//受け取ったことだけ返す（再送させない）
		log.Info("gateway event type ignored")
		res.Outcome = OutcomeIgnored
	}

	if err != nil {
		if errors.Is(err, ErrInvalidEvent) {
			log.Warn("gateway event rejected", "error", err)
			metrics.ReconcileOutcomesTotal.WithLabelValues("rejected").Inc()
		} else {
			log.Error("gateway event processing failed, gateway will redeliver", "error", err)
			metrics.ReconcileOutcomesTotal.WithLabelValues("retry").Inc()
		}
		return res, err
	}

	metrics.ReconcileOutcomesTotal.WithLabelValues(string(res.Outcome)).Inc()
	log.Info("gateway event settled", "outcome", string(res.Outcome))
	return res, nil
}
