package metrics

import "github.com/prometheus/client_golang/prometheus"

// 決済通知の突合せに関するメトリクス
var (
	ReconcileOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_outcomes_total",
			Help: "Gateway notifications by settled outcome (created, already_reconciled, payment_failed_recorded, ignored, rejected, retry)",
		},
		[]string{"outcome"},
	)

	ReconcileDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reconcile_duration_seconds",
			Help:    "Duration of gateway notification handling",
			Buckets: prometheus.DefBuckets,
		},
	)

	DegradedMetadataTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_degraded_metadata_total",
			Help: "Orders created from degraded metadata, by part (cart, address)",
		},
		[]string{"part"},
	)

	OrderNumberCollisionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "order_number_collisions_total",
			Help: "Order number unique constraint collisions that triggered regeneration",
		},
	)
)

// Register はデフォルトレジストリに登録する。起動時に1回だけ呼ぶ。
func Register() {
	prometheus.MustRegister(
		ReconcileOutcomesTotal,
		ReconcileDuration,
		DegradedMetadataTotal,
		OrderNumberCollisionsTotal,
	)
}
