package ledger

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============================================================
// Prometheus метрики движка расчётов
// ============================================================
//
// Экспортируются через /metrics (см. internal/api/routes.go).
// Используются для дашбордов и алертов: доля отказов по нехватке
// средств, латентность транзакций расчёта, размер пакетов матчинга.

// settlementsTotal - счётчик расчётов по стороне и исходу
var settlementsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "pickcoin",
		Subsystem: "ledger",
		Name:      "settlements_total",
		Help:      "Total number of settlement attempts by side and result",
	},
	[]string{"side", "result"},
)

// settlementDuration - длительность транзакции одного расчёта
var settlementDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "pickcoin",
		Subsystem: "ledger",
		Name:      "settlement_duration_seconds",
		Help:      "Duration of a single settlement transaction",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 3},
	},
	[]string{"side"},
)

// tickBatchSize - количество подходящих ордеров на один тик цены
var tickBatchSize = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "pickcoin",
		Subsystem: "ledger",
		Name:      "tick_batch_size",
		Help:      "Number of eligible orders per price tick",
		Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
	},
)

// tickOrderFailures - счётчик отказов расчёта внутри пакетов матчинга
var tickOrderFailures = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "pickcoin",
		Subsystem: "ledger",
		Name:      "tick_order_failures_total",
		Help:      "Total number of per-order settlement failures during matching",
	},
)

// observeSettlement фиксирует исход и длительность одного расчёта
func observeSettlement(side string, err error, elapsed time.Duration) {
	result := "filled"
	if err != nil {
		result = string(KindOf(err))
	}
	settlementsTotal.WithLabelValues(side, result).Inc()
	settlementDuration.WithLabelValues(side).Observe(elapsed.Seconds())
}

// observeTick фиксирует размер пакета и количество отказов одного тика
func observeTick(eligible, failed int) {
	tickBatchSize.Observe(float64(eligible))
	if failed > 0 {
		tickOrderFailures.Add(float64(failed))
	}
}
