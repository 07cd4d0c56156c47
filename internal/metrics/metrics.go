package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "fxdesk_"

	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	registerOnce sync.Once

	operationTotal   *prometheus.CounterVec
	operationLatency *prometheus.HistogramVec

	legMismatchTotal *prometheus.CounterVec
	swapOutcomeTotal *prometheus.CounterVec
	closingBalance   *prometheus.GaugeVec
)

// Init registers ledger metrics with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		operationTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "operation_total",
				Help: "Total ledger operations by operation and result",
			},
			[]string{"operation", "result"},
		)
		operationLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "operation_latency_seconds",
				Help:    "Ledger operation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "result"},
		)
		legMismatchTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "leg_mismatch_total",
				Help: "Transactions whose settlement legs do not sum to the amount",
			},
			[]string{"currency"},
		)
		swapOutcomeTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "swap_outcome_total",
				Help: "Swaps by final state",
			},
			[]string{"state"},
		)
		closingBalance = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "inventory_closing_balance",
				Help: "Closing balance of the newest recorded day per currency",
			},
			[]string{"currency"},
		)

		prometheus.MustRegister(
			operationTotal,
			operationLatency,
			legMismatchTotal,
			swapOutcomeTotal,
			closingBalance,
		)
	})
}

// Result maps an operation error to a result label.
func Result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}

// ObserveOperation records one ledger operation's duration and result.
func ObserveOperation(operation, result string, duration time.Duration) {
	if result == "" {
		result = ResultSuccess
	}
	if operationTotal != nil {
		operationTotal.WithLabelValues(operation, result).Inc()
	}
	if operationLatency != nil {
		operationLatency.WithLabelValues(operation, result).Observe(duration.Seconds())
	}
}

// IncLegMismatch counts a failed leg validation.
func IncLegMismatch(currency string) {
	if legMismatchTotal != nil {
		legMismatchTotal.WithLabelValues(currency).Inc()
	}
}

// IncSwapOutcome counts a finished swap by state.
func IncSwapOutcome(state string) {
	if state == "" {
		state = "unknown"
	}
	if swapOutcomeTotal != nil {
		swapOutcomeTotal.WithLabelValues(state).Inc()
	}
}

// SetClosingBalance publishes the closing balance of the newest day of a currency.
func SetClosingBalance(currency string, value float64) {
	if closingBalance != nil {
		closingBalance.WithLabelValues(currency).Set(value)
	}
}
