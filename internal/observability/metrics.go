package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the transaction engine.
// All methods are nil-safe so tests can run without a registry.
type Metrics struct {
	TxApplied  *prometheus.CounterVec
	TxRejected *prometheus.CounterVec
	TxDuration *prometheus.HistogramVec

	LockWait     prometheus.Histogram
	LockHold     prometheus.Histogram
	LockTimeouts prometheus.Counter
	ReleaseFails prometheus.Counter

	DAOErrors *prometheus.CounterVec

	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	PublishErrors prometheus.Counter
}

func NewMetrics() *Metrics {
	lockBuckets := []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

	return &Metrics{
		TxApplied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_transactions_applied_total",
			Help: "Balance mutations committed",
		}, []string{"type"}),

		TxRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_transactions_rejected_total",
			Help: "Mutations rejected (validation, insufficient funds, lock, dao)",
		}, []string{"type", "reason"}),

		TxDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ledger_transaction_duration_seconds",
			Help:    "End-to-end duration of one manager operation",
			Buckets: lockBuckets,
		}, []string{"type"}),

		LockWait: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledger_lock_wait_seconds",
			Help:    "Time spent waiting to acquire the per-user lock",
			Buckets: lockBuckets,
		}),

		LockHold: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledger_lock_hold_seconds",
			Help:    "Time the per-user lock was held",
			Buckets: lockBuckets,
		}),

		LockTimeouts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledger_lock_timeouts_total",
			Help: "Lock acquisitions that timed out",
		}),

		ReleaseFails: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledger_lock_release_failures_total",
			Help: "Post-commit lock releases that failed (logged and swallowed)",
		}),

		DAOErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_dao_errors_total",
			Help: "DAO-layer failures by operation",
		}, []string{"op"}),

		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledger_balance_cache_hits_total",
			Help: "Balance reads served from cache",
		}),

		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledger_balance_cache_misses_total",
			Help: "Balance reads that fell through to the repository",
		}),

		PublishErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledger_event_publish_errors_total",
			Help: "Transaction events that could not be published",
		}),
	}
}

func (m *Metrics) ObserveTx(txType string, d time.Duration) {
	if m == nil {
		return
	}
	m.TxApplied.WithLabelValues(txType).Inc()
	m.TxDuration.WithLabelValues(txType).Observe(d.Seconds())
}

func (m *Metrics) RejectTx(txType, reason string) {
	if m == nil {
		return
	}
	m.TxRejected.WithLabelValues(txType, reason).Inc()
}

func (m *Metrics) ObserveLock(wait, hold time.Duration) {
	if m == nil {
		return
	}
	m.LockWait.Observe(wait.Seconds())
	m.LockHold.Observe(hold.Seconds())
}

func (m *Metrics) LockTimeout() {
	if m == nil {
		return
	}
	m.LockTimeouts.Inc()
}

func (m *Metrics) ReleaseFailed() {
	if m == nil {
		return
	}
	m.ReleaseFails.Inc()
}

func (m *Metrics) DAOError(op string) {
	if m == nil {
		return
	}
	m.DAOErrors.WithLabelValues(op).Inc()
}

func (m *Metrics) CacheHit(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHits.Inc()
	} else {
		m.CacheMisses.Inc()
	}
}

func (m *Metrics) PublishError() {
	if m == nil {
		return
	}
	m.PublishErrors.Inc()
}
