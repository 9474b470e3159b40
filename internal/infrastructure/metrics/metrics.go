package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Lifecycle metrics
	TransfersRequested prometheus.Counter
	Decisions          *prometheus.CounterVec
	LedgerApplications *prometheus.CounterVec
	Demotions          prometheus.Counter
	Reviews            *prometheus.CounterVec
	Timeouts           prometheus.Counter
	TransferAmount     prometheus.Histogram

	// Outbox metrics
	OutboxPublished prometheus.Counter
	OutboxErrors    prometheus.Counter
	OutboxLagBatch  prometheus.Histogram

	// Consumer metrics
	ConsumerMessages *prometheus.CounterVec

	// Account metrics
	AccountsCreated prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Database metrics
	DBErrors      *prometheus.CounterVec
	SerialRetries prometheus.Counter

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		TransfersRequested: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fraudgate_transfers_requested_total",
			Help: "Total number of transfer requests accepted",
		}),
		Decisions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fraudgate_decisions_total",
				Help: "Total policy decisions by outcome",
			},
			[]string{"decision"},
		),
		LedgerApplications: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fraudgate_ledger_applications_total",
				Help: "Total committed ledger applications by path",
			},
			[]string{"path"},
		),
		Demotions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fraudgate_demotions_total",
			Help: "Total ALLOW decisions demoted to review for insufficient funds",
		}),
		Reviews: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fraudgate_reviews_total",
				Help: "Total manual review actions by verdict",
			},
			[]string{"action"},
		),
		Timeouts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fraudgate_timeouts_total",
			Help: "Total transactions failed by the timeout reconciler",
		}),
		TransferAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fraudgate_transfer_amount",
			Help:    "Requested transfer amounts",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),

		OutboxPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fraudgate_outbox_published_total",
			Help: "Total outbox events published to the bus",
		}),
		OutboxErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fraudgate_outbox_errors_total",
			Help: "Total outbox publish failures",
		}),
		OutboxLagBatch: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fraudgate_outbox_batch_size",
			Help:    "Unpublished events picked up per publisher pass",
			Buckets: []float64{0, 1, 5, 10, 50, 100, 200},
		}),

		ConsumerMessages: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fraudgate_consumer_messages_total",
				Help: "Total bus messages consumed by routing key and result",
			},
			[]string{"routing_key", "result"},
		),

		AccountsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fraudgate_accounts_created_total",
			Help: "Total number of accounts created",
		}),

		HTTPRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fraudgate_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fraudgate_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		DBErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fraudgate_db_errors_total",
				Help: "Total database errors",
			},
			[]string{"operation"},
		),
		SerialRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fraudgate_serialization_retries_total",
			Help: "Total serialization conflicts retried",
		}),

		RateLimitHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fraudgate_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"ip"},
		),
	}
}
