package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Entry metrics
	EntriesCreated        prometheus.Counter
	SeriesCreated         prometheus.Counter
	InstallmentsPerSeries prometheus.Histogram

	// Series and invoice mutation metrics
	SeriesMutations      *prometheus.CounterVec
	SeriesMutationSize   prometheus.Histogram
	InvoiceStatusChanges *prometheus.CounterVec
	MutationConflicts    *prometheus.CounterVec
	BatchDuration        *prometheus.HistogramVec

	// Statement import metrics
	ImportCandidates *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Database metrics
	DBErrors  *prometheus.CounterVec
	DBRetries *prometheus.CounterVec

	// Outbox metrics
	OutboxPublished prometheus.Counter
	OutboxFailures  prometheus.Counter

	// Authentication metrics
	AuthFailures *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec
}

// New creates all metrics and registers them with reg.
// A nil reg uses the default Prometheus registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		EntriesCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "cardledger_entries_created_total",
			Help: "Total number of entries created, installments included",
		}),
		SeriesCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "cardledger_series_created_total",
			Help: "Total number of installment series created",
		}),
		InstallmentsPerSeries: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "cardledger_installments_per_series",
			Help:    "Number of installments in created series",
			Buckets: []float64{2, 3, 6, 10, 12, 18, 24, 48, 120},
		}),

		SeriesMutations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardledger_series_mutations_total",
				Help: "Total forward updates and deletes applied to installment series",
			},
			[]string{"operation"},
		),
		SeriesMutationSize: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "cardledger_series_mutation_entries",
			Help:    "Number of entries touched by one series mutation",
			Buckets: []float64{1, 2, 3, 6, 12, 24, 60, 120},
		}),
		InvoiceStatusChanges: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardledger_invoice_status_changes_total",
				Help: "Total invoice payment status changes by new status",
			},
			[]string{"status"},
		),
		MutationConflicts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardledger_mutation_conflicts_total",
				Help: "Batches rejected because another batch held the same target",
			},
			[]string{"target"},
		),
		BatchDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cardledger_batch_duration_seconds",
				Help:    "Duration of atomic store batches",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		DBRetries: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardledger_db_retries_total",
				Help: "Transactions re-run after a deadlock or serialization failure",
			},
			[]string{"reason"},
		),

		ImportCandidates: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardledger_import_candidates_total",
				Help: "Statement lines processed by outcome",
			},
			[]string{"result"},
		),

		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cardledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		DBErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardledger_db_errors_total",
				Help: "Total database errors",
			},
			[]string{"operation"},
		),

		OutboxPublished: f.NewCounter(prometheus.CounterOpts{
			Name: "cardledger_outbox_published_total",
			Help: "Outbox events delivered to the broker",
		}),
		OutboxFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "cardledger_outbox_failures_total",
			Help: "Outbox events that failed to publish",
		}),

		AuthFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardledger_auth_failures_total",
				Help: "Total authentication failures",
			},
			[]string{"reason"},
		),

		RateLimitHits: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cardledger_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"ip"},
		),
	}
}
