package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	IngestRowsRead = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "thefts_ingest_rows_read_total",
		Help: "Total input rows read by ingestion runs",
	})
	IngestRowsAccepted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "thefts_ingest_rows_accepted_total",
		Help: "Total rows that parsed and fell inside the polygon",
	})
	IngestRowsSkipped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "thefts_ingest_rows_skipped_total",
		Help: "Total rows dropped by reason",
	}, []string{"reason"})
	IngestRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "thefts_ingest_runs_total",
		Help: "Ingestion runs by outcome",
	}, []string{"outcome"})
	ReplaceDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "thefts_replace_duration_ms",
		Help:    "Replace transaction duration in milliseconds",
		Buckets: []float64{5, 10, 50, 100, 250, 500, 1000, 2500, 5000},
	})
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "thefts_http_requests_total",
		Help: "HTTP requests by route and status",
	}, []string{"route", "status"})
	HTTPRequestDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "thefts_http_request_duration_ms",
		Help:    "HTTP request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	}, []string{"route"})
	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "thefts_cache_hits_total",
		Help: "Total cache hits for theft listings",
	})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "thefts_cache_misses_total",
		Help: "Total cache misses for theft listings",
	})
)

func init() {
	prometheus.MustRegister(IngestRowsRead)
	prometheus.MustRegister(IngestRowsAccepted)
	prometheus.MustRegister(IngestRowsSkipped)
	prometheus.MustRegister(IngestRunsTotal)
	prometheus.MustRegister(ReplaceDurationMs)
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDurationMs)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
}

// Handler отдает зарегистрированные метрики для /metrics
func Handler() http.Handler { return promhttp.Handler() }
