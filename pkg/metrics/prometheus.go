package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	rowsStored  *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	articles    *prometheus.CounterVec
	confidence  *prometheus.GaugeVec
	latency     *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		rowsStored: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quantpull_rows_stored_total",
				Help: "Total number of feature and sentiment rows written to a backend",
			},
			[]string{"backend", "symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quantpull_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		articles: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quantpull_articles_total",
				Help: "Articles seen per news source, split by relevance",
			},
			[]string{"source", "relevant"},
		),
		confidence: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "quantpull_sentiment_confidence",
				Help: "Confidence of the most recent daily sentiment row per symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quantpull_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordRowsStored records rows written to a storage backend.
func (r *Recorder) RecordRowsStored(backend, symbol string, n int) {
	r.rowsStored.WithLabelValues(backend, symbol).Add(float64(n))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordArticle records a fetched article and whether it passed the
// relevance filter.
func (r *Recorder) RecordArticle(source string, relevant bool) {
	r.articles.WithLabelValues(source, strconv.FormatBool(relevant)).Inc()
}

// RecordSentiment records the confidence of the latest sentiment row
// for a symbol.
func (r *Recorder) RecordSentiment(symbol string, confidence float64) {
	r.confidence.WithLabelValues(symbol).Set(confidence)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
