// Package metrics holds the Prometheus collectors of the explorer.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// queriesTotal counts dataset queries by kind (select, count, best, distinct).
	queriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minionview_queries_total",
			Help: "Total number of dataset queries by kind",
		},
		[]string{"kind", "status"},
	)

	queryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "minionview_query_duration_seconds",
			Help:    "Dataset query latency by kind",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// cacheTotal counts cache lookups: hit, miss, error.
	cacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minionview_cache_total",
			Help: "Query cache lookups by result",
		},
		[]string{"result"},
	)

	datasetRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "minionview_dataset_rows",
			Help: "Rows in the currently loaded dataset",
		},
	)

	reloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minionview_reloads_total",
			Help: "Dataset reloads by status",
		},
		[]string{"status"},
	)
)

// ObserveQuery records one query of kind that started at start.
func ObserveQuery(kind string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	queriesTotal.WithLabelValues(kind, status).Inc()
	queryDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

// CacheHit, CacheMiss and CacheError count cache lookups.
func CacheHit()   { cacheTotal.WithLabelValues("hit").Inc() }
func CacheMiss()  { cacheTotal.WithLabelValues("miss").Inc() }
func CacheError() { cacheTotal.WithLabelValues("error").Inc() }

// DatasetLoaded records a reload attempt and the row count of the new dataset.
func DatasetLoaded(rows int64, err error) {
	if err != nil {
		reloadsTotal.WithLabelValues("failed").Inc()
		return
	}
	reloadsTotal.WithLabelValues("success").Inc()
	datasetRows.Set(float64(rows))
}
