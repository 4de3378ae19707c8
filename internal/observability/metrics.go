// Package observability provides metrics and tracing.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis failures by operation.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quill_redis_errors_total",
		Help: "Total number of Redis errors by operation",
	}, []string{"operation"})

	// DatabaseQueryDuration records the latency of every SQL statement.
	DatabaseQueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "quill_database_query_duration_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// DatabaseErrors counts failed SQL statements, excluding not-found lookups.
	DatabaseErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quill_database_errors_total",
		Help: "Total number of failed database queries",
	})

	// PageCacheRequests counts page cache lookups by result (hit, miss, error).
	PageCacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quill_page_cache_requests_total",
		Help: "Page cache lookups by result",
	}, []string{"result"})

	// ContentCreated counts created posts, comments and follows.
	ContentCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quill_content_created_total",
		Help: "Created content items by kind",
	}, []string{"kind"})

	// EventsPublished counts domain events by type and outcome.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quill_events_published_total",
		Help: "Domain events published by type and result",
	}, []string{"type", "result"})

	// BlobBytesStored sums the bytes written to the blob store.
	BlobBytesStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quill_blob_bytes_stored_total",
		Help: "Bytes written to the blob store",
	})
)
